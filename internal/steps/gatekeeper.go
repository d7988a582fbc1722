// Package steps contains the modular pipeline steps of the recommend flow.
// Each step implements the pipeline.Step interface.
package steps

import (
	"log"
	"strings"

	"github.com/resolverank/resolverank/internal/core/pipeline"
)

// Gatekeeper filters out items that should never reach the matcher: pull
// requests, title-less issues, and issues opened by bots.
type Gatekeeper struct{}

// NewGatekeeper creates a new gatekeeper step.
func NewGatekeeper(_ *pipeline.Dependencies) *Gatekeeper {
	return &Gatekeeper{}
}

// Name returns the step name.
func (s *Gatekeeper) Name() string {
	return "gatekeeper"
}

// Run checks whether the issue is worth matching at all.
func (s *Gatekeeper) Run(ctx *pipeline.Context) error {
	if ctx.Issue.IsPR {
		log.Printf("[gatekeeper] #%d is a pull request, skipping", ctx.Issue.Number)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "pull requests are not matched"
		return pipeline.ErrSkipPipeline
	}

	if strings.TrimSpace(ctx.Issue.Title) == "" {
		log.Printf("[gatekeeper] #%d has no title, skipping", ctx.Issue.Number)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "issue has no title"
		return pipeline.ErrSkipPipeline
	}

	if isBotAuthor(ctx.Issue.Author) {
		log.Printf("[gatekeeper] #%d opened by bot %q, skipping", ctx.Issue.Number, ctx.Issue.Author)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "issue opened by a bot"
		return pipeline.ErrSkipPipeline
	}

	log.Printf("[gatekeeper] #%d (%s) passes, proceeding", ctx.Issue.Number, ctx.Issue.FullRepo())
	return nil
}

// isBotAuthor reports whether a username matches a known bot pattern.
func isBotAuthor(author string) bool {
	return strings.HasSuffix(author, "[bot]") ||
		strings.HasSuffix(strings.ToLower(author), "-bot")
}
