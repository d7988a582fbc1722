// Package pipeline provides the core engine for the recommendation flow.
// It defines the Step interface and the Context passed between steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/resolverank/resolverank/internal/core/config"
)

// ErrSkipPipeline indicates that the pipeline should stop gracefully. This
// is not an error condition, just an early exit (e.g. a pull request or an
// excluded author).
var ErrSkipPipeline = errors.New("skip remaining pipeline steps")

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Name returns the unique identifier for this step.
	Name() string

	// Run executes the step's logic. It should return ErrSkipPipeline to
	// stop the pipeline gracefully, or any other error to indicate failure.
	Run(ctx *Context) error
}

// Issue represents the open GitHub issue being matched.
type Issue struct {
	Org    string
	Repo   string
	Number int
	Title  string
	Body   string
	State  string
	Labels []string
	Author string
	URL    string
	IsPR   bool
}

// FullRepo returns "org/repo".
func (i *Issue) FullRepo() string {
	return i.Org + "/" + i.Repo
}

// Candidate is one contributor considered for the issue, accumulating
// scores as the pipeline advances. Nil score pointers mean the component
// did not run for this candidate.
type Candidate struct {
	Login          string
	ProfileText    string
	Skills         []string
	Repos          []string
	ResolvedCount  int
	EmbeddingScore *float64
	TFIDFScore     *float64
	LLMScore       *float64
	FinalScore     float64
	Reasoning      string
}

// Result holds the accumulated results from pipeline execution.
type Result struct {
	IssueNumber int
	Skipped     bool
	SkipReason  string
	IssueSkills []string
	Candidates  []*Candidate
	Report      string
}

// Context carries data through the pipeline steps.
type Context struct {
	// Ctx is the Go context for cancellation and timeouts.
	Ctx context.Context

	// Issue is the issue being matched.
	Issue *Issue

	// Config is the loaded configuration.
	Config *config.Config

	// Result accumulates the processing results.
	Result *Result

	// SkillsText is the issue's required-skills document produced by the
	// skill extraction step and consumed by search and ranking.
	SkillsText string

	// Metadata allows steps to pass arbitrary data to subsequent steps.
	Metadata map[string]interface{}
}

// NewContext creates a new pipeline context for an issue.
func NewContext(ctx context.Context, issue *Issue, cfg *config.Config) *Context {
	return &Context{
		Ctx:      ctx,
		Issue:    issue,
		Config:   cfg,
		Result:   &Result{IssueNumber: issue.Number},
		Metadata: make(map[string]interface{}),
	}
}

// Pipeline executes a sequence of steps.
type Pipeline struct {
	steps []Step
}

// New creates a new pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order, stopping on the first error.
// ErrSkipPipeline is a graceful exit, not a failure.
func (p *Pipeline) Run(ctx *Context) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				return nil
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}
	}
	return nil
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Steps returns the list of steps (for introspection).
func (p *Pipeline) Steps() []Step {
	return p.steps
}
