package steps

import (
	"errors"
	"strings"
	"testing"

	"github.com/resolverank/resolverank/internal/core/pipeline"
)

func TestSkillExtractorWithLLM(t *testing.T) {
	llm := &fakeLLM{skills: []string{"go", "grpc", "sqlite"}}
	step := NewSkillExtractor(&pipeline.Dependencies{LLM: llm})

	ctx := testContext(&pipeline.Issue{
		Number: 7,
		Title:  "gRPC server leaks connections",
		Body:   "Connections pile up under load.",
		Labels: []string{"bug"},
		Author: "alice",
	})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ctx.Result.IssueSkills) != 3 {
		t.Fatalf("expected 3 skills, got %v", ctx.Result.IssueSkills)
	}
	if !strings.HasPrefix(ctx.SkillsText, "Skills: go, grpc, sqlite") {
		t.Errorf("expected skills-led document, got %q", ctx.SkillsText)
	}
	if !strings.Contains(ctx.SkillsText, "gRPC server leaks connections") {
		t.Errorf("expected issue content in document, got %q", ctx.SkillsText)
	}
}

func TestSkillExtractorWithoutLLM(t *testing.T) {
	step := NewSkillExtractor(&pipeline.Dependencies{})

	ctx := testContext(&pipeline.Issue{
		Number: 8,
		Title:  "Docs are outdated",
		Body:   "The README still shows the old flags.",
		Author: "alice",
	})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ctx.SkillsText == "" {
		t.Fatal("expected fallback skills text")
	}
	if strings.HasPrefix(ctx.SkillsText, "Skills:") {
		t.Errorf("fallback should not claim extracted skills: %q", ctx.SkillsText)
	}
	if len(ctx.Result.IssueSkills) != 0 {
		t.Errorf("expected no issue skills, got %v", ctx.Result.IssueSkills)
	}
}

func TestSkillExtractorFallsBackOnError(t *testing.T) {
	llm := &fakeLLM{skillsErr: errors.New("quota exceeded")}
	step := NewSkillExtractor(&pipeline.Dependencies{LLM: llm})

	ctx := testContext(&pipeline.Issue{
		Number: 9,
		Title:  "Panic in parser",
		Body:   "Stack trace attached.",
		Author: "alice",
	})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("extraction failure should not fail the step: %v", err)
	}
	if !strings.Contains(ctx.SkillsText, "Panic in parser") {
		t.Errorf("expected normalized content fallback, got %q", ctx.SkillsText)
	}
}
