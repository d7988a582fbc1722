package steps

import (
	"strings"
	"testing"

	"github.com/resolverank/resolverank/internal/core/pipeline"
)

func TestTFIDFRankScoresCandidates(t *testing.T) {
	step := NewTFIDFRank(nil)
	ctx := testContext(&pipeline.Issue{Number: 31, Title: "bug", Author: "alice"})
	ctx.SkillsText = "Skills: grpc streaming backpressure"
	ctx.Result.Candidates = []*pipeline.Candidate{
		{Login: "bob", ProfileText: "grpc streaming services and backpressure tuning"},
		{Login: "carol", ProfileText: "frontend css layouts"},
		{Login: "dave"},
	}

	if err := step.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bob := ctx.Result.Candidates[0]
	carol := ctx.Result.Candidates[1]
	if bob.TFIDFScore == nil || carol.TFIDFScore == nil {
		t.Fatal("expected TF-IDF scores on candidates with profile text")
	}
	if *bob.TFIDFScore <= *carol.TFIDFScore {
		t.Errorf("expected overlapping profile to score higher: bob %.3f, carol %.3f",
			*bob.TFIDFScore, *carol.TFIDFScore)
	}
	if ctx.Result.Candidates[2].TFIDFScore != nil {
		t.Error("expected no score without profile text")
	}
}

func TestTFIDFRankNoCandidates(t *testing.T) {
	ctx := testContext(&pipeline.Issue{Number: 32, Title: "bug", Author: "alice"})
	if err := NewTFIDFRank(nil).Run(ctx); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestReportBuilderOrdersAndTrims(t *testing.T) {
	step := NewReportBuilder(nil)
	ctx := testContext(&pipeline.Issue{Org: "acme", Repo: "widgets", Number: 33, Title: "fix crash", Author: "alice"})
	ctx.Config.Defaults.MaxCandidates = 2
	ctx.Result.IssueSkills = []string{"go", "debugging"}
	ctx.Result.Candidates = []*pipeline.Candidate{
		{Login: "carol", EmbeddingScore: floatPtr(0.60), TFIDFScore: floatPtr(0.40)},
		{Login: "bob", EmbeddingScore: floatPtr(0.90), TFIDFScore: floatPtr(0.80), LLMScore: floatPtr(0.95), Reasoning: "solved two similar crashes"},
		{Login: "dave", EmbeddingScore: floatPtr(0.55)},
	}

	if err := step.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ctx.Result.Candidates) != 2 {
		t.Fatalf("expected trim to 2 candidates, got %d", len(ctx.Result.Candidates))
	}
	if ctx.Result.Candidates[0].Login != "bob" {
		t.Errorf("expected bob ranked first, got %s", ctx.Result.Candidates[0].Login)
	}
	if ctx.Result.Candidates[0].FinalScore <= ctx.Result.Candidates[1].FinalScore {
		t.Error("expected descending final scores")
	}

	report := ctx.Result.Report
	if !strings.Contains(report, "acme/widgets#33") {
		t.Errorf("expected issue reference in report: %q", report)
	}
	if !strings.Contains(report, "Required skills: go, debugging") {
		t.Errorf("expected issue skills in report: %q", report)
	}
	if !strings.Contains(report, "1. bob") {
		t.Errorf("expected ranked list in report: %q", report)
	}
	if !strings.Contains(report, "solved two similar crashes") {
		t.Errorf("expected reasoning in report: %q", report)
	}
	if strings.Contains(report, "dave") {
		t.Errorf("trimmed candidate should not appear in report: %q", report)
	}
}

func TestReportBuilderTieBreaksAlphabetically(t *testing.T) {
	step := NewReportBuilder(nil)
	ctx := testContext(&pipeline.Issue{Org: "acme", Repo: "widgets", Number: 34, Title: "bug", Author: "alice"})
	ctx.Result.Candidates = []*pipeline.Candidate{
		{Login: "zoe", EmbeddingScore: floatPtr(0.7)},
		{Login: "amy", EmbeddingScore: floatPtr(0.7)},
	}

	if err := step.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Result.Candidates[0].Login != "amy" {
		t.Errorf("expected alphabetical tie-break, got %s first", ctx.Result.Candidates[0].Login)
	}
}

func TestReportBuilderNoCandidates(t *testing.T) {
	step := NewReportBuilder(nil)
	ctx := testContext(&pipeline.Issue{Org: "acme", Repo: "widgets", Number: 35, Title: "bug", Author: "alice"})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(ctx.Result.Report, "No suitable contributors") {
		t.Errorf("expected empty-result report, got %q", ctx.Result.Report)
	}
}

func TestRegisterAllCoversPresets(t *testing.T) {
	registry := pipeline.NewRegistry()
	RegisterAll(registry)

	for name, stepNames := range pipeline.Presets {
		p, err := registry.BuildFromNames(stepNames, &pipeline.Dependencies{})
		if err != nil {
			t.Fatalf("preset %q has unregistered steps: %v", name, err)
		}
		if len(p.Steps()) != len(stepNames) {
			t.Errorf("preset %q built %d of %d steps", name, len(p.Steps()), len(stepNames))
		}
	}
}
