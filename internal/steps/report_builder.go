package steps

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/rank"
)

// ReportBuilder combines the per-component scores into a final ranking and
// renders the recommendation report.
type ReportBuilder struct{}

// NewReportBuilder creates a new report building step.
func NewReportBuilder(_ *pipeline.Dependencies) *ReportBuilder {
	return &ReportBuilder{}
}

// Name returns the step name.
func (s *ReportBuilder) Name() string {
	return "report_builder"
}

// Run computes FinalScore for every candidate, orders them, trims to
// max_candidates and writes the report into ctx.Result.Report.
func (s *ReportBuilder) Run(ctx *pipeline.Context) error {
	candidates := ctx.Result.Candidates
	if len(candidates) == 0 {
		ctx.Result.Report = fmt.Sprintf("No suitable contributors found for %s#%d.",
			ctx.Issue.FullRepo(), ctx.Issue.Number)
		log.Printf("[report_builder] no candidates for #%d", ctx.Issue.Number)
		return nil
	}

	for _, c := range candidates {
		c.FinalScore = rank.Combine(rank.Scores{
			Embedding: c.EmbeddingScore,
			TFIDF:     c.TFIDFScore,
			LLM:       c.LLMScore,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		return candidates[i].Login < candidates[j].Login
	})

	if limit := ctx.Config.Defaults.MaxCandidates; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ctx.Result.Candidates = candidates

	ctx.Result.Report = renderReport(ctx, candidates)
	log.Printf("[report_builder] report ready, %d candidates for #%d", len(candidates), ctx.Issue.Number)
	return nil
}

func renderReport(ctx *pipeline.Context, candidates []*pipeline.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recommended contributors for %s#%d: %s\n",
		ctx.Issue.FullRepo(), ctx.Issue.Number, ctx.Issue.Title)
	if len(ctx.Result.IssueSkills) > 0 {
		fmt.Fprintf(&b, "Required skills: %s\n", strings.Join(ctx.Result.IssueSkills, ", "))
	}
	b.WriteString("\n")

	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s (score %.3f)\n", i+1, c.Login, c.FinalScore)
		fmt.Fprintf(&b, "   components: %s\n", formatComponents(c))
		if len(c.Skills) > 0 {
			fmt.Fprintf(&b, "   skills: %s\n", strings.Join(c.Skills, ", "))
		}
		if c.ResolvedCount > 0 {
			fmt.Fprintf(&b, "   resolved issues: %d\n", c.ResolvedCount)
		}
		if c.Reasoning != "" {
			fmt.Fprintf(&b, "   assessment: %s\n", c.Reasoning)
		}
	}

	return b.String()
}

func formatComponents(c *pipeline.Candidate) string {
	parts := make([]string, 0, 3)
	if c.EmbeddingScore != nil {
		parts = append(parts, fmt.Sprintf("embedding %.3f", *c.EmbeddingScore))
	}
	if c.TFIDFScore != nil {
		parts = append(parts, fmt.Sprintf("tfidf %.3f", *c.TFIDFScore))
	}
	if c.LLMScore != nil {
		parts = append(parts, fmt.Sprintf("llm %.3f", *c.LLMScore))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
