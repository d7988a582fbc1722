package steps

import (
	"log"
	"sort"

	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/integrations/gemini"
)

// LLMScorer asks the LLM to assess the top candidates against the issue.
// Without an LLM configured the step is a no-op.
type LLMScorer struct {
	llm pipeline.SkillLLM
}

// NewLLMScorer creates a new LLM scoring step.
func NewLLMScorer(deps *pipeline.Dependencies) *LLMScorer {
	return &LLMScorer{llm: deps.LLM}
}

// Name returns the step name.
func (s *LLMScorer) Name() string {
	return "llm_scorer"
}

// Run scores the llm_rerank_top candidates by embedding rank. Individual
// scoring failures are logged and skipped; the candidate keeps its other
// scores.
func (s *LLMScorer) Run(ctx *pipeline.Context) error {
	if s.llm == nil {
		log.Printf("[llm_scorer] no LLM configured, skipping")
		return nil
	}
	if len(ctx.Result.Candidates) == 0 {
		log.Printf("[llm_scorer] no candidates to score")
		return nil
	}

	top := ctx.Config.Defaults.LLMRerankTop
	if top <= 0 || top > len(ctx.Result.Candidates) {
		top = len(ctx.Result.Candidates)
	}

	// Rank by embedding score to pick who gets the expensive LLM pass.
	byEmbedding := make([]*pipeline.Candidate, len(ctx.Result.Candidates))
	copy(byEmbedding, ctx.Result.Candidates)
	sort.SliceStable(byEmbedding, func(i, j int) bool {
		return deref(byEmbedding[i].EmbeddingScore) > deref(byEmbedding[j].EmbeddingScore)
	})

	issue := &gemini.IssueInput{
		Title:  ctx.Issue.Title,
		Body:   ctx.Issue.Body,
		Labels: ctx.Issue.Labels,
	}

	scored := 0
	for _, c := range byEmbedding[:top] {
		result, err := s.llm.ScoreCandidate(ctx.Ctx, &gemini.ScoreInput{
			Issue:       issue,
			IssueSkills: ctx.Result.IssueSkills,
			Candidate: &gemini.CandidateInput{
				Login:      c.Login,
				Skills:     c.Skills,
				Similarity: deref(c.EmbeddingScore),
			},
		})
		if err != nil {
			log.Printf("[llm_scorer] scoring %s failed: %v", c.Login, err)
			continue
		}

		confidence := result.Confidence
		c.LLMScore = &confidence
		c.Reasoning = result.Reasoning
		scored++
	}

	log.Printf("[llm_scorer] scored %d of top %d candidates", scored, top)
	return nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
