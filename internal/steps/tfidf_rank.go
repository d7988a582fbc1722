package steps

import (
	"log"

	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/rank"
)

// TFIDFRank scores candidates lexically: TF-IDF cosine between the issue's
// skills document and each candidate's stored profile text.
type TFIDFRank struct{}

// NewTFIDFRank creates a new TF-IDF ranking step.
func NewTFIDFRank(_ *pipeline.Dependencies) *TFIDFRank {
	return &TFIDFRank{}
}

// Name returns the step name.
func (s *TFIDFRank) Name() string {
	return "tfidf_rank"
}

// Run attaches a TFIDFScore to every candidate with profile text.
func (s *TFIDFRank) Run(ctx *pipeline.Context) error {
	if len(ctx.Result.Candidates) == 0 {
		log.Printf("[tfidf_rank] no candidates to rank")
		return nil
	}

	// The corpus is this search's documents; IDF weights are local to the
	// query, which is enough for relative ordering.
	corpus := make([]string, 0, len(ctx.Result.Candidates)+1)
	corpus = append(corpus, ctx.SkillsText)
	for _, c := range ctx.Result.Candidates {
		corpus = append(corpus, c.ProfileText)
	}
	vectorizer := rank.NewTFIDF(corpus)

	scored := 0
	for _, c := range ctx.Result.Candidates {
		if c.ProfileText == "" {
			continue
		}
		score := vectorizer.Similarity(ctx.SkillsText, c.ProfileText)
		c.TFIDFScore = &score
		scored++
	}

	log.Printf("[tfidf_rank] scored %d of %d candidates", scored, len(ctx.Result.Candidates))
	return nil
}
