package steps

import (
	"fmt"
	"log"
	"strings"

	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/integrations/qdrant"
	"github.com/resolverank/resolverank/internal/store/sqlite"
)

// SimilaritySearch embeds the issue's required-skills document and searches
// the contributor collection for candidates.
type SimilaritySearch struct {
	embedder pipeline.Embedder
	store    qdrant.VectorStore
	profiles pipeline.ProfileStore
}

// NewSimilaritySearch creates a new similarity search step.
func NewSimilaritySearch(deps *pipeline.Dependencies) *SimilaritySearch {
	return &SimilaritySearch{
		embedder: deps.Embedder,
		store:    deps.Vectors,
		profiles: deps.Profiles,
	}
}

// Name returns the step name.
func (s *SimilaritySearch) Name() string {
	return "similarity_search"
}

// Run fills ctx.Result.Candidates with embedding-scored contributors.
func (s *SimilaritySearch) Run(ctx *pipeline.Context) error {
	if s.embedder == nil || s.store == nil {
		log.Printf("[similarity_search] WARNING: dependencies missing, skipping search")
		return nil
	}

	if strings.TrimSpace(ctx.SkillsText) == "" {
		return fmt.Errorf("no skills text to search with (is skill_extractor in the pipeline?)")
	}

	collection := ctx.Config.Qdrant.Collection
	threshold := ctx.Config.Defaults.SimilarityThreshold
	limit := ctx.Config.Defaults.MaxCandidates

	embedding, err := s.embedder.Embed(ctx.Ctx, ctx.SkillsText)
	if err != nil {
		return fmt.Errorf("failed to embed skills text: %w", err)
	}

	// Fetch one extra so filtering the opener still yields a full page.
	results, err := s.store.Search(ctx.Ctx, collection, embedding, limit+1, threshold)
	if err != nil {
		return fmt.Errorf("failed to search contributors: %w", err)
	}

	candidates := make([]*pipeline.Candidate, 0, len(results))
	for _, res := range results {
		login, _ := res.Payload["login"].(string)
		if login == "" {
			log.Printf("[similarity_search] WARNING: point %s has no login payload, skipping", res.ID)
			continue
		}

		// The opener can't be recommended for their own issue.
		if strings.EqualFold(login, ctx.Issue.Author) {
			continue
		}

		profileText, _ := res.Payload["text"].(string)
		resolved, _ := res.Payload["resolved_count"].(int64)

		score := float64(res.Score)
		candidate := &pipeline.Candidate{
			Login:          login,
			ProfileText:    profileText,
			Skills:         qdrant.StringList(res.Payload["skills"]),
			Repos:          qdrant.StringList(res.Payload["repos"]),
			ResolvedCount:  int(resolved),
			EmbeddingScore: &score,
		}
		s.backfillFromStore(ctx, candidate)
		candidates = append(candidates, candidate)

		if len(candidates) == limit {
			break
		}
	}

	ctx.Result.Candidates = candidates
	log.Printf("[similarity_search] %d candidates for #%d", len(candidates), ctx.Issue.Number)

	return nil
}

// backfillFromStore fills profile text and skills from the SQLite store when
// a point was indexed with a sparse payload.
func (s *SimilaritySearch) backfillFromStore(ctx *pipeline.Context, c *pipeline.Candidate) {
	if s.profiles == nil || (c.ProfileText != "" && len(c.Skills) > 0) {
		return
	}

	p, err := s.profiles.Get(ctx.Ctx, sqlite.ProfileKindContributor, c.Login)
	if err != nil || p == nil {
		return
	}

	if c.ProfileText == "" {
		c.ProfileText = p.Content
	}
	if len(c.Skills) == 0 {
		c.Skills = p.Skills
	}
	if len(c.Repos) == 0 {
		c.Repos = p.Repos
	}
	if c.ResolvedCount == 0 {
		c.ResolvedCount = p.ResolvedCount
	}
}
