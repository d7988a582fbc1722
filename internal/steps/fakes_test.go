package steps

import (
	"context"
	"fmt"

	"github.com/resolverank/resolverank/internal/core/config"
	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/integrations/gemini"
	"github.com/resolverank/resolverank/internal/integrations/qdrant"
	"github.com/resolverank/resolverank/internal/store/sqlite"
)

type fakeEmbedder struct {
	vector   []float32
	err      error
	lastText string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return len(f.vector)
}

type fakeVectorStore struct {
	results   []*qdrant.SearchResult
	err       error
	lastLimit int
}

func (f *fakeVectorStore) CreateCollection(context.Context, string, int) error { return nil }

func (f *fakeVectorStore) CollectionExists(context.Context, string) (bool, error) {
	return true, nil
}

func (f *fakeVectorStore) Upsert(context.Context, string, []*qdrant.Point) error { return nil }

func (f *fakeVectorStore) Search(_ context.Context, _ string, _ []float32, limit int, _ float64) ([]*qdrant.SearchResult, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeVectorStore) Delete(context.Context, string, string) error { return nil }

func (f *fakeVectorStore) Close() error { return nil }

type fakeLLM struct {
	skills      []string
	skillsErr   error
	scores      map[string]float64
	scoreErr    error
	scoredOrder []string
}

func (f *fakeLLM) ExtractIssueSkills(_ context.Context, _ *gemini.IssueInput) ([]string, error) {
	if f.skillsErr != nil {
		return nil, f.skillsErr
	}
	return f.skills, nil
}

func (f *fakeLLM) ScoreCandidate(_ context.Context, in *gemini.ScoreInput) (*gemini.ScoreResult, error) {
	f.scoredOrder = append(f.scoredOrder, in.Candidate.Login)
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	score, ok := f.scores[in.Candidate.Login]
	if !ok {
		return nil, fmt.Errorf("no fake score for %s", in.Candidate.Login)
	}
	return &gemini.ScoreResult{
		Confidence: score,
		Reasoning:  "fake reasoning for " + in.Candidate.Login,
	}, nil
}

type fakeProfileStore struct {
	profiles map[string]*sqlite.Profile
}

func (f *fakeProfileStore) Get(_ context.Context, kind, key string) (*sqlite.Profile, error) {
	if kind != sqlite.ProfileKindContributor {
		return nil, nil
	}
	return f.profiles[key], nil
}

func (f *fakeProfileStore) ListByKind(_ context.Context, kind string) ([]sqlite.Profile, error) {
	var out []sqlite.Profile
	for _, p := range f.profiles {
		if p.Kind == kind {
			out = append(out, *p)
		}
	}
	return out, nil
}

func testContext(issue *pipeline.Issue) *pipeline.Context {
	cfg := &config.Config{}
	cfg.Qdrant.Collection = "contributor_profiles"
	cfg.Defaults.SimilarityThreshold = 0.55
	cfg.Defaults.MaxCandidates = 10
	cfg.Defaults.LLMRerankTop = 5
	return pipeline.NewContext(context.Background(), issue, cfg)
}

func floatPtr(v float64) *float64 {
	return &v
}
