// Step registration and preset workflow building.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/resolverank/resolverank/internal/integrations/gemini"
	"github.com/resolverank/resolverank/internal/integrations/qdrant"
	"github.com/resolverank/resolverank/internal/store/sqlite"
)

// Embedder is the slice of the embedding client steps need.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// SkillLLM is the slice of the LLM client steps need. A nil SkillLLM in
// Dependencies means no LLM is configured; steps degrade accordingly.
type SkillLLM interface {
	ExtractIssueSkills(ctx context.Context, issue *gemini.IssueInput) ([]string, error)
	ScoreCandidate(ctx context.Context, input *gemini.ScoreInput) (*gemini.ScoreResult, error)
}

// ProfileStore is the read side of the profile store steps consume.
type ProfileStore interface {
	Get(ctx context.Context, kind, key string) (*sqlite.Profile, error)
	ListByKind(ctx context.Context, kind string) ([]sqlite.Profile, error)
}

// Dependencies holds the clients injected into steps.
type Dependencies struct {
	Embedder Embedder
	Vectors  qdrant.VectorStore
	LLM      SkillLLM
	Profiles ProfileStore
}

// Registry holds registered step factories. Factories create Step
// instances, allowing for dependency injection.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]StepFactory
}

// StepFactory is a function that creates a Step from its dependencies.
type StepFactory func(deps *Dependencies) (Step, error)

// NewRegistry creates a new step registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]StepFactory),
	}
}

// Register adds a step factory to the registry.
func (r *Registry) Register(name string, factory StepFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get retrieves a step factory by name.
func (r *Registry) Get(name string) (StepFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// BuildFromNames creates a pipeline from a list of step names.
func (r *Registry) BuildFromNames(names []string, deps *Dependencies) (*Pipeline, error) {
	var steps []Step
	for _, name := range names {
		factory, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown step: %s", name)
		}
		step, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create step '%s': %w", name, err)
		}
		steps = append(steps, step)
	}
	return New(steps...), nil
}

// Presets defines the built-in workflow presets.
var Presets = map[string][]string{
	// recommend: the full candidate ranking workflow.
	"recommend": {
		"gatekeeper",
		"skill_extractor",
		"similarity_search",
		"tfidf_rank",
		"llm_scorer",
		"report_builder",
	},

	// similarity-only: embedding search without lexical or LLM re-ranking.
	"similarity-only": {
		"gatekeeper",
		"skill_extractor",
		"similarity_search",
		"report_builder",
	},
}

// GetPreset returns the step names for a preset workflow.
func GetPreset(name string) ([]string, bool) {
	steps, ok := Presets[name]
	return steps, ok
}

// ResolveSteps determines the steps to use based on config.
// Priority: explicit steps > workflow preset > default.
func ResolveSteps(explicitSteps []string, workflow string) []string {
	if len(explicitSteps) > 0 {
		return explicitSteps
	}
	if workflow != "" {
		if preset, ok := GetPreset(workflow); ok {
			return preset
		}
	}
	return Presets["recommend"]
}
