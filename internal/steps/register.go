package steps

import (
	"github.com/resolverank/resolverank/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
func RegisterAll(r *pipeline.Registry) {
	r.Register("gatekeeper", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewGatekeeper(deps), nil
	})

	r.Register("skill_extractor", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewSkillExtractor(deps), nil
	})

	r.Register("similarity_search", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewSimilaritySearch(deps), nil
	})

	r.Register("tfidf_rank", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewTFIDFRank(deps), nil
	})

	r.Register("llm_scorer", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewLLMScorer(deps), nil
	})

	r.Register("report_builder", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewReportBuilder(deps), nil
	})
}
