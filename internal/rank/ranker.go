package rank

import "sort"

// Component weights for the final score. When a component is missing for a
// candidate the remaining weights are renormalized so scores stay in [0, 1].
const (
	WeightEmbedding = 0.5
	WeightTFIDF     = 0.3
	WeightLLM       = 0.2
)

// Scores holds the per-component scores of one candidate. A nil pointer
// means the component did not run for this candidate.
type Scores struct {
	Embedding *float64
	TFIDF     *float64
	LLM       *float64
}

// Combine computes the weighted final score, renormalizing over the
// components that are present. All components missing yields 0.
func Combine(s Scores) float64 {
	var sum, weight float64

	if s.Embedding != nil {
		sum += WeightEmbedding * *s.Embedding
		weight += WeightEmbedding
	}
	if s.TFIDF != nil {
		sum += WeightTFIDF * *s.TFIDF
		weight += WeightTFIDF
	}
	if s.LLM != nil {
		sum += WeightLLM * *s.LLM
		weight += WeightLLM
	}

	if weight == 0 {
		return 0
	}
	return sum / weight
}

// Ranked is a scored candidate in the final ordering.
type Ranked struct {
	Login string
	Score float64
}

// Order sorts candidates by final score descending; ties break
// alphabetically by login so output is deterministic.
func Order(candidates map[string]Scores) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for login, scores := range candidates {
		ranked = append(ranked, Ranked{Login: login, Score: Combine(scores)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Login < ranked[j].Login
	})

	return ranked
}

// Ptr is a convenience for building optional component scores.
func Ptr(v float64) *float64 {
	return &v
}
