// Package rank scores candidate contributors against an issue. It combines
// lexical TF-IDF similarity with embedding and LLM scores produced by the
// recommend pipeline.
package rank

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// TFIDF builds term-frequency/inverse-document-frequency vectors over a
// fixed corpus and measures cosine similarity between documents.
type TFIDF struct {
	idf  map[string]float64
	docs int
}

// NewTFIDF fits a vectorizer over the corpus. IDF uses the smoothed form
// log((1+N)/(1+df)) + 1 so terms present in every document keep a nonzero
// weight.
func NewTFIDF(corpus []string) *TFIDF {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range Tokenize(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := len(corpus)
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(float64(1+n)/float64(1+count)) + 1
	}

	return &TFIDF{idf: idf, docs: n}
}

// Vector returns the normalized TF-IDF vector of a document. Terms unseen
// during fitting are ignored.
func (t *TFIDF) Vector(doc string) map[string]float64 {
	terms := Tokenize(doc)
	if len(terms) == 0 {
		return nil
	}

	tf := make(map[string]float64)
	for _, term := range terms {
		tf[term]++
	}

	vec := make(map[string]float64)
	var norm float64
	for term, count := range tf {
		idf, ok := t.idf[term]
		if !ok {
			continue
		}
		w := (count / float64(len(terms))) * idf
		vec[term] = w
		norm += w * w
	}

	if norm == 0 {
		return nil
	}

	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}

	return vec
}

// Similarity returns the cosine similarity of two documents in [0, 1].
func (t *TFIDF) Similarity(a, b string) float64 {
	va := t.Vector(a)
	vb := t.Vector(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}

	// Iterate the smaller vector.
	if len(vb) < len(va) {
		va, vb = vb, va
	}

	var dot float64
	for term, wa := range va {
		if wb, ok := vb[term]; ok {
			dot += wa * wb
		}
	}

	// Vectors are unit length, so the dot product is the cosine. Guard
	// against float drift past 1.
	if dot > 1 {
		dot = 1
	}
	return dot
}

// Tokenize lowercases and splits a document on non-alphanumeric runes,
// dropping single-character tokens.
func Tokenize(doc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// TopTerms returns the n highest-weighted terms of a document, for report
// explanations.
func (t *TFIDF) TopTerms(doc string, n int) []string {
	vec := t.Vector(doc)
	if len(vec) == 0 {
		return nil
	}

	type weighted struct {
		term   string
		weight float64
	}
	terms := make([]weighted, 0, len(vec))
	for term, w := range vec {
		terms = append(terms, weighted{term, w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight != terms[j].weight {
			return terms[i].weight > terms[j].weight
		}
		return terms[i].term < terms[j].term
	})

	if n > len(terms) {
		n = len(terms)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = terms[i].term
	}
	return out
}
