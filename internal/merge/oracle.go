package merge

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/Aman-CERP/seekr/internal/result"
)

// SimilarityOracle decides whether two Results describe the same resource.
type SimilarityOracle interface {
	AreSimilar(a, b *result.Result, threshold float64) bool
}

// TokenOracle compares the analyzed terms of title and summary by Jaccard
// overlap. Terms come from bleve's English analyzer: lowercased, stop
// words removed, Porter-stemmed.
type TokenOracle struct {
	analyzer analysis.Analyzer
}

// NewTokenOracle returns an oracle backed by the English analyzer.
func NewTokenOracle() (*TokenOracle, error) {
	cache := registry.NewCache()
	a, err := cache.AnalyzerNamed(en.AnalyzerName)
	if err != nil {
		return nil, fmt.Errorf("load %s analyzer: %w", en.AnalyzerName, err)
	}
	return &TokenOracle{analyzer: a}, nil
}

// Terms returns the distinct analyzed terms of r.
func (o *TokenOracle) Terms(r *result.Result) map[string]struct{} {
	stream := o.analyzer.Analyze([]byte(r.Title + " " + r.Summary))
	terms := make(map[string]struct{}, len(stream))
	for _, tok := range stream {
		terms[string(tok.Term)] = struct{}{}
	}
	return terms
}

// Similarity returns the Jaccard index of a's and b's terms.
func (o *TokenOracle) Similarity(a, b *result.Result) float64 {
	ta, tb := o.Terms(a), o.Terms(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(ta)+len(tb)-inter)
}

// AreSimilar implements SimilarityOracle.
func (o *TokenOracle) AreSimilar(a, b *result.Result, threshold float64) bool {
	return o.Similarity(a, b) >= threshold
}
