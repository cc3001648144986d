// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package nlp

import (
	"context"

	"github.com/teradata-labs/skein/pkg/types"
)

// RougeVariant selects the ROUGE flavor.
type RougeVariant string

const (
	// Rouge1 is unigram overlap.
	Rouge1 RougeVariant = "rouge1"

	// Rouge2 is bigram overlap.
	Rouge2 RougeVariant = "rouge2"

	// RougeL is longest-common-subsequence based. The default.
	RougeL RougeVariant = "rougeL"
)

// ROUGEConfig configures the ROUGE metric.
type ROUGEConfig struct {
	// Variant selects rouge1, rouge2 or rougeL. Default rougeL.
	Variant RougeVariant `yaml:"variant"`
}

// ROUGE computes the F1 of the selected overlap measure.
type ROUGE struct {
	config ROUGEConfig
}

// NewROUGE creates the metric.
func NewROUGE(config ROUGEConfig) *ROUGE {
	if config.Variant == "" {
		config.Variant = RougeL
	}
	return &ROUGE{config: config}
}

// Name returns the metric name.
func (r *ROUGE) Name() string { return "rouge_score" }

// SingleTurnScore scores the sample's response against its reference.
func (r *ROUGE) SingleTurnScore(_ context.Context, sample types.Sample) (float64, error) {
	if !sample.HasResponse() || !sample.HasReference() {
		return 0, nil
	}
	return r.Score(sample.Response, sample.Reference), nil
}

// Score computes the configured ROUGE F1 of candidate against reference.
func (r *ROUGE) Score(candidate, reference string) float64 {
	candTokens := tokenize(candidate)
	refTokens := tokenize(reference)
	if len(candTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	switch r.config.Variant {
	case Rouge1, Rouge2:
		n := 1
		if r.config.Variant == Rouge2 {
			n = 2
		}
		cand := ngrams(candTokens, n)
		ref := ngrams(refTokens, n)
		candTotal, refTotal := total(cand), total(ref)
		if candTotal == 0 || refTotal == 0 {
			return 0
		}
		matched := float64(overlap(cand, ref))
		return f1(matched/float64(candTotal), matched/float64(refTotal))

	default:
		lcs := float64(lcsLength(candTokens, refTokens))
		return f1(lcs/float64(len(candTokens)), lcs/float64(len(refTokens)))
	}
}

// lcsLength is the longest common subsequence length over tokens.
func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
