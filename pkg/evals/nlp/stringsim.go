// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package nlp

import (
	"context"

	"github.com/antzucaro/matchr"

	"github.com/teradata-labs/skein/pkg/types"
)

// StringSimilarityVariant selects the edit-distance measure.
type StringSimilarityVariant string

const (
	// Levenshtein similarity is 1 - distance/maxLen. The default.
	Levenshtein StringSimilarityVariant = "levenshtein"

	// Jaro similarity.
	Jaro StringSimilarityVariant = "jaro"

	// JaroWinkler boosts Jaro for common prefixes.
	JaroWinkler StringSimilarityVariant = "jaro_winkler"
)

// StringSimilarityConfig configures the string similarity metric.
type StringSimilarityConfig struct {
	// Variant selects levenshtein, jaro or jaro_winkler. Default
	// levenshtein.
	Variant StringSimilarityVariant `yaml:"variant"`
}

// StringSimilarity scores the raw textual closeness of response and
// reference in [0,1].
type StringSimilarity struct {
	config StringSimilarityConfig
}

// NewStringSimilarity creates the metric.
func NewStringSimilarity(config StringSimilarityConfig) *StringSimilarity {
	if config.Variant == "" {
		config.Variant = Levenshtein
	}
	return &StringSimilarity{config: config}
}

// Name returns the metric name.
func (s *StringSimilarity) Name() string { return "string_similarity" }

// SingleTurnScore scores the sample's response against its reference.
func (s *StringSimilarity) SingleTurnScore(_ context.Context, sample types.Sample) (float64, error) {
	if !sample.HasResponse() || !sample.HasReference() {
		return 0, nil
	}
	return s.Score(sample.Response, sample.Reference), nil
}

// Score computes the configured similarity of candidate and reference.
func (s *StringSimilarity) Score(candidate, reference string) float64 {
	if candidate == reference {
		return 1
	}

	switch s.config.Variant {
	case Jaro:
		return jaroSimilarity(candidate, reference)

	case JaroWinkler:
		return matchr.JaroWinkler(candidate, reference, false)

	default:
		maxLen := max(len([]rune(candidate)), len([]rune(reference)))
		if maxLen == 0 {
			return 1
		}
		distance := matchr.Levenshtein(candidate, reference)
		return 1 - float64(distance)/float64(maxLen)
	}
}

// jaroSimilarity is the plain Jaro measure without the Winkler prefix
// boost, which matchr does not export separately.
func jaroSimilarity(s1, s2 string) float64 {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 && len(r2) == 0 {
		return 1
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	window := max(len(r1), len(r2))/2 - 1
	if window < 0 {
		window = 0
	}

	matched1 := make([]bool, len(r1))
	matched2 := make([]bool, len(r2))
	matches := 0
	for i := range r1 {
		lo := max(0, i-window)
		hi := min(len(r2)-1, i+window)
		for j := lo; j <= hi; j++ {
			if !matched2[j] && r1[i] == r2[j] {
				matched1[i] = true
				matched2[j] = true
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := range r1 {
		if !matched1[i] {
			continue
		}
		for !matched2[j] {
			j++
		}
		if r1[i] != r2[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(r1)) + m/float64(len(r2)) + (m-t)/m) / 3
}
