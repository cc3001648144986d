// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package nlp

import (
	"context"
	"math"

	"github.com/teradata-labs/skein/pkg/types"
)

// DefaultMaxNgram is the BLEU n-gram order used when none is configured.
const DefaultMaxNgram = 4

// BLEUConfig configures the BLEU metric.
type BLEUConfig struct {
	// MaxNgram is the highest n-gram order. Default 4.
	MaxNgram int `yaml:"max_ngram"`

	// Smooth applies add-one smoothing to higher-order precisions, so
	// short candidates with a missing n-gram order do not score 0.
	Smooth bool `yaml:"smooth"`
}

// BLEU computes modified n-gram precision with a brevity penalty.
type BLEU struct {
	config BLEUConfig
}

// NewBLEU creates the metric.
func NewBLEU(config BLEUConfig) *BLEU {
	if config.MaxNgram <= 0 {
		config.MaxNgram = DefaultMaxNgram
	}
	return &BLEU{config: config}
}

// Name returns the metric name.
func (b *BLEU) Name() string { return "bleu_score" }

// SingleTurnScore scores the sample's response against its reference.
func (b *BLEU) SingleTurnScore(_ context.Context, sample types.Sample) (float64, error) {
	if !sample.HasResponse() || !sample.HasReference() {
		return 0, nil
	}
	return b.Score(sample.Response, sample.Reference), nil
}

// Score computes BLEU of candidate against reference in [0,1].
func (b *BLEU) Score(candidate, reference string) float64 {
	candTokens := tokenize(candidate)
	refTokens := tokenize(reference)
	if len(candTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	logSum := 0.0
	orders := 0
	for n := 1; n <= b.config.MaxNgram; n++ {
		cand := ngrams(candTokens, n)
		candTotal := total(cand)
		if candTotal == 0 {
			break
		}
		matched := overlap(cand, ngrams(refTokens, n))

		var precision float64
		if b.config.Smooth && n > 1 {
			precision = float64(matched+1) / float64(candTotal+1)
		} else {
			precision = float64(matched) / float64(candTotal)
		}
		if precision == 0 {
			return 0
		}
		logSum += math.Log(precision)
		orders++
	}
	if orders == 0 {
		return 0
	}

	score := math.Exp(logSum / float64(orders))

	// Brevity penalty for candidates shorter than the reference.
	c, r := float64(len(candTokens)), float64(len(refTokens))
	if c < r {
		score *= math.Exp(1 - r/c)
	}
	return score
}
