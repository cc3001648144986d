// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package nlp

import (
	"context"

	"github.com/teradata-labs/skein/pkg/types"
)

// ChrFConfig configures the chrF metric.
type ChrFConfig struct {
	// MaxNgram is the highest character n-gram order. Default 6.
	MaxNgram int `yaml:"max_ngram"`

	// Beta weights recall over precision. Default 2 (chrF2).
	Beta float64 `yaml:"beta"`
}

// ChrF computes the character n-gram F-score. Character n-grams make it
// robust for morphologically rich languages where token-level metrics
// punish inflection differences.
type ChrF struct {
	config ChrFConfig
}

// NewChrF creates the metric.
func NewChrF(config ChrFConfig) *ChrF {
	if config.MaxNgram <= 0 {
		config.MaxNgram = 6
	}
	if config.Beta <= 0 {
		config.Beta = 2
	}
	return &ChrF{config: config}
}

// Name returns the metric name.
func (c *ChrF) Name() string { return "chrf_score" }

// SingleTurnScore scores the sample's response against its reference.
func (c *ChrF) SingleTurnScore(_ context.Context, sample types.Sample) (float64, error) {
	if !sample.HasResponse() || !sample.HasReference() {
		return 0, nil
	}
	return c.Score(sample.Response, sample.Reference), nil
}

// Score computes chrF of candidate against reference in [0,1].
func (c *ChrF) Score(candidate, reference string) float64 {
	var precisionSum, recallSum float64
	orders := 0

	for n := 1; n <= c.config.MaxNgram; n++ {
		cand := charNgrams(candidate, n)
		ref := charNgrams(reference, n)
		candTotal, refTotal := total(cand), total(ref)
		if candTotal == 0 && refTotal == 0 {
			continue
		}
		matched := float64(overlap(cand, ref))
		if candTotal > 0 {
			precisionSum += matched / float64(candTotal)
		}
		if refTotal > 0 {
			recallSum += matched / float64(refTotal)
		}
		orders++
	}
	if orders == 0 {
		return 0
	}

	precision := precisionSum / float64(orders)
	recall := recallSum / float64(orders)
	if precision == 0 || recall == 0 {
		return 0
	}

	beta2 := c.config.Beta * c.config.Beta
	return (1 + beta2) * precision * recall / (beta2*precision + recall)
}
