// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"fmt"
	"sort"
)

// AggregationStrategy selects how per-model scores fold into one score.
type AggregationStrategy string

const (
	// AggregationAverage is the arithmetic mean. The default.
	AggregationAverage AggregationStrategy = "average"

	// AggregationMin takes the strictest model's score.
	AggregationMin AggregationStrategy = "min"

	// AggregationMax takes the most lenient model's score.
	AggregationMax AggregationStrategy = "max"

	// AggregationMedian takes the median, interpolated between the two
	// middle values for even counts.
	AggregationMedian AggregationStrategy = "median"

	// AggregationConsensus fails when the models disagree by more than
	// the configured tolerance, otherwise returns the mean.
	AggregationConsensus AggregationStrategy = "consensus"
)

// Aggregator folds a per-model score map into a single score.
type Aggregator struct {
	// Strategy selects the fold. Empty means average.
	Strategy AggregationStrategy

	// ConsensusTolerance is the maximum allowed max-min spread for the
	// consensus strategy.
	ConsensusTolerance float64
}

// Aggregate combines the per-model scores of successful models.
// An empty score map is a programmer error and returns an error.
func (a Aggregator) Aggregate(scores map[string]float64) (float64, error) {
	if len(scores) == 0 {
		return 0, fmt.Errorf("no model scores to aggregate")
	}

	values := make([]float64, 0, len(scores))
	for _, s := range scores {
		values = append(values, s)
	}
	sort.Float64s(values)

	strategy := a.Strategy
	if strategy == "" {
		strategy = AggregationAverage
	}

	switch strategy {
	case AggregationAverage:
		return mean(values), nil

	case AggregationMin:
		return values[0], nil

	case AggregationMax:
		return values[len(values)-1], nil

	case AggregationMedian:
		n := len(values)
		if n%2 == 1 {
			return values[n/2], nil
		}
		return (values[n/2-1] + values[n/2]) / 2, nil

	case AggregationConsensus:
		spread := values[len(values)-1] - values[0]
		if spread > a.ConsensusTolerance {
			return 0, fmt.Errorf("consensus failed: score spread %.4f exceeds tolerance %.4f", spread, a.ConsensusTolerance)
		}
		return mean(values), nil

	default:
		return 0, fmt.Errorf("unknown aggregation strategy %q", strategy)
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
