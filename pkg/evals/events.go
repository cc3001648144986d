// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"time"

	"github.com/teradata-labs/skein/pkg/types"
)

// MetricEvaluationContext is the begin envelope of one metric run.
type MetricEvaluationContext struct {
	// EvaluationID uniquely identifies this run.
	EvaluationID string

	// MetricName is the metric being evaluated.
	MetricName string

	// Sample is the input under evaluation.
	Sample types.Sample

	// Config is the metric-specific configuration value.
	Config any

	// ModelIDs is the set of models initially selected for fan-out.
	ModelIDs []string

	// StartedAt is the run start time.
	StartedAt time.Time
}

// ModelExclusionEvent records that a model dropped out mid-pipeline.
// Once excluded, a model does not appear in subsequent steps of that
// evaluation.
type ModelExclusionEvent struct {
	ModelID         string
	FailedStepName  string
	FailedStepIndex int
	Cause           error
}

// MetricEvaluationResult is the end envelope of one metric run, the
// primary input of downstream reporters.
type MetricEvaluationResult struct {
	// EvaluationID matches the begin envelope.
	EvaluationID string

	// MetricName is the metric that was evaluated.
	MetricName string

	// Sample is the input that was evaluated.
	Sample types.Sample

	// Config is the metric-specific configuration value.
	Config any

	// ModelIDs is the set of models initially selected.
	ModelIDs []string

	// AggregatedScore is the final combined score. Zero when Err is set
	// or when required input was missing.
	AggregatedScore float64

	// ModelScores maps each surviving model to its individual score.
	ModelScores map[string]float64

	// ExcludedModels lists models that failed a step and were dropped.
	ExcludedModels []string

	// TotalDuration is the wall-clock duration of the whole run.
	TotalDuration time.Duration

	// Steps holds the recorded pipeline steps in order.
	Steps []StepResults

	// Exclusions holds the exclusion events in occurrence order.
	Exclusions []ModelExclusionEvent

	// Err is the terminal error for fatal runs (all models failed a
	// step). Nil for successful runs and missing-input runs.
	Err error

	// Metadata carries arbitrary metric-specific annotations.
	Metadata map[string]any
}
