// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package evals implements the multi-model evaluation engine: the step
// executor, per-provider rate-limited fan-out, score aggregation, and the
// lifecycle-event notifier consumed by reporters.
package evals

import "time"

// StepType classifies a pipeline step.
type StepType string

const (
	StepTypeLLM       StepType = "LLM"
	StepTypeEmbedding StepType = "EMBEDDING"
	StepTypeCompute   StepType = "COMPUTE"
)

// ModelResult is the outcome of one model invocation in one step.
// Exactly one of Value or Err is set for a completed step.
type ModelResult struct {
	// ModelID identifies the model that produced this result.
	ModelID string

	// Value is the decoded step output. Nil on failure.
	Value any

	// Err is the failure cause. Nil on success.
	Err error

	// Duration is the wall-clock time of the invocation, including
	// rate-limit acquisition.
	Duration time.Duration

	// Request echoes the prompt or input that was sent.
	Request string
}

// IsSuccess reports whether the invocation produced a value.
func (r ModelResult) IsSuccess() bool { return r.Err == nil }

func successResult(modelID string, value any, request string, d time.Duration) ModelResult {
	return ModelResult{ModelID: modelID, Value: value, Request: request, Duration: d}
}

func failureResult(modelID string, err error, request string, d time.Duration) ModelResult {
	return ModelResult{ModelID: modelID, Err: err, Request: request, Duration: d}
}

// StepResults records one logical pipeline step across all participating
// models. Steps are ordered by StepIndex within an evaluation.
type StepResults struct {
	// StepName is the metric-defined step identifier.
	StepName string

	// StepIndex is the zero-based position in the pipeline.
	StepIndex int

	// TotalSteps is the pipeline length declared by the metric.
	TotalSteps int

	// StepType is LLM, EMBEDDING or COMPUTE.
	StepType StepType

	// Request echoes the step-level prompt, when the step has one.
	Request string

	// Results holds one entry per participating model, preserving the
	// order of the model IDs the step was issued with.
	Results []ModelResult
}

// SuccessfulModels returns the IDs of models that completed the step,
// preserving result order.
func (s StepResults) SuccessfulModels() []string {
	out := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		if r.IsSuccess() {
			out = append(out, r.ModelID)
		}
	}
	return out
}
