// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"sync"

	"go.uber.org/zap"
)

// ModelExecutionListener observes the lifecycle of metric evaluations.
// Implementations feed reporters (HTML report generators, tracing).
//
// For one evaluation, callbacks arrive strictly in the order
// beforeMetricEvaluation, (beforeStep, afterStep, onModelExcluded*)*,
// afterMetricEvaluation. Callbacks may run on the evaluation's driver
// goroutine; implementations should return quickly. A panicking listener
// is logged and skipped; it never aborts the evaluation.
//
// Embedding steps are delivered through AfterLLMStep (they carry a
// request echo the same way LLM steps do).
type ModelExecutionListener interface {
	BeforeMetricEvaluation(ctx MetricEvaluationContext)
	BeforeStep(stepName string, stepIndex, totalSteps int)
	AfterLLMStep(step StepResults)
	AfterComputeStep(step StepResults)
	OnModelExcluded(event ModelExclusionEvent)
	AfterMetricEvaluation(result MetricEvaluationResult)
}

// registeredListener pairs a listener with its dispatch priority.
// Lower priority runs first.
type registeredListener struct {
	listener ModelExecutionListener
	priority int
}

// LoggingListener logs lifecycle events through zap. Register it with a
// high priority so report-building listeners observe events first.
type LoggingListener struct {
	logger *zap.Logger
}

// NewLoggingListener creates a listener that logs every lifecycle event.
func NewLoggingListener(logger *zap.Logger) *LoggingListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingListener{logger: logger}
}

func (l *LoggingListener) BeforeMetricEvaluation(ctx MetricEvaluationContext) {
	l.logger.Info("metric evaluation started",
		zap.String("evaluation_id", ctx.EvaluationID),
		zap.String("metric", ctx.MetricName),
		zap.Strings("model_ids", ctx.ModelIDs),
	)
}

func (l *LoggingListener) BeforeStep(stepName string, stepIndex, totalSteps int) {
	l.logger.Debug("step started",
		zap.String("step", stepName),
		zap.Int("index", stepIndex),
		zap.Int("total", totalSteps),
	)
}

func (l *LoggingListener) AfterLLMStep(step StepResults) {
	l.logger.Debug("llm step completed",
		zap.String("step", step.StepName),
		zap.Int("index", step.StepIndex),
		zap.Int("successful", len(step.SuccessfulModels())),
		zap.Int("total", len(step.Results)),
	)
}

func (l *LoggingListener) AfterComputeStep(step StepResults) {
	l.logger.Debug("compute step completed",
		zap.String("step", step.StepName),
		zap.Int("index", step.StepIndex),
	)
}

func (l *LoggingListener) OnModelExcluded(event ModelExclusionEvent) {
	l.logger.Warn("model excluded from evaluation",
		zap.String("model_id", event.ModelID),
		zap.String("step", event.FailedStepName),
		zap.Int("step_index", event.FailedStepIndex),
		zap.Error(event.Cause),
	)
}

func (l *LoggingListener) AfterMetricEvaluation(result MetricEvaluationResult) {
	if result.Err != nil {
		l.logger.Warn("metric evaluation failed",
			zap.String("evaluation_id", result.EvaluationID),
			zap.String("metric", result.MetricName),
			zap.Duration("duration", result.TotalDuration),
			zap.Error(result.Err),
		)
		return
	}
	l.logger.Info("metric evaluation completed",
		zap.String("evaluation_id", result.EvaluationID),
		zap.String("metric", result.MetricName),
		zap.Float64("score", result.AggregatedScore),
		zap.Int("excluded_models", len(result.ExcludedModels)),
		zap.Duration("duration", result.TotalDuration),
	)
}

// CollectingListener captures every event it receives. It is the input
// adapter for report generators and is also used by the engine's own
// tests. Thread-safe.
type CollectingListener struct {
	mu           sync.Mutex
	contexts     []MetricEvaluationContext
	stepStarts   []string
	llmSteps     []StepResults
	computeSteps []StepResults
	exclusions   []ModelExclusionEvent
	results      []MetricEvaluationResult
}

// NewCollectingListener creates an empty collector.
func NewCollectingListener() *CollectingListener {
	return &CollectingListener{}
}

func (c *CollectingListener) BeforeMetricEvaluation(ctx MetricEvaluationContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts = append(c.contexts, ctx)
}

func (c *CollectingListener) BeforeStep(stepName string, _, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepStarts = append(c.stepStarts, stepName)
}

func (c *CollectingListener) AfterLLMStep(step StepResults) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmSteps = append(c.llmSteps, step)
}

func (c *CollectingListener) AfterComputeStep(step StepResults) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.computeSteps = append(c.computeSteps, step)
}

func (c *CollectingListener) OnModelExcluded(event ModelExclusionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exclusions = append(c.exclusions, event)
}

func (c *CollectingListener) AfterMetricEvaluation(result MetricEvaluationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Contexts returns the captured begin envelopes.
func (c *CollectingListener) Contexts() []MetricEvaluationContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MetricEvaluationContext(nil), c.contexts...)
}

// StepStarts returns the names passed to BeforeStep, in order.
func (c *CollectingListener) StepStarts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.stepStarts...)
}

// LLMSteps returns the captured LLM and embedding step records.
func (c *CollectingListener) LLMSteps() []StepResults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StepResults(nil), c.llmSteps...)
}

// ComputeSteps returns the captured compute step records.
func (c *CollectingListener) ComputeSteps() []StepResults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StepResults(nil), c.computeSteps...)
}

// Exclusions returns the captured exclusion events.
func (c *CollectingListener) Exclusions() []ModelExclusionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ModelExclusionEvent(nil), c.exclusions...)
}

// Results returns the captured end envelopes.
func (c *CollectingListener) Results() []MetricEvaluationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MetricEvaluationResult(nil), c.results...)
}
