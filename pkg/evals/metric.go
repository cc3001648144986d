// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/skein/pkg/llm"
	"github.com/teradata-labs/skein/pkg/types"
)

// SingleTurnMetric is the surface every single-turn metric exposes.
type SingleTurnMetric interface {
	// Name returns the metric name used in events and reports.
	Name() string

	// SingleTurnScore evaluates the sample with the default config.
	SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error)
}

// MultiTurnMetric is the surface agent metrics expose. They operate on
// the sample's conversation messages.
type MultiTurnMetric interface {
	Name() string
	MultiTurnScore(ctx context.Context, sample types.Sample) (float64, error)
}

// CommonConfig is embedded by every metric config.
type CommonConfig struct {
	// ModelIDs restricts fan-out to a subset of the configured models.
	// Empty means use all configured models.
	ModelIDs []string `yaml:"model_ids"`

	// Aggregation folds per-model scores. Empty means average.
	Aggregation AggregationStrategy `yaml:"aggregation"`

	// ConsensusTolerance applies to the consensus strategy.
	ConsensusTolerance float64 `yaml:"consensus_tolerance"`
}

// AllModelsFailedError is the fatal error raised when every model failed
// the same pipeline step.
type AllModelsFailedError struct {
	StepName   string
	MetricName string
}

func (e *AllModelsFailedError) Error() string {
	return fmt.Sprintf("All models failed at step %s for metric: %s", e.StepName, e.MetricName)
}

// MissingInputError marks a sample that lacks fields the metric requires.
// It is handled inside the metric run: the score becomes 0 with a
// warning, begin/end events are still emitted, and no error reaches the
// caller.
type MissingInputError struct {
	MetricName string
	Fields     []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("metric %s requires %s", e.MetricName, strings.Join(e.Fields, ", "))
}

// ScoreFuture is a cancellable handle on an asynchronous metric run.
//
// Cancel stops the pipeline: no new model calls start, in-flight
// rate-limit waits are interrupted, in-flight model calls finish
// naturally, and the terminal AfterMetricEvaluation event is still
// emitted.
type ScoreFuture struct {
	cancel context.CancelFunc
	done   chan struct{}
	score  float64
	err    error
}

func newScoreFuture(parent context.Context, fn func(ctx context.Context) (float64, error)) *ScoreFuture {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	f := &ScoreFuture{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer cancel()
		f.score, f.err = fn(ctx)
	}()
	return f
}

// Cancel requests cancellation of the run. Safe to call more than once.
func (f *ScoreFuture) Cancel() { f.cancel() }

// Done is closed when the run has terminated.
func (f *ScoreFuture) Done() <-chan struct{} { return f.done }

// Wait blocks until the run terminates or ctx is cancelled.
func (f *ScoreFuture) Wait(ctx context.Context) (float64, error) {
	select {
	case <-f.done:
		return f.score, f.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// PipelineFunc drives a metric's steps and returns per-model scores.
type PipelineFunc func(ev *Evaluation) (map[string]float64, error)

// MultiModelMetric is the shared implementation embedded by every
// concrete metric: model-set selection, per-evaluation notifier framing,
// exclusion tracking, and aggregation.
//
// Metric values are safe for concurrent use: all per-run state lives in
// the Evaluation value on the call stack.
type MultiModelMetric struct {
	name     string
	executor *Executor
	logger   *zap.Logger
}

// NewMultiModelMetric creates the shared metric base.
func NewMultiModelMetric(name string, executor *Executor) MultiModelMetric {
	return MultiModelMetric{name: name, executor: executor, logger: executor.logger}
}

// Name returns the metric name.
func (m *MultiModelMetric) Name() string { return m.name }

// Logger returns the executor's logger for metric-level warnings.
func (m *MultiModelMetric) Logger() *zap.Logger { return m.logger }

// Run executes one evaluation: framing events, pipeline, aggregation.
func (m *MultiModelMetric) Run(
	ctx context.Context,
	common CommonConfig,
	config any,
	sample types.Sample,
	totalSteps int,
	pipeline PipelineFunc,
) (float64, error) {
	models := common.ModelIDs
	if len(models) == 0 {
		models = m.executor.ModelIDs()
	}
	if len(models) == 0 {
		return 0, fmt.Errorf("metric %s: no models configured", m.name)
	}

	notifier := m.executor.newNotifier()
	start := time.Now()

	evalCtx := MetricEvaluationContext{
		EvaluationID: uuid.NewString(),
		MetricName:   m.name,
		Sample:       sample,
		Config:       config,
		ModelIDs:     models,
		StartedAt:    start,
	}
	notifier.beforeMetricEvaluation(evalCtx)

	ev := &Evaluation{
		ctx:        ctx,
		metricName: m.name,
		executor:   m.executor,
		notifier:   notifier,
		sample:     sample,
		active:     append([]string(nil), models...),
		totalSteps: totalSteps,
	}

	scores, err := pipeline(ev)

	result := MetricEvaluationResult{
		EvaluationID:   evalCtx.EvaluationID,
		MetricName:     m.name,
		Sample:         sample,
		Config:         config,
		ModelIDs:       models,
		ModelScores:    scores,
		ExcludedModels: append([]string(nil), ev.excluded...),
		Steps:          notifier.Steps(),
		Exclusions:     notifier.Exclusions(),
	}

	var aggregated float64
	var missing *MissingInputError
	switch {
	case errors.As(err, &missing):
		m.logger.Warn("required input missing, returning zero score",
			zap.String("metric", m.name),
			zap.Strings("missing_fields", missing.Fields),
		)
		err = nil

	case err != nil:
		result.Err = err

	default:
		agg := Aggregator{Strategy: common.Aggregation, ConsensusTolerance: common.ConsensusTolerance}
		aggregated, err = agg.Aggregate(scores)
		if err != nil {
			result.Err = err
		}
	}

	result.AggregatedScore = aggregated
	result.TotalDuration = time.Since(start)
	notifier.afterMetricEvaluation(result)

	if err != nil {
		return 0, err
	}
	return aggregated, nil
}

// RunAsync wraps Run in a cancellable future; errors never surface
// synchronously.
func (m *MultiModelMetric) RunAsync(
	ctx context.Context,
	common CommonConfig,
	config any,
	sample types.Sample,
	totalSteps int,
	pipeline PipelineFunc,
) *ScoreFuture {
	return m.executor.RunAsync(ctx, func(runCtx context.Context) (float64, error) {
		return m.Run(runCtx, common, config, sample, totalSteps, pipeline)
	})
}

// MissingInput builds the sentinel for absent required fields.
func (m *MultiModelMetric) MissingInput(fields ...string) error {
	return &MissingInputError{MetricName: m.name, Fields: fields}
}

// Evaluation is the per-run pipeline state: the models still alive, the
// step counter, and the per-run notifier. It lives on the driver
// goroutine's stack; metrics themselves stay stateless.
type Evaluation struct {
	ctx        context.Context
	metricName string
	executor   *Executor
	notifier   *Notifier
	sample     types.Sample
	active     []string
	excluded   []string
	totalSteps int
	stepIndex  int
}

// Ctx returns the run's context.
func (ev *Evaluation) Ctx() context.Context { return ev.ctx }

// Executor returns the engine the evaluation runs on, for steps that
// issue their own model calls (embedding fan-in inside EmbeddingStep).
func (ev *Evaluation) Executor() *Executor { return ev.executor }

// EmbeddingModelIDs returns the executor's configured embedding models.
func (ev *Evaluation) EmbeddingModelIDs() []string { return ev.executor.EmbeddingModelIDs() }

// Active returns the models that survived every step so far, in the
// initial fan-out order.
func (ev *Evaluation) Active() []string { return ev.active }

// LLMStep issues one LLM step to all active models, excludes failures,
// and returns the decoded value per surviving model. Fatal when every
// model fails.
func (ev *Evaluation) LLMStep(name, prompt string, schema *llm.ResponseSchema) (map[string]any, error) {
	idx := ev.nextStepIndex()
	ev.notifier.beforeStep(name, idx, ev.totalSteps)

	results, err := ev.executor.ExecuteLLM(ev.ctx, ev.active, prompt, schema)
	if err != nil {
		return nil, err
	}

	ev.recordLLMStep(name, idx, prompt, results)
	return ev.collect(name, idx, results, true)
}

// LLMStepPerModel issues one LLM step where each model receives its own
// prompt, typically built from that model's previous step output.
// Exclusion and fatality semantics match LLMStep.
func (ev *Evaluation) LLMStepPerModel(name string, promptsByModel map[string]string, schema *llm.ResponseSchema) (map[string]any, error) {
	idx := ev.nextStepIndex()
	ev.notifier.beforeStep(name, idx, ev.totalSteps)

	results, err := ev.executor.ExecuteLLMPerModel(ev.ctx, ev.active, promptsByModel, schema)
	if err != nil {
		return nil, err
	}

	ev.recordLLMStep(name, idx, "", results)
	return ev.collect(name, idx, results, true)
}

// LLMStepKeepFailures is LLMStep without exclusion: failures emit an
// exclusion event but the model stays in the pipeline and simply has no
// value for this step. Used by context precision, where a failed
// relevance judgement counts as a "not relevant" vote.
func (ev *Evaluation) LLMStepKeepFailures(name, prompt string, schema *llm.ResponseSchema) (map[string]any, error) {
	idx := ev.nextStepIndex()
	ev.notifier.beforeStep(name, idx, ev.totalSteps)

	results, err := ev.executor.ExecuteLLM(ev.ctx, ev.active, prompt, schema)
	if err != nil {
		return nil, err
	}

	ev.recordLLMStep(name, idx, prompt, results)

	values := make(map[string]any, len(results))
	for _, r := range results {
		if r.IsSuccess() {
			values[r.ModelID] = r.Value
			continue
		}
		ev.notifier.onModelExcluded(ModelExclusionEvent{
			ModelID:         r.ModelID,
			FailedStepName:  name,
			FailedStepIndex: idx,
			Cause:           r.Err,
		})
	}
	return values, nil
}

// EmbeddingStep runs fn once per active model (fn typically issues one
// or more embedding calls) and records an EMBEDDING step. Failures
// exclude the model; fatal when every model fails.
func (ev *Evaluation) EmbeddingStep(name, request string, fn func(ctx context.Context, modelID string) (any, error)) (map[string]any, error) {
	idx := ev.nextStepIndex()
	ev.notifier.beforeStep(name, idx, ev.totalSteps)

	results := make([]ModelResult, len(ev.active))
	for i, modelID := range ev.active {
		start := time.Now()
		value, err := fn(ev.ctx, modelID)
		if err != nil {
			results[i] = failureResult(modelID, err, request, time.Since(start))
			continue
		}
		results[i] = successResult(modelID, value, request, time.Since(start))
	}

	step := StepResults{
		StepName:   name,
		StepIndex:  idx,
		TotalSteps: ev.totalSteps,
		StepType:   StepTypeEmbedding,
		Request:    request,
		Results:    results,
	}
	ev.notifier.afterLLMStep(step)

	return ev.collect(name, idx, results, true)
}

// ComputeStep runs a pure computation per active model and records a
// COMPUTE step. Failures exclude the model; fatal when every model fails.
func (ev *Evaluation) ComputeStep(name string, fn func(modelID string) (any, error)) (map[string]any, error) {
	idx := ev.nextStepIndex()
	ev.notifier.beforeStep(name, idx, ev.totalSteps)

	results, err := ev.executor.ExecuteCompute(ev.active, fn)
	if err != nil {
		return nil, err
	}

	step := StepResults{
		StepName:   name,
		StepIndex:  idx,
		TotalSteps: ev.totalSteps,
		StepType:   StepTypeCompute,
		Results:    results,
	}
	ev.notifier.afterComputeStep(step)

	return ev.collect(name, idx, results, true)
}

func (ev *Evaluation) recordLLMStep(name string, idx int, request string, results []ModelResult) {
	step := StepResults{
		StepName:   name,
		StepIndex:  idx,
		TotalSteps: ev.totalSteps,
		StepType:   StepTypeLLM,
		Request:    request,
		Results:    results,
	}
	ev.notifier.afterLLMStep(step)
}

func (ev *Evaluation) nextStepIndex() int {
	idx := ev.stepIndex
	ev.stepIndex++
	return idx
}

// collect splits step results into surviving values and exclusions.
// When exclude is set, failed models are removed from the active set;
// an empty survivor set is fatal.
func (ev *Evaluation) collect(stepName string, stepIndex int, results []ModelResult, exclude bool) (map[string]any, error) {
	values := make(map[string]any, len(results))
	survivors := make([]string, 0, len(results))

	for _, r := range results {
		if r.IsSuccess() {
			values[r.ModelID] = r.Value
			survivors = append(survivors, r.ModelID)
			continue
		}
		if exclude {
			ev.excluded = append(ev.excluded, r.ModelID)
			ev.notifier.onModelExcluded(ModelExclusionEvent{
				ModelID:         r.ModelID,
				FailedStepName:  stepName,
				FailedStepIndex: stepIndex,
				Cause:           r.Err,
			})
		}
	}

	if exclude {
		ev.active = survivors
	}
	if len(survivors) == 0 {
		return nil, &AllModelsFailedError{StepName: stepName, MetricName: ev.metricName}
	}
	return values, nil
}

// FloatScores converts a compute step's per-model values into a score
// map. Non-float values are skipped.
func FloatScores(values map[string]any) map[string]float64 {
	scores := make(map[string]float64, len(values))
	for modelID, v := range values {
		if f, ok := v.(float64); ok {
			scores[modelID] = f
		}
	}
	return scores
}
