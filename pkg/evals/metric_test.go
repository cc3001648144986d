// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/skein/pkg/llm"
	"github.com/teradata-labs/skein/pkg/types"
)

// scoreParsingPipeline issues the given steps and scores each surviving
// model by parsing its last reply as a float.
func scoreParsingPipeline(steps []string) PipelineFunc {
	return func(ev *Evaluation) (map[string]float64, error) {
		var last map[string]any
		for _, step := range steps {
			values, err := ev.LLMStep(step, "prompt for "+step, nil)
			if err != nil {
				return nil, err
			}
			last = values
		}
		scores := make(map[string]float64, len(last))
		for modelID, value := range last {
			score, err := strconv.ParseFloat(value.(string), 64)
			if err != nil {
				return nil, err
			}
			scores[modelID] = score
		}
		return scores, nil
	}
}

func sampleForMetricTests() types.Sample {
	return types.Sample{
		UserInput: "What is the capital of France?",
		Response:  "Paris.",
	}
}

func TestRunEmitsLifecycleEventsInOrder(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "0.8"},
		"model-b": &stubChatClient{reply: "0.6"},
	})
	collector := NewCollectingListener()
	exec.AddListener(collector, 0)

	metric := NewMultiModelMetric("test_metric", exec)
	score, err := metric.Run(context.Background(), CommonConfig{}, nil, sampleForMetricTests(), 2,
		scoreParsingPipeline([]string{"extract", "judge"}))

	require.NoError(t, err)
	assert.InDelta(t, 0.7, score, 1e-9)

	contexts := collector.Contexts()
	require.Len(t, contexts, 1)
	assert.Equal(t, "test_metric", contexts[0].MetricName)
	assert.NotEmpty(t, contexts[0].EvaluationID)
	assert.ElementsMatch(t, []string{"model-a", "model-b"}, contexts[0].ModelIDs)

	assert.Equal(t, []string{"extract", "judge"}, collector.StepStarts())

	steps := collector.LLMSteps()
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].StepIndex)
	assert.Equal(t, 2, steps[0].TotalSteps)
	assert.Equal(t, 1, steps[1].StepIndex)
	assert.Equal(t, StepTypeLLM, steps[1].StepType)

	results := collector.Results()
	require.Len(t, results, 1)
	assert.Equal(t, contexts[0].EvaluationID, results[0].EvaluationID)
	assert.InDelta(t, 0.7, results[0].AggregatedScore, 1e-9)
	assert.Empty(t, collector.Exclusions())
}

func TestRunExcludesFailingModelAndScoresRest(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "1.0"},
		"model-b": &stubChatClient{err: fmt.Errorf("upstream 500")},
		"model-c": &stubChatClient{reply: "0.5"},
	})
	collector := NewCollectingListener()
	exec.AddListener(collector, 0)

	metric := NewMultiModelMetric("test_metric", exec)
	score, err := metric.Run(context.Background(), CommonConfig{}, nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"judge"}))

	require.NoError(t, err)
	assert.InDelta(t, 0.75, score, 1e-9)

	results := collector.Results()
	require.Len(t, results, 1)
	result := results[0]

	assert.Equal(t, []string{"model-b"}, result.ExcludedModels)
	assert.Len(t, result.ModelScores, 2)
	assert.Contains(t, result.ModelScores, "model-a")
	assert.Contains(t, result.ModelScores, "model-c")

	// Every initially selected model is accounted for exactly once.
	accounted := append([]string(nil), result.ExcludedModels...)
	for id := range result.ModelScores {
		accounted = append(accounted, id)
	}
	assert.ElementsMatch(t, result.ModelIDs, accounted)

	exclusions := collector.Exclusions()
	require.Len(t, exclusions, 1)
	assert.Equal(t, "model-b", exclusions[0].ModelID)
	assert.Equal(t, "judge", exclusions[0].FailedStepName)
	assert.ErrorContains(t, exclusions[0].Cause, "upstream 500")
}

func TestRunAllModelsFailedIsFatal(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{err: fmt.Errorf("down")},
		"model-b": &stubChatClient{err: fmt.Errorf("down")},
	})
	collector := NewCollectingListener()
	exec.AddListener(collector, 0)

	metric := NewMultiModelMetric("faithfulness", exec)
	_, err := metric.Run(context.Background(), CommonConfig{}, nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"extract_statements"}))

	require.Error(t, err)
	var fatal *AllModelsFailedError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "All models failed at step extract_statements for metric: faithfulness", err.Error())

	// The terminal event is still emitted, carrying the error.
	results := collector.Results()
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Zero(t, results[0].AggregatedScore)
	assert.Len(t, results[0].ExcludedModels, 2)
}

func TestRunMissingInputScoresZero(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "1.0"},
	})
	collector := NewCollectingListener()
	exec.AddListener(collector, 0)

	metric := NewMultiModelMetric("context_recall", exec)
	score, err := metric.Run(context.Background(), CommonConfig{}, nil, types.Sample{}, 1,
		func(ev *Evaluation) (map[string]float64, error) {
			return nil, metric.MissingInput("reference", "retrieved_contexts")
		})

	require.NoError(t, err)
	assert.Zero(t, score)

	// Begin and end events frame the run even when no step ran.
	assert.Len(t, collector.Contexts(), 1)
	results := collector.Results()
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Zero(t, results[0].AggregatedScore)
}

func TestRunConsensusDisagreementFails(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "0.1"},
		"model-b": &stubChatClient{reply: "0.9"},
	})

	metric := NewMultiModelMetric("test_metric", exec)
	_, err := metric.Run(context.Background(),
		CommonConfig{Aggregation: AggregationConsensus, ConsensusTolerance: 0.1},
		nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"judge"}))

	require.Error(t, err)
	assert.ErrorContains(t, err, "consensus failed")
}

func TestRunRestrictsToConfiguredModels(t *testing.T) {
	b := &stubChatClient{reply: "0.5"}
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "1.0"},
		"model-b": b,
	})

	metric := NewMultiModelMetric("test_metric", exec)
	score, err := metric.Run(context.Background(), CommonConfig{ModelIDs: []string{"model-a"}},
		nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"judge"}))

	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.Equal(t, 0, b.callCount())
}

func TestRunAsyncCancellationStillEmitsTerminalEvent(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{block: true},
	})
	collector := NewCollectingListener()
	exec.AddListener(collector, 0)

	metric := NewMultiModelMetric("test_metric", exec)
	future := metric.RunAsync(context.Background(), CommonConfig{}, nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"judge"}))

	future.Cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	_, err := future.Wait(waitCtx)
	require.Error(t, err)
	var fatal *AllModelsFailedError
	assert.ErrorAs(t, err, &fatal)

	results := collector.Results()
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestListenerPriorityOrdering(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "1.0"},
	})

	var order []string
	exec.AddListener(&orderListener{name: "second", order: &order}, 10)
	exec.AddListener(&orderListener{name: "first", order: &order}, 1)

	metric := NewMultiModelMetric("test_metric", exec)
	_, err := metric.Run(context.Background(), CommonConfig{}, nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"judge"}))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(order), 2)
	assert.Equal(t, "first", order[0])
	assert.Equal(t, "second", order[1])
}

func TestListenerPanicDoesNotAbortEvaluation(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "0.9"},
	})
	collector := NewCollectingListener()
	exec.AddListener(&panickyListener{}, 0)
	exec.AddListener(collector, 1)

	metric := NewMultiModelMetric("test_metric", exec)
	score, err := metric.Run(context.Background(), CommonConfig{}, nil, sampleForMetricTests(), 1,
		scoreParsingPipeline([]string{"judge"}))

	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)
	assert.Len(t, collector.Results(), 1)
}

// orderListener appends its name on every callback. Single-goroutine use
// only.
type orderListener struct {
	name  string
	order *[]string
}

func (o *orderListener) BeforeMetricEvaluation(MetricEvaluationContext) { *o.order = append(*o.order, o.name) }
func (o *orderListener) BeforeStep(string, int, int)                    { *o.order = append(*o.order, o.name) }
func (o *orderListener) AfterLLMStep(StepResults)                       { *o.order = append(*o.order, o.name) }
func (o *orderListener) AfterComputeStep(StepResults)                   { *o.order = append(*o.order, o.name) }
func (o *orderListener) OnModelExcluded(ModelExclusionEvent)            { *o.order = append(*o.order, o.name) }
func (o *orderListener) AfterMetricEvaluation(MetricEvaluationResult)   { *o.order = append(*o.order, o.name) }

type panickyListener struct{}

func (p *panickyListener) BeforeMetricEvaluation(MetricEvaluationContext) { panic("bad listener") }
func (p *panickyListener) BeforeStep(string, int, int)                    { panic("bad listener") }
func (p *panickyListener) AfterLLMStep(StepResults)                       { panic("bad listener") }
func (p *panickyListener) AfterComputeStep(StepResults)                   { panic("bad listener") }
func (p *panickyListener) OnModelExcluded(ModelExclusionEvent)            { panic("bad listener") }
func (p *panickyListener) AfterMetricEvaluation(MetricEvaluationResult)   { panic("bad listener") }
