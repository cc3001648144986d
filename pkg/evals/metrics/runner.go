// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/evals/nlp"
	"github.com/teradata-labs/skein/pkg/types"
)

// scorer evaluates one sample with a fully bound metric configuration.
type scorer func(ctx context.Context, sample types.Sample) (float64, error)

// SampleScore is the outcome of one metric on one sample. A per-sample
// failure is recorded here and never aborts the rest of the suite.
type SampleScore struct {
	SampleName string
	MetricName string
	Score      float64
	Duration   time.Duration
	Err        error
}

// SuiteResult holds every score produced by a suite run.
type SuiteResult struct {
	SuiteName string
	Scores    []SampleScore
}

// MetricAverages returns the mean score per metric across the samples
// that scored without error.
func (r *SuiteResult) MetricAverages() map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range r.Scores {
		if s.Err != nil {
			continue
		}
		sums[s.MetricName] += s.Score
		counts[s.MetricName]++
	}
	averages := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averages[name] = sum / float64(counts[name])
	}
	return averages
}

// Failed returns the scores that ended in an error.
func (r *SuiteResult) Failed() []SampleScore {
	var out []SampleScore
	for _, s := range r.Scores {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// SuiteRunner scores every sample of a suite with every configured
// metric. Metric configs are decoded once up front so a malformed suite
// fails before any model call is made.
type SuiteRunner struct {
	executor *evals.Executor
	logger   *zap.Logger
}

// NewSuiteRunner creates a runner on the given executor.
func NewSuiteRunner(executor *evals.Executor, logger *zap.Logger) *SuiteRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuiteRunner{executor: executor, logger: logger}
}

// MetricNames returns every metric name the runner can bind, sorted.
func MetricNames() []string {
	names := []string{
		"agent_goal_accuracy",
		"aspect_critic",
		"bleu_score",
		"chrf_score",
		"context_entity_recall",
		"context_precision",
		"context_recall",
		"factual_correctness",
		"faithfulness",
		"noise_sensitivity",
		"response_relevancy",
		"rouge_score",
		"rubrics_score",
		"simple_criteria_score",
		"string_similarity",
		"tool_call_accuracy",
		"topic_adherence",
	}
	sort.Strings(names)
	return names
}

// Run executes the suite. Per-sample metric failures are recorded in the
// result; only an unbindable suite (unknown metric, invalid config)
// returns an error.
func (r *SuiteRunner) Run(ctx context.Context, suite *evals.Suite) (*SuiteResult, error) {
	scorers := make([]scorer, len(suite.Spec.Metrics))
	for i, spec := range suite.Spec.Metrics {
		s, err := r.bind(spec)
		if err != nil {
			return nil, err
		}
		scorers[i] = s
	}

	result := &SuiteResult{SuiteName: suite.Metadata.Name}
	for _, sample := range suite.Spec.Samples {
		for i, spec := range suite.Spec.Metrics {
			start := time.Now()
			score, err := scorers[i](ctx, sample.Sample)
			if err != nil {
				r.logger.Warn("metric failed on sample",
					zap.String("suite", suite.Metadata.Name),
					zap.String("sample", sample.Name),
					zap.String("metric", spec.Name),
					zap.Error(err),
				)
			}
			result.Scores = append(result.Scores, SampleScore{
				SampleName: sample.Name,
				MetricName: spec.Name,
				Score:      score,
				Duration:   time.Since(start),
				Err:        err,
			})
		}
	}
	return result, nil
}

// bind resolves a metric spec into a ready-to-run scorer.
func (r *SuiteRunner) bind(spec evals.MetricSpec) (scorer, error) {
	switch spec.Name {
	case "faithfulness":
		var config FaithfulnessConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewFaithfulness(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "context_precision":
		var config ContextPrecisionConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewContextPrecision(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "context_recall":
		var config ContextRecallConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewContextRecall(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "context_entity_recall":
		var config ContextEntityRecallConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewContextEntityRecall(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "noise_sensitivity":
		var config NoiseSensitivityConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewNoiseSensitivity(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "response_relevancy":
		var config ResponseRelevancyConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewResponseRelevancy(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "factual_correctness":
		var config FactualCorrectnessConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewFactualCorrectness(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "aspect_critic":
		var config AspectCriticConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewAspectCritic(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "simple_criteria_score":
		var config SimpleCriteriaConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewSimpleCriteriaScore(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "rubrics_score":
		var config RubricsConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewRubricsScore(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "tool_call_accuracy":
		var config ToolCallAccuracyConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewToolCallAccuracy(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "agent_goal_accuracy":
		var config AgentGoalAccuracyConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewAgentGoalAccuracy(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "topic_adherence":
		var config TopicAdherenceConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		m := NewTopicAdherence(r.executor)
		return func(ctx context.Context, sample types.Sample) (float64, error) {
			return m.Score(ctx, config, sample)
		}, nil

	case "bleu_score":
		var config nlp.BLEUConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		return nlp.NewBLEU(config).SingleTurnScore, nil

	case "rouge_score":
		var config nlp.ROUGEConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		return nlp.NewROUGE(config).SingleTurnScore, nil

	case "chrf_score":
		var config nlp.ChrFConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		return nlp.NewChrF(config).SingleTurnScore, nil

	case "string_similarity":
		var config nlp.StringSimilarityConfig
		if err := spec.DecodeConfig(&config); err != nil {
			return nil, err
		}
		return nlp.NewStringSimilarity(config).SingleTurnScore, nil

	default:
		return nil, fmt.Errorf("unknown metric: %s", spec.Name)
	}
}
