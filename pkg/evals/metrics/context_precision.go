// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/prompts"
	"github.com/teradata-labs/skein/pkg/types"
)

// ContextPrecisionStrategy selects what each retrieved context is judged
// useful for.
type ContextPrecisionStrategy string

const (
	// StrategyAuto picks ReferenceBased when a reference is present,
	// ResponseBased otherwise.
	StrategyAuto ContextPrecisionStrategy = ""

	// StrategyReferenceBased judges each context against the reference.
	StrategyReferenceBased ContextPrecisionStrategy = "reference_based"

	// StrategyResponseBased judges each context against the response.
	StrategyResponseBased ContextPrecisionStrategy = "response_based"
)

// ContextPrecisionConfig configures the context precision metric.
type ContextPrecisionConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// Strategy pins the judgement target. Default: auto-detect.
	Strategy ContextPrecisionStrategy `yaml:"strategy"`
}

// ContextPrecision measures whether relevant contexts rank ahead of
// irrelevant ones: each retrieved context is judged relevant or not in
// rank order, and the per-model score is the Average Precision of the
// relevance vector.
//
// A model that fails one context's judgement stays in the pipeline; the
// failed context counts as not relevant for that model, and an exclusion
// event records the failure.
type ContextPrecision struct {
	base evals.MultiModelMetric
}

// NewContextPrecision creates the metric over the given executor.
func NewContextPrecision(executor *evals.Executor) *ContextPrecision {
	return &ContextPrecision{base: evals.NewMultiModelMetric("context_precision", executor)}
}

// Name returns the metric name.
func (m *ContextPrecision) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *ContextPrecision) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, ContextPrecisionConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *ContextPrecision) Score(ctx context.Context, config ContextPrecisionConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, len(sample.RetrievedContexts)+1, m.pipeline(config, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *ContextPrecision) ScoreAsync(ctx context.Context, config ContextPrecisionConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, len(sample.RetrievedContexts)+1, m.pipeline(config, sample))
}

// resolveStrategy applies auto-detection and the reference-missing
// fallback.
func (m *ContextPrecision) resolveStrategy(config ContextPrecisionConfig, sample types.Sample) ContextPrecisionStrategy {
	switch config.Strategy {
	case StrategyReferenceBased:
		if sample.HasReference() {
			return StrategyReferenceBased
		}
		m.base.Logger().Warn("reference-based strategy requested but reference is blank, falling back to response-based",
			zap.String("metric", m.base.Name()),
		)
		return StrategyResponseBased
	case StrategyResponseBased:
		return StrategyResponseBased
	default:
		if sample.HasReference() {
			return StrategyReferenceBased
		}
		return StrategyResponseBased
	}
}

func (m *ContextPrecision) pipeline(config ContextPrecisionConfig, sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasRetrievedContexts() {
			return nil, m.base.MissingInput("user_input", "retrieved_contexts")
		}
		if !sample.HasReference() && !sample.HasResponse() {
			return nil, m.base.MissingInput("reference", "response")
		}

		strategy := m.resolveStrategy(config, sample)

		votes := make(map[string][]bool, len(ev.Active()))
		for _, modelID := range ev.Active() {
			votes[modelID] = make([]bool, len(sample.RetrievedContexts))
		}

		for k, retrieved := range sample.RetrievedContexts {
			var prompt string
			if strategy == StrategyReferenceBased {
				prompt = prompts.Interpolate(contextPrecisionReferenceTemplate, map[string]any{
					"user_input": sample.UserInput,
					"reference":  sample.Reference,
					"context":    retrieved,
				})
			} else {
				prompt = prompts.Interpolate(contextPrecisionResponseTemplate, map[string]any{
					"user_input": sample.UserInput,
					"response":   sample.Response,
					"context":    retrieved,
				})
			}

			values, err := ev.LLMStepKeepFailures(fmt.Sprintf("evaluate_context_%d", k+1), prompt, relevanceSchema)
			if err != nil {
				return nil, err
			}
			for modelID, value := range values {
				votes[modelID][k] = value.(*relevanceJudgement).Relevant
			}
		}

		scores, err := ev.ComputeStep("compute_precision", func(modelID string) (any, error) {
			return averagePrecision(votes[modelID]), nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
