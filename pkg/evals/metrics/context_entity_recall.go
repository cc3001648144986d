// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/prompts"
	"github.com/teradata-labs/skein/pkg/types"
)

// ContextEntityRecallConfig configures the context entity recall metric.
type ContextEntityRecallConfig struct {
	evals.CommonConfig `yaml:",inline"`
}

// ContextEntityRecall measures what fraction of the entities in the
// reference also appear in the retrieved contexts. Entity comparison is
// case-insensitive after trimming.
type ContextEntityRecall struct {
	base evals.MultiModelMetric
}

// NewContextEntityRecall creates the metric over the given executor.
func NewContextEntityRecall(executor *evals.Executor) *ContextEntityRecall {
	return &ContextEntityRecall{base: evals.NewMultiModelMetric("context_entity_recall", executor)}
}

// Name returns the metric name.
func (m *ContextEntityRecall) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *ContextEntityRecall) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, ContextEntityRecallConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *ContextEntityRecall) Score(ctx context.Context, config ContextEntityRecallConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 3, m.pipeline(sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *ContextEntityRecall) ScoreAsync(ctx context.Context, config ContextEntityRecallConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 3, m.pipeline(sample))
}

func (m *ContextEntityRecall) pipeline(sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasReference() || !sample.HasRetrievedContexts() {
			return nil, m.base.MissingInput("reference", "retrieved_contexts")
		}

		refPrompt := prompts.Interpolate(extractEntitiesTemplate, map[string]any{
			"text": sample.Reference,
		})
		refEntities, err := ev.LLMStep("extract_reference_entities", refPrompt, entitiesSchema)
		if err != nil {
			return nil, err
		}

		ctxPrompt := prompts.Interpolate(extractEntitiesTemplate, map[string]any{
			"text": sample.JoinedContexts(),
		})
		ctxEntities, err := ev.LLMStep("extract_context_entities", ctxPrompt, entitiesSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.ComputeStep("compute_entity_recall", func(modelID string) (any, error) {
			refValue, ok := refEntities[modelID]
			if !ok {
				return nil, fmt.Errorf("no reference entities for model %s", modelID)
			}
			ctxValue, ok := ctxEntities[modelID]
			if !ok {
				return nil, fmt.Errorf("no context entities for model %s", modelID)
			}

			refSet := make(map[string]struct{})
			for _, e := range refValue.(*entityList).Entities {
				if n := normalizeEntity(e); n != "" {
					refSet[n] = struct{}{}
				}
			}
			if len(refSet) == 0 {
				return 0.0, nil
			}

			ctxSet := make(map[string]struct{})
			for _, e := range ctxValue.(*entityList).Entities {
				if n := normalizeEntity(e); n != "" {
					ctxSet[n] = struct{}{}
				}
			}

			common := 0
			for e := range refSet {
				if _, ok := ctxSet[e]; ok {
					common++
				}
			}
			return float64(common) / float64(len(refSet)), nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
