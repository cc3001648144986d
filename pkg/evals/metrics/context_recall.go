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

// ContextRecallConfig configures the context recall metric.
type ContextRecallConfig struct {
	evals.CommonConfig `yaml:",inline"`
}

// ContextRecall measures how much of the reference answer is covered by
// the retrieved contexts: each reference sentence is classified as
// attributable to the joined context or not, and the score is the
// attributed fraction.
type ContextRecall struct {
	base evals.MultiModelMetric
}

// NewContextRecall creates the metric over the given executor.
func NewContextRecall(executor *evals.Executor) *ContextRecall {
	return &ContextRecall{base: evals.NewMultiModelMetric("context_recall", executor)}
}

// Name returns the metric name.
func (m *ContextRecall) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *ContextRecall) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, ContextRecallConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *ContextRecall) Score(ctx context.Context, config ContextRecallConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 2, m.pipeline(sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *ContextRecall) ScoreAsync(ctx context.Context, config ContextRecallConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 2, m.pipeline(sample))
}

func (m *ContextRecall) pipeline(sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasReference() || !sample.HasRetrievedContexts() {
			return nil, m.base.MissingInput("user_input", "reference", "retrieved_contexts")
		}

		prompt := prompts.Interpolate(classifyReferenceStatementsTemplate, map[string]any{
			"user_input": sample.UserInput,
			"contexts":   sample.JoinedContexts(),
			"reference":  sample.Reference,
		})
		classified, err := ev.LLMStep("classify_statements", prompt, recallClassificationSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.ComputeStep("compute_recall", func(modelID string) (any, error) {
			value, ok := classified[modelID]
			if !ok {
				return nil, fmt.Errorf("no classifications for model %s", modelID)
			}
			list := value.(*recallClassificationList)
			if len(list.Classifications) == 0 {
				return 0.0, nil
			}
			attributed := 0
			for _, c := range list.Classifications {
				if c.Attributed == 1 {
					attributed++
				}
			}
			return float64(attributed) / float64(len(list.Classifications)), nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
