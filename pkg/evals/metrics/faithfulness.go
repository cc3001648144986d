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

// FaithfulnessConfig configures the faithfulness metric.
type FaithfulnessConfig struct {
	evals.CommonConfig `yaml:",inline"`
}

// Faithfulness measures how well the response is grounded in the
// retrieved contexts: the response is decomposed into atomic statements,
// each statement is judged against the joined contexts, and the score is
// the supported fraction.
type Faithfulness struct {
	base evals.MultiModelMetric
}

// NewFaithfulness creates the metric over the given executor.
func NewFaithfulness(executor *evals.Executor) *Faithfulness {
	return &Faithfulness{base: evals.NewMultiModelMetric("faithfulness", executor)}
}

// Name returns the metric name.
func (m *Faithfulness) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *Faithfulness) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, FaithfulnessConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *Faithfulness) Score(ctx context.Context, config FaithfulnessConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 3, m.pipeline(sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *Faithfulness) ScoreAsync(ctx context.Context, config FaithfulnessConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 3, m.pipeline(sample))
}

func (m *Faithfulness) pipeline(sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasResponse() || !sample.HasRetrievedContexts() {
			return nil, m.base.MissingInput("response", "retrieved_contexts")
		}

		prompt := prompts.Interpolate(generateStatementsTemplate, map[string]any{
			"user_input": sample.UserInput,
			"response":   sample.Response,
		})
		statements, err := ev.LLMStep("generate_statements", prompt, statementsSchema)
		if err != nil {
			return nil, err
		}

		judgePrompts := make(map[string]string, len(statements))
		for modelID, value := range statements {
			list := value.(*statementList)
			judgePrompts[modelID] = prompts.Interpolate(evaluateFaithfulnessTemplate, map[string]any{
				"contexts":   sample.JoinedContexts(),
				"statements": numberedList(list.Statements),
			})
		}
		verdicts, err := ev.LLMStepPerModel("evaluate_faithfulness", judgePrompts, faithfulnessVerdictsSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.ComputeStep("compute_score", func(modelID string) (any, error) {
			value, ok := verdicts[modelID]
			if !ok {
				return nil, fmt.Errorf("no verdicts for model %s", modelID)
			}
			list := value.(*faithfulnessVerdictList)
			if len(list.Verdicts) == 0 {
				return 0.0, nil
			}
			supported := 0
			for _, v := range list.Verdicts {
				if v.Verdict == 1 {
					supported++
				}
			}
			return float64(supported) / float64(len(list.Verdicts)), nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
