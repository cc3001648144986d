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

// NoiseSensitivityMode selects which context subset the error rate is
// measured over.
type NoiseSensitivityMode string

const (
	// ModeRelevant measures errors stemming from contexts judged
	// relevant to the reference. The default.
	ModeRelevant NoiseSensitivityMode = "relevant"

	// ModeIrrelevant measures errors stemming from contexts judged
	// irrelevant.
	ModeIrrelevant NoiseSensitivityMode = "irrelevant"
)

// NoiseSensitivityConfig configures the noise sensitivity metric.
type NoiseSensitivityConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// Mode selects the context subset. Default: relevant.
	Mode NoiseSensitivityMode `yaml:"mode"`
}

// NoiseSensitivity measures how often the response asserts things that
// contradict the reference while being backed by a retrieved context of
// the chosen subset. Lower is better; this is the one inverted metric.
//
// The error rate is normalized over all response statements, so a
// response with 3 statements of which 2 are wrong and context-backed
// scores 2/3 regardless of how many contexts were judged.
type NoiseSensitivity struct {
	base evals.MultiModelMetric
}

// NewNoiseSensitivity creates the metric over the given executor.
func NewNoiseSensitivity(executor *evals.Executor) *NoiseSensitivity {
	return &NoiseSensitivity{base: evals.NewMultiModelMetric("noise_sensitivity", executor)}
}

// Name returns the metric name.
func (m *NoiseSensitivity) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *NoiseSensitivity) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, NoiseSensitivityConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *NoiseSensitivity) Score(ctx context.Context, config NoiseSensitivityConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, m.totalSteps(sample), m.pipeline(config, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *NoiseSensitivity) ScoreAsync(ctx context.Context, config NoiseSensitivityConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, m.totalSteps(sample), m.pipeline(config, sample))
}

func (m *NoiseSensitivity) totalSteps(sample types.Sample) int {
	// decompose reference + decompose response + one judgement per
	// context + reference check + compute
	return 2 + len(sample.RetrievedContexts) + 2
}

func (m *NoiseSensitivity) pipeline(config NoiseSensitivityConfig, sample types.Sample) evals.PipelineFunc {
	mode := config.Mode
	if mode == "" {
		mode = ModeRelevant
	}

	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasResponse() || !sample.HasReference() || !sample.HasRetrievedContexts() {
			return nil, m.base.MissingInput("user_input", "response", "reference", "retrieved_contexts")
		}

		refPrompt := prompts.Interpolate(generateStatementsTemplate, map[string]any{
			"user_input": sample.UserInput,
			"response":   sample.Reference,
		})
		refStatements, err := ev.LLMStep("decompose_reference", refPrompt, statementsSchema)
		if err != nil {
			return nil, err
		}

		respPrompt := prompts.Interpolate(generateStatementsTemplate, map[string]any{
			"user_input": sample.UserInput,
			"response":   sample.Response,
		})
		respStatements, err := ev.LLMStep("decompose_response", respPrompt, statementsSchema)
		if err != nil {
			return nil, err
		}

		// Per model and context: was the context relevant, and which
		// response statements does it back.
		type contextVote struct {
			relevant  bool
			supported []bool
		}
		contextVotes := make(map[string][]contextVote)

		for k, retrieved := range sample.RetrievedContexts {
			judgePrompts := make(map[string]string, len(ev.Active()))
			for _, modelID := range ev.Active() {
				refList := refStatements[modelID].(*statementList)
				respList := respStatements[modelID].(*statementList)
				judgePrompts[modelID] = prompts.Interpolate(noiseContextJudgementTemplate, map[string]any{
					"context":              retrieved,
					"reference_statements": numberedList(refList.Statements),
					"response_statements":  numberedList(respList.Statements),
				})
			}

			values, err := ev.LLMStepPerModel(fmt.Sprintf("judge_context_%d", k+1), judgePrompts, contextJudgementSchema)
			if err != nil {
				return nil, err
			}
			for modelID, value := range values {
				judgement := value.(*contextJudgement)
				vote := contextVote{relevant: judgement.Relevant}
				vote.supported = make([]bool, len(judgement.Verdicts))
				for i, v := range judgement.Verdicts {
					vote.supported[i] = v.Supported
				}
				contextVotes[modelID] = append(contextVotes[modelID], vote)
			}
		}

		checkPrompts := make(map[string]string, len(ev.Active()))
		for _, modelID := range ev.Active() {
			respList := respStatements[modelID].(*statementList)
			checkPrompts[modelID] = prompts.Interpolate(checkAgainstReferenceTemplate, map[string]any{
				"reference":  sample.Reference,
				"statements": numberedList(respList.Statements),
			})
		}
		referenceChecks, err := ev.LLMStepPerModel("check_against_reference", checkPrompts, statementSupportSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.ComputeStep("compute_error_rate", func(modelID string) (any, error) {
			respList, ok := respStatements[modelID]
			if !ok {
				return nil, fmt.Errorf("no response statements for model %s", modelID)
			}
			total := len(respList.(*statementList).Statements)
			if total == 0 {
				return 0.0, nil
			}

			checks := referenceChecks[modelID].(*statementSupportList)
			votes := contextVotes[modelID]

			errors := 0
			for i := 0; i < total; i++ {
				correct := i < len(checks.Verdicts) && checks.Verdicts[i].Supported
				if correct {
					continue
				}
				for _, vote := range votes {
					inSubset := vote.relevant == (mode == ModeRelevant)
					if inSubset && i < len(vote.supported) && vote.supported[i] {
						errors++
						break
					}
				}
			}
			return float64(errors) / float64(total), nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
