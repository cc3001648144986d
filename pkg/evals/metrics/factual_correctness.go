// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/prompts"
	"github.com/teradata-labs/skein/pkg/types"
)

// FactualCorrectnessMode selects which measure the metric reports.
type FactualCorrectnessMode string

const (
	// ModeF1 is the harmonic mean of precision and recall. The default.
	ModeF1 FactualCorrectnessMode = "f1"

	// ModePrecision reports the supported fraction of response claims.
	ModePrecision FactualCorrectnessMode = "precision"

	// ModeRecall reports the supported fraction of reference claims.
	ModeRecall FactualCorrectnessMode = "recall"
)

// FactualCorrectnessConfig configures the factual correctness metric.
type FactualCorrectnessConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// Mode selects f1, precision or recall. Default: f1.
	Mode FactualCorrectnessMode `yaml:"mode"`
}

// FactualCorrectness compares response and reference claim-by-claim
// using NLI verification in both directions. Response claims verified
// against the reference give precision; reference claims verified
// against the response give recall. Only SUPPORTED verdicts count.
type FactualCorrectness struct {
	base evals.MultiModelMetric
}

// NewFactualCorrectness creates the metric over the given executor.
func NewFactualCorrectness(executor *evals.Executor) *FactualCorrectness {
	return &FactualCorrectness{base: evals.NewMultiModelMetric("factual_correctness", executor)}
}

// Name returns the metric name.
func (m *FactualCorrectness) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *FactualCorrectness) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, FactualCorrectnessConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *FactualCorrectness) Score(ctx context.Context, config FactualCorrectnessConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 5, m.pipeline(config, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *FactualCorrectness) ScoreAsync(ctx context.Context, config FactualCorrectnessConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 5, m.pipeline(config, sample))
}

func (m *FactualCorrectness) pipeline(config FactualCorrectnessConfig, sample types.Sample) evals.PipelineFunc {
	mode := config.Mode
	if mode == "" {
		mode = ModeF1
	}

	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasResponse() || !sample.HasReference() {
			return nil, m.base.MissingInput("response", "reference")
		}

		respPrompt := prompts.Interpolate(decomposeClaimsTemplate, map[string]any{
			"text": sample.Response,
		})
		responseClaims, err := ev.LLMStep("decompose_response_claims", respPrompt, claimsSchema)
		if err != nil {
			return nil, err
		}

		refPrompt := prompts.Interpolate(decomposeClaimsTemplate, map[string]any{
			"text": sample.Reference,
		})
		referenceClaims, err := ev.LLMStep("decompose_reference_claims", refPrompt, claimsSchema)
		if err != nil {
			return nil, err
		}

		precisionPrompts := make(map[string]string, len(ev.Active()))
		for _, modelID := range ev.Active() {
			claims := responseClaims[modelID].(*claimList)
			precisionPrompts[modelID] = prompts.Interpolate(verifyClaimsNLITemplate, map[string]any{
				"premise": sample.Reference,
				"claims":  numberedList(claims.Claims),
			})
		}
		precisionVerdicts, err := ev.LLMStepPerModel("verify_response_claims", precisionPrompts, nliVerdictsSchema)
		if err != nil {
			return nil, err
		}

		recallPrompts := make(map[string]string, len(ev.Active()))
		for _, modelID := range ev.Active() {
			claims := referenceClaims[modelID].(*claimList)
			recallPrompts[modelID] = prompts.Interpolate(verifyClaimsNLITemplate, map[string]any{
				"premise": sample.Response,
				"claims":  numberedList(claims.Claims),
			})
		}
		recallVerdicts, err := ev.LLMStepPerModel("verify_reference_claims", recallPrompts, nliVerdictsSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.ComputeStep("compute_score", func(modelID string) (any, error) {
			pVerdicts, ok := precisionVerdicts[modelID]
			if !ok {
				return nil, fmt.Errorf("no precision verdicts for model %s", modelID)
			}
			rVerdicts, ok := recallVerdicts[modelID]
			if !ok {
				return nil, fmt.Errorf("no recall verdicts for model %s", modelID)
			}

			precision := supportedFraction(pVerdicts.(*nliVerdictList))
			recall := supportedFraction(rVerdicts.(*nliVerdictList))

			switch mode {
			case ModePrecision:
				return precision, nil
			case ModeRecall:
				return recall, nil
			default:
				if precision+recall == 0 {
					return 0.0, nil
				}
				return 2 * precision * recall / (precision + recall), nil
			}
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}

func supportedFraction(list *nliVerdictList) float64 {
	if len(list.Verdicts) == 0 {
		return 0
	}
	supported := 0
	for _, v := range list.Verdicts {
		if strings.EqualFold(v.Verdict, "SUPPORTED") {
			supported++
		}
	}
	return float64(supported) / float64(len(list.Verdicts))
}
