// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/prompts"
	"github.com/teradata-labs/skein/pkg/types"
)

// AspectCriticConfig configures a binary judgement against a free-form
// criterion.
type AspectCriticConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// Definition is the criterion the submission is judged against.
	Definition string `yaml:"definition"`

	// Strictness is the number of independent judgements per model;
	// the majority wins. Default 1. Even counts break ties toward 0.
	Strictness int `yaml:"strictness"`
}

// AspectCritic judges the response against a caller-supplied criterion
// and returns 1 or 0 per model, majority-voted over Strictness samples.
type AspectCritic struct {
	base evals.MultiModelMetric
}

// NewAspectCritic creates the metric over the given executor.
func NewAspectCritic(executor *evals.Executor) *AspectCritic {
	return &AspectCritic{base: evals.NewMultiModelMetric("aspect_critic", executor)}
}

// Name returns the metric name.
func (m *AspectCritic) Name() string { return m.base.Name() }

// Score evaluates the sample with the given config.
func (m *AspectCritic) Score(ctx context.Context, config AspectCriticConfig, sample types.Sample) (float64, error) {
	strictness := config.Strictness
	if strictness <= 0 {
		strictness = 1
	}
	return m.base.Run(ctx, config.CommonConfig, config, sample, strictness+1, m.pipeline(config, strictness, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *AspectCritic) ScoreAsync(ctx context.Context, config AspectCriticConfig, sample types.Sample) *evals.ScoreFuture {
	strictness := config.Strictness
	if strictness <= 0 {
		strictness = 1
	}
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, strictness+1, m.pipeline(config, strictness, sample))
}

func (m *AspectCritic) pipeline(config AspectCriticConfig, strictness int, sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasResponse() {
			return nil, m.base.MissingInput("user_input", "response")
		}
		if strings.TrimSpace(config.Definition) == "" {
			return nil, fmt.Errorf("metric %s: definition is required", m.base.Name())
		}

		prompt := prompts.Interpolate(aspectCriticTemplate, map[string]any{
			"definition": config.Definition,
			"user_input": sample.UserInput,
			"response":   sample.Response,
		})

		votes := make(map[string]int)
		for i := 0; i < strictness; i++ {
			values, err := ev.LLMStep(fmt.Sprintf("critique_%d", i+1), prompt, binaryVerdictSchema)
			if err != nil {
				return nil, err
			}
			for modelID, value := range values {
				if value.(*binaryVerdict).Verdict == 1 {
					votes[modelID]++
				}
			}
		}

		scores, err := ev.ComputeStep("majority_vote", func(modelID string) (any, error) {
			if votes[modelID]*2 > strictness {
				return 1.0, nil
			}
			return 0.0, nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}

// SimpleCriteriaConfig configures a continuous judgement within a score
// range.
type SimpleCriteriaConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// Definition is the criterion the submission is scored against.
	Definition string `yaml:"definition"`

	// MinScore and MaxScore bound the scale. Defaults 0 and 5.
	MinScore float64 `yaml:"min_score"`
	MaxScore float64 `yaml:"max_score"`
}

// SimpleCriteriaScore asks each model for a numeric score against a
// criterion and clamps it into the configured range. Unlike the other
// metrics, its result lives in [MinScore, MaxScore].
type SimpleCriteriaScore struct {
	base evals.MultiModelMetric
}

// NewSimpleCriteriaScore creates the metric over the given executor.
func NewSimpleCriteriaScore(executor *evals.Executor) *SimpleCriteriaScore {
	return &SimpleCriteriaScore{base: evals.NewMultiModelMetric("simple_criteria_score", executor)}
}

// Name returns the metric name.
func (m *SimpleCriteriaScore) Name() string { return m.base.Name() }

// Score evaluates the sample with the given config.
func (m *SimpleCriteriaScore) Score(ctx context.Context, config SimpleCriteriaConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 1, m.pipeline(config, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *SimpleCriteriaScore) ScoreAsync(ctx context.Context, config SimpleCriteriaConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 1, m.pipeline(config, sample))
}

func (m *SimpleCriteriaScore) pipeline(config SimpleCriteriaConfig, sample types.Sample) evals.PipelineFunc {
	minScore, maxScore := config.MinScore, config.MaxScore
	if minScore == 0 && maxScore == 0 {
		maxScore = 5
	}

	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasResponse() {
			return nil, m.base.MissingInput("user_input", "response")
		}
		if strings.TrimSpace(config.Definition) == "" {
			return nil, fmt.Errorf("metric %s: definition is required", m.base.Name())
		}
		if minScore >= maxScore {
			return nil, fmt.Errorf("metric %s: min_score %v must be below max_score %v", m.base.Name(), minScore, maxScore)
		}

		referenceBlock := ""
		if sample.HasReference() {
			referenceBlock = "\nReference: " + sample.Reference + "\n"
		}
		prompt := prompts.Interpolate(simpleCriteriaTemplate, map[string]any{
			"definition":      config.Definition,
			"min_score":       minScore,
			"max_score":       maxScore,
			"user_input":      sample.UserInput,
			"response":        sample.Response,
			"reference_block": referenceBlock,
		})

		values, err := ev.LLMStep("score_criteria", prompt, scoredVerdictSchema)
		if err != nil {
			return nil, err
		}

		scores := make(map[string]float64, len(values))
		for modelID, value := range values {
			scores[modelID] = clamp(value.(*scoredVerdict).Score, minScore, maxScore)
		}
		return scores, nil
	}
}

// RubricsConfig configures a rubric-level judgement.
type RubricsConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// Rubrics maps a score level to its description. Required.
	Rubrics map[int]string `yaml:"rubrics"`
}

// RubricsScore asks each model to pick the rubric level that best fits
// the submission and returns that level as the score.
type RubricsScore struct {
	base evals.MultiModelMetric
}

// NewRubricsScore creates the metric over the given executor.
func NewRubricsScore(executor *evals.Executor) *RubricsScore {
	return &RubricsScore{base: evals.NewMultiModelMetric("rubrics_score", executor)}
}

// Name returns the metric name.
func (m *RubricsScore) Name() string { return m.base.Name() }

// Score evaluates the sample with the given config.
func (m *RubricsScore) Score(ctx context.Context, config RubricsConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 1, m.pipeline(config, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *RubricsScore) ScoreAsync(ctx context.Context, config RubricsConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 1, m.pipeline(config, sample))
}

func (m *RubricsScore) pipeline(config RubricsConfig, sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasResponse() {
			return nil, m.base.MissingInput("user_input", "response")
		}
		if len(config.Rubrics) == 0 {
			return nil, fmt.Errorf("metric %s: rubrics are required", m.base.Name())
		}

		levels := make([]int, 0, len(config.Rubrics))
		for level := range config.Rubrics {
			levels = append(levels, level)
		}
		sort.Ints(levels)
		var rubricText strings.Builder
		for _, level := range levels {
			fmt.Fprintf(&rubricText, "Score %d: %s\n", level, config.Rubrics[level])
		}

		referenceBlock := ""
		if sample.HasReference() {
			referenceBlock = "\nReference: " + sample.Reference + "\n"
		}
		prompt := prompts.Interpolate(rubricsTemplate, map[string]any{
			"rubrics":         strings.TrimSuffix(rubricText.String(), "\n"),
			"user_input":      sample.UserInput,
			"response":        sample.Response,
			"reference_block": referenceBlock,
		})

		values, err := ev.LLMStep("judge_rubric", prompt, rubricVerdictSchema)
		if err != nil {
			return nil, err
		}

		scores := make(map[string]float64, len(values))
		for modelID, value := range values {
			scores[modelID] = float64(value.(*rubricVerdict).Score)
		}
		return scores, nil
	}
}
