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

// ToolCallAccuracyConfig configures the tool call accuracy metric.
type ToolCallAccuracyConfig struct {
	evals.CommonConfig `yaml:",inline"`
}

// ToolCallAccuracy checks that every reference tool call appears in the
// conversation's observed tool calls, in order, with equal argument
// maps. The score is 1 on a full in-order match and 0 otherwise. No LLM
// is involved.
type ToolCallAccuracy struct {
	base evals.MultiModelMetric
}

// NewToolCallAccuracy creates the metric over the given executor.
func NewToolCallAccuracy(executor *evals.Executor) *ToolCallAccuracy {
	return &ToolCallAccuracy{base: evals.NewMultiModelMetric("tool_call_accuracy", executor)}
}

// Name returns the metric name.
func (m *ToolCallAccuracy) Name() string { return m.base.Name() }

// MultiTurnScore evaluates the conversation with the default config.
func (m *ToolCallAccuracy) MultiTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, ToolCallAccuracyConfig{}, sample)
}

// Score evaluates the conversation with the given config.
func (m *ToolCallAccuracy) Score(ctx context.Context, config ToolCallAccuracyConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 1, m.pipeline(sample))
}

// ScoreAsync evaluates the conversation asynchronously.
func (m *ToolCallAccuracy) ScoreAsync(ctx context.Context, config ToolCallAccuracyConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 1, m.pipeline(sample))
}

func (m *ToolCallAccuracy) pipeline(sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if len(sample.UserInputMessages) == 0 || len(sample.ReferenceToolCalls) == 0 {
			return nil, m.base.MissingInput("user_input_messages", "reference_tool_calls")
		}

		observed := sample.ObservedToolCalls()
		scores, err := ev.ComputeStep("match_tool_calls", func(modelID string) (any, error) {
			next := 0
			for _, call := range observed {
				if next < len(sample.ReferenceToolCalls) && call.Equal(sample.ReferenceToolCalls[next]) {
					next++
				}
			}
			if next == len(sample.ReferenceToolCalls) {
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

// AgentGoalAccuracyConfig configures the agent goal accuracy metric.
type AgentGoalAccuracyConfig struct {
	evals.CommonConfig `yaml:",inline"`
}

// AgentGoalAccuracy judges whether the conversation achieved the user's
// goal. With a reference, the reference is the goal; without one, each
// model first infers the goal from the conversation, then judges
// achievement of its own inferred goal.
type AgentGoalAccuracy struct {
	base evals.MultiModelMetric
}

// NewAgentGoalAccuracy creates the metric over the given executor.
func NewAgentGoalAccuracy(executor *evals.Executor) *AgentGoalAccuracy {
	return &AgentGoalAccuracy{base: evals.NewMultiModelMetric("agent_goal_accuracy", executor)}
}

// Name returns the metric name.
func (m *AgentGoalAccuracy) Name() string { return m.base.Name() }

// MultiTurnScore evaluates the conversation with the default config.
func (m *AgentGoalAccuracy) MultiTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, AgentGoalAccuracyConfig{}, sample)
}

// Score evaluates the conversation with the given config.
func (m *AgentGoalAccuracy) Score(ctx context.Context, config AgentGoalAccuracyConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, m.totalSteps(sample), m.pipeline(sample))
}

// ScoreAsync evaluates the conversation asynchronously.
func (m *AgentGoalAccuracy) ScoreAsync(ctx context.Context, config AgentGoalAccuracyConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, m.totalSteps(sample), m.pipeline(sample))
}

func (m *AgentGoalAccuracy) totalSteps(sample types.Sample) int {
	if sample.HasReference() {
		return 1
	}
	return 2
}

func (m *AgentGoalAccuracy) pipeline(sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if len(sample.UserInputMessages) == 0 {
			return nil, m.base.MissingInput("user_input_messages")
		}

		conversation := formatConversation(sample.UserInputMessages)

		var verdicts map[string]any
		var err error
		if sample.HasReference() {
			prompt := prompts.Interpolate(goalAccuracyWithReferenceTemplate, map[string]any{
				"reference":    sample.Reference,
				"conversation": conversation,
			})
			verdicts, err = ev.LLMStep("judge_goal_achievement", prompt, binaryVerdictSchema)
		} else {
			var goals map[string]any
			goals, err = ev.LLMStep("infer_goal", prompts.Interpolate(inferGoalTemplate, map[string]any{
				"conversation": conversation,
			}), goalInferenceSchema)
			if err != nil {
				return nil, err
			}

			judgePrompts := make(map[string]string, len(ev.Active()))
			for _, modelID := range ev.Active() {
				judgePrompts[modelID] = prompts.Interpolate(goalAccuracyWithReferenceTemplate, map[string]any{
					"reference":    goals[modelID].(*goalInference).Goal,
					"conversation": conversation,
				})
			}
			verdicts, err = ev.LLMStepPerModel("judge_goal_achievement", judgePrompts, binaryVerdictSchema)
		}
		if err != nil {
			return nil, err
		}

		scores := make(map[string]float64, len(verdicts))
		for modelID, value := range verdicts {
			scores[modelID] = float64(value.(*binaryVerdict).Verdict)
		}
		return scores, nil
	}
}

// TopicAdherenceConfig configures the topic adherence metric.
type TopicAdherenceConfig struct {
	evals.CommonConfig `yaml:",inline"`
}

// TopicAdherence classifies each AI turn of the conversation against
// the allowed reference topics; the score is the on-topic fraction.
type TopicAdherence struct {
	base evals.MultiModelMetric
}

// NewTopicAdherence creates the metric over the given executor.
func NewTopicAdherence(executor *evals.Executor) *TopicAdherence {
	return &TopicAdherence{base: evals.NewMultiModelMetric("topic_adherence", executor)}
}

// Name returns the metric name.
func (m *TopicAdherence) Name() string { return m.base.Name() }

// MultiTurnScore evaluates the conversation with the default config.
func (m *TopicAdherence) MultiTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, TopicAdherenceConfig{}, sample)
}

// Score evaluates the conversation with the given config.
func (m *TopicAdherence) Score(ctx context.Context, config TopicAdherenceConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 2, m.pipeline(sample))
}

// ScoreAsync evaluates the conversation asynchronously.
func (m *TopicAdherence) ScoreAsync(ctx context.Context, config TopicAdherenceConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 2, m.pipeline(sample))
}

func (m *TopicAdherence) pipeline(sample types.Sample) evals.PipelineFunc {
	return func(ev *evals.Evaluation) (map[string]float64, error) {
		aiTurns := sample.AIMessages()
		if len(sample.UserInputMessages) == 0 || len(sample.ReferenceTopics) == 0 || len(aiTurns) == 0 {
			return nil, m.base.MissingInput("user_input_messages", "reference_topics")
		}

		turnTexts := make([]string, len(aiTurns))
		for i, turn := range aiTurns {
			turnTexts[i] = turn.Content
		}
		prompt := prompts.Interpolate(topicAdherenceTemplate, map[string]any{
			"topics": numberedList(sample.ReferenceTopics),
			"turns":  numberedList(turnTexts),
		})

		classified, err := ev.LLMStep("classify_turns", prompt, topicsSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.ComputeStep("compute_adherence", func(modelID string) (any, error) {
			value, ok := classified[modelID]
			if !ok {
				return nil, fmt.Errorf("no classifications for model %s", modelID)
			}
			list := value.(*topicClassificationList)
			if len(list.Classifications) == 0 {
				return 0.0, nil
			}
			onTopic := 0
			for _, c := range list.Classifications {
				if c.OnTopic {
					onTopic++
				}
			}
			return float64(onTopic) / float64(len(list.Classifications)), nil
		})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
