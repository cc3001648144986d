// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/skein/pkg/types"
)

func bookingConversation() []types.Message {
	return []types.Message{
		{Role: types.RoleHuman, Content: "Book me a table for two tonight."},
		{Role: types.RoleAI, Content: "Checking availability.", ToolCalls: []types.ToolCall{
			{Name: "find_restaurant", Arguments: map[string]any{"party_size": 2}},
		}},
		{Role: types.RoleTool, Content: "Table available at 19:00."},
		{Role: types.RoleAI, Content: "Booked for 19:00.", ToolCalls: []types.ToolCall{
			{Name: "book_table", Arguments: map[string]any{"time": "19:00"}},
		}},
	}
}

func TestToolCallAccuracyExactMatch(t *testing.T) {
	sample := types.Sample{
		UserInputMessages: bookingConversation(),
		ReferenceToolCalls: []types.ToolCall{
			{Name: "find_restaurant", Arguments: map[string]any{"party_size": 2}},
			{Name: "book_table", Arguments: map[string]any{"time": "19:00"}},
		},
	}

	metric := NewToolCallAccuracy(singleJudge("unused"))
	score, err := metric.MultiTurnScore(context.Background(), sample)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestToolCallAccuracyWrongArguments(t *testing.T) {
	sample := types.Sample{
		UserInputMessages: bookingConversation(),
		ReferenceToolCalls: []types.ToolCall{
			{Name: "book_table", Arguments: map[string]any{"time": "20:00"}},
		},
	}

	metric := NewToolCallAccuracy(singleJudge("unused"))
	score, err := metric.MultiTurnScore(context.Background(), sample)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestToolCallAccuracyOutOfOrder(t *testing.T) {
	sample := types.Sample{
		UserInputMessages: bookingConversation(),
		ReferenceToolCalls: []types.ToolCall{
			{Name: "book_table", Arguments: map[string]any{"time": "19:00"}},
			{Name: "find_restaurant", Arguments: map[string]any{"party_size": 2}},
		},
	}

	metric := NewToolCallAccuracy(singleJudge("unused"))
	score, err := metric.MultiTurnScore(context.Background(), sample)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestToolCallAccuracyMissingReferenceReturnsZero(t *testing.T) {
	metric := NewToolCallAccuracy(singleJudge("unused"))
	score, err := metric.MultiTurnScore(context.Background(), types.Sample{
		UserInputMessages: bookingConversation(),
	})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestAgentGoalAccuracyWithReference(t *testing.T) {
	metric := NewAgentGoalAccuracy(singleJudge(`{"verdict": 1, "reason": "table booked"}`))
	score, err := metric.MultiTurnScore(context.Background(), types.Sample{
		UserInputMessages: bookingConversation(),
		Reference:         "A table for two is booked tonight.",
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestAgentGoalAccuracyWithoutReferenceInfersGoal(t *testing.T) {
	metric := NewAgentGoalAccuracy(singleJudge(
		`{"goal": "Book a table for two tonight."}`,
		`{"verdict": 0, "reason": "no confirmation"}`,
	))
	score, err := metric.MultiTurnScore(context.Background(), types.Sample{
		UserInputMessages: bookingConversation(),
	})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestTopicAdherenceFraction(t *testing.T) {
	metric := NewTopicAdherence(singleJudge(`{"classifications": [
		{"turn": 1, "on_topic": true, "reason": "restaurant topic"},
		{"turn": 2, "on_topic": false, "reason": "off topic"}]}`))
	score, err := metric.MultiTurnScore(context.Background(), types.Sample{
		UserInputMessages: bookingConversation(),
		ReferenceTopics:   []string{"restaurant booking"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestTopicAdherenceMissingTopicsReturnsZero(t *testing.T) {
	metric := NewTopicAdherence(singleJudge(`{"classifications": []}`))
	score, err := metric.MultiTurnScore(context.Background(), types.Sample{
		UserInputMessages: bookingConversation(),
	})
	require.NoError(t, err)
	assert.Zero(t, score)
}
