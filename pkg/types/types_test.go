// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolCall_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a     ToolCall
		b     ToolCall
		equal bool
	}{
		{
			name:  "same name same args",
			a:     ToolCall{Name: "search", Arguments: map[string]any{"query": "go"}},
			b:     ToolCall{Name: "search", Arguments: map[string]any{"query": "go"}},
			equal: true,
		},
		{
			name:  "different name",
			a:     ToolCall{Name: "search", Arguments: map[string]any{"query": "go"}},
			b:     ToolCall{Name: "lookup", Arguments: map[string]any{"query": "go"}},
			equal: false,
		},
		{
			name:  "different args",
			a:     ToolCall{Name: "search", Arguments: map[string]any{"query": "go"}},
			b:     ToolCall{Name: "search", Arguments: map[string]any{"query": "rust"}},
			equal: false,
		},
		{
			name:  "numeric types from different decoders",
			a:     ToolCall{Name: "add", Arguments: map[string]any{"n": float64(2)}},
			b:     ToolCall{Name: "add", Arguments: map[string]any{"n": 2}},
			equal: true,
		},
		{
			name:  "nil vs empty args",
			a:     ToolCall{Name: "ping"},
			b:     ToolCall{Name: "ping", Arguments: map[string]any{}},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestSample_FieldPresence(t *testing.T) {
	s := Sample{UserInput: "  ", Response: "answer", Reference: ""}
	assert.False(t, s.HasUserInput())
	assert.True(t, s.HasResponse())
	assert.False(t, s.HasReference())
	assert.False(t, s.HasRetrievedContexts())
}

func TestSample_JoinedContexts(t *testing.T) {
	s := Sample{RetrievedContexts: []string{"first", "second"}}
	assert.Equal(t, "first\nsecond", s.JoinedContexts())
}

func TestSample_ObservedToolCalls(t *testing.T) {
	s := Sample{
		UserInputMessages: []Message{
			{Role: RoleHuman, Content: "what is the weather in Paris?"},
			{Role: RoleAI, Content: "", ToolCalls: []ToolCall{{Name: "weather", Arguments: map[string]any{"city": "Paris"}}}},
			{Role: RoleTool, Content: "18C, sunny"},
			{Role: RoleAI, Content: "It is 18C and sunny in Paris."},
		},
	}

	calls := s.ObservedToolCalls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "weather", calls[0].Name)
	assert.Len(t, s.AIMessages(), 2)
}
