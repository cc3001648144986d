// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package types contains the shared evaluation data model.
// It is imported by both pkg/llm and pkg/evals and carries no dependencies
// of its own beyond the standard library.
package types

import (
	"encoding/json"
	"strings"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	// RoleHuman is a message authored by the end user.
	RoleHuman Role = "human"

	// RoleAI is a message authored by the model under evaluation.
	RoleAI Role = "ai"

	// RoleTool is the result of a tool execution fed back to the model.
	RoleTool Role = "tool"
)

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	// Name is the tool name.
	Name string `json:"name" yaml:"name"`

	// Arguments contains the tool parameters.
	Arguments map[string]any `json:"arguments" yaml:"arguments"`
}

// Equal reports whether two tool calls have the same name and the same
// argument map. Arguments are compared through their canonical JSON
// encoding so that numeric types produced by different decoders
// (int vs float64) compare equal.
func (t ToolCall) Equal(other ToolCall) bool {
	if t.Name != other.Name {
		return false
	}
	a, errA := json.Marshal(t.Arguments)
	b, errB := json.Marshal(other.Arguments)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// Message is a single turn in a multi-turn conversation.
type Message struct {
	// Role is the message sender (human, ai, tool).
	Role Role `json:"role" yaml:"role"`

	// Content is the message text.
	Content string `json:"content" yaml:"content"`

	// ToolCalls contains tool invocations (only meaningful when Role is ai).
	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
}

// Sample is the unit of evaluation. All fields are optional; each metric
// declares which fields it requires and returns 0 with a warning when a
// required field is missing.
//
// A Sample is owned by the caller and treated as immutable by the engine.
type Sample struct {
	// UserInput is the question or instruction given to the system under test.
	UserInput string `json:"user_input,omitempty" yaml:"user_input,omitempty"`

	// Response is the answer produced by the system under test.
	Response string `json:"response,omitempty" yaml:"response,omitempty"`

	// Reference is the ground-truth answer.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`

	// RetrievedContexts are the RAG contexts in retrieval rank order.
	RetrievedContexts []string `json:"retrieved_contexts,omitempty" yaml:"retrieved_contexts,omitempty"`

	// UserInputMessages is the conversation history for multi-turn samples.
	UserInputMessages []Message `json:"user_input_messages,omitempty" yaml:"user_input_messages,omitempty"`

	// ReferenceToolCalls is the expected tool-call sequence for agent samples.
	ReferenceToolCalls []ToolCall `json:"reference_tool_calls,omitempty" yaml:"reference_tool_calls,omitempty"`

	// ReferenceTopics are the allowed topics for topic-adherence samples.
	ReferenceTopics []string `json:"reference_topics,omitempty" yaml:"reference_topics,omitempty"`
}

// HasUserInput reports whether the sample carries a non-blank user input.
func (s Sample) HasUserInput() bool { return strings.TrimSpace(s.UserInput) != "" }

// HasResponse reports whether the sample carries a non-blank response.
func (s Sample) HasResponse() bool { return strings.TrimSpace(s.Response) != "" }

// HasReference reports whether the sample carries a non-blank reference.
func (s Sample) HasReference() bool { return strings.TrimSpace(s.Reference) != "" }

// HasRetrievedContexts reports whether at least one retrieved context is present.
func (s Sample) HasRetrievedContexts() bool { return len(s.RetrievedContexts) > 0 }

// JoinedContexts returns the retrieved contexts joined into one block,
// preserving retrieval order.
func (s Sample) JoinedContexts() string {
	return strings.Join(s.RetrievedContexts, "\n")
}

// AIMessages returns the AI turns of the conversation in order.
func (s Sample) AIMessages() []Message {
	out := make([]Message, 0, len(s.UserInputMessages))
	for _, m := range s.UserInputMessages {
		if m.Role == RoleAI {
			out = append(out, m)
		}
	}
	return out
}

// ObservedToolCalls returns every tool call made by AI turns, flattened in
// conversation order.
func (s Sample) ObservedToolCalls() []ToolCall {
	var out []ToolCall
	for _, m := range s.UserInputMessages {
		if m.Role == RoleAI {
			out = append(out, m.ToolCalls...)
		}
	}
	return out
}
