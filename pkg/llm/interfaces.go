// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package llm defines the model-facing boundary of the evaluation engine:
// the chat and embedding client interfaces, the immutable model stores,
// the per-provider rate limiter, and the structured-response schema used
// to decode judge output.
//
// The engine never talks to a provider SDK directly; it goes through
// ChatClient and EmbeddingModel so any backend can be plugged in.
package llm

import "context"

// CompletionRequest is a single prompt sent to a chat model.
type CompletionRequest struct {
	// Prompt is the fully rendered prompt text.
	Prompt string

	// Schema describes the JSON structure the model must reply with.
	// Clients that support native structured output (OpenAI json_schema
	// response format) should pass it through; others may append the
	// schema to the prompt. May be nil for free-form replies.
	Schema *ResponseSchema
}

// ChatClient is the minimal chat capability the engine consumes.
//
// Complete returns the raw model reply. Structured decoding is done by the
// caller via ResponseSchema.Decode so deserialization failures stay
// distinguishable from transport failures.
type ChatClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EmbeddingModel is the minimal embedding capability the engine consumes.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
