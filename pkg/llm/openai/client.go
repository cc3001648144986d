// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package openai adapts any OpenAI-compatible endpoint to the engine's
// ChatClient and EmbeddingModel interfaces.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/teradata-labs/skein/pkg/llm"
)

// Default client configuration values.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.0
)

// Config holds configuration for an OpenAI-compatible client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string        // Optional: override for compatible endpoints
	Timeout     time.Duration // Default: 60s
	MaxTokens   int           // Default: 4096
	Temperature float32       // Default: 0 (judges should be deterministic)
}

// Client implements llm.ChatClient and llm.EmbeddingModel over the
// OpenAI chat-completions and embeddings APIs.
type Client struct {
	api         *goopenai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewClient creates a client for the configured model.
func NewClient(config Config) *Client {
	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		api:         goopenai.NewClientWithConfig(clientConfig),
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
	}
}

// Complete sends the prompt as a single user message. When a response
// schema is present the request asks for JSON output and the schema is
// appended to the prompt, which works across OpenAI-compatible endpoints
// that lack native json_schema support.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	prompt := req.Prompt
	chatReq := goopenai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	if req.Schema != nil {
		prompt = fmt.Sprintf("%s\n\nReply with a single JSON object matching this JSON schema:\n%s", prompt, req.Schema.JSON())
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	chatReq.Messages = []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleUser, Content: prompt},
	}

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion failed for model %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion for model %s returned no choices", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed generates an embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed for model %s: %w", c.model, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding for model %s returned no data", c.model)
	}
	return resp.Data[0].Embedding, nil
}

var (
	_ llm.ChatClient     = (*Client)(nil)
	_ llm.EmbeddingModel = (*Client)(nil)
)
