// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/skein/pkg/llm"
)

// stubChatClient replies with canned text, optionally failing or blocking
// until the context is cancelled.
type stubChatClient struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	calls   int
	prompts []string
}

func (s *stubChatClient) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubChatClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func newTestExecutor(clients map[string]llm.ChatClient) *Executor {
	return NewExecutor(ExecutorConfig{
		ChatStore: llm.NewChatClientStore(clients, nil, nil),
	})
}

func TestExecuteLLMPreservesInputOrder(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "alpha"},
		"model-b": &stubChatClient{reply: "beta"},
		"model-c": &stubChatClient{reply: "gamma"},
	})

	results, err := exec.ExecuteLLM(context.Background(), []string{"model-c", "model-a", "model-b"}, "prompt", nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "model-c", results[0].ModelID)
	assert.Equal(t, "gamma", results[0].Value)
	assert.Equal(t, "model-a", results[1].ModelID)
	assert.Equal(t, "alpha", results[1].Value)
	assert.Equal(t, "model-b", results[2].ModelID)
	assert.Equal(t, "beta", results[2].Value)
}

func TestExecuteLLMIsolatesFailures(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: "ok"},
		"model-b": &stubChatClient{err: fmt.Errorf("boom")},
		"model-c": &stubChatClient{reply: "ok"},
	})

	results, err := exec.ExecuteLLM(context.Background(), []string{"model-a", "model-b", "model-c"}, "prompt", nil)
	require.NoError(t, err)

	assert.True(t, results[0].IsSuccess())
	assert.False(t, results[1].IsSuccess())
	assert.ErrorContains(t, results[1].Err, "boom")
	assert.True(t, results[2].IsSuccess())
}

func TestExecuteLLMDecodesSchema(t *testing.T) {
	type verdict struct {
		Supported bool   `json:"supported" jsonschema:"required"`
		Reason    string `json:"reason"`
	}
	schema := llm.MustResponseSchema[verdict]("verdict")

	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{reply: `{"supported": true, "reason": "grounded"}`},
		"model-b": &stubChatClient{reply: `not json at all`},
	})

	results, err := exec.ExecuteLLM(context.Background(), []string{"model-a", "model-b"}, "prompt", schema)
	require.NoError(t, err)

	require.True(t, results[0].IsSuccess())
	decoded, ok := results[0].Value.(*verdict)
	require.True(t, ok)
	assert.True(t, decoded.Supported)

	require.False(t, results[1].IsSuccess())
	assert.ErrorContains(t, results[1].Err, "malformed llm output")
}

func TestExecuteLLMCancelledContextFailsAllModels(t *testing.T) {
	a := &stubChatClient{reply: "ok"}
	exec := newTestExecutor(map[string]llm.ChatClient{"model-a": a})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := exec.ExecuteLLM(ctx, []string{"model-a"}, "prompt", nil)
	require.NoError(t, err)
	require.False(t, results[0].IsSuccess())
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Equal(t, 0, a.callCount())
}

func TestExecuteLLMEmptyModelListIsError(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{})
	_, err := exec.ExecuteLLM(context.Background(), nil, "prompt", nil)
	require.Error(t, err)
}

func TestExecuteLLMRateLimitRejection(t *testing.T) {
	limiter := llm.NewRateLimiterRegistry(
		map[string]llm.ProviderLimit{
			"acme": {RequestsPerSecond: 1, Strategy: llm.StrategyReject},
		},
		map[string]string{"model-a": "acme", "model-b": "acme", "model-c": "acme"},
		nil,
	)
	exec := NewExecutor(ExecutorConfig{
		ChatStore: llm.NewChatClientStore(map[string]llm.ChatClient{
			"model-a": &stubChatClient{reply: "ok"},
			"model-b": &stubChatClient{reply: "ok"},
			"model-c": &stubChatClient{reply: "ok"},
		}, nil, nil),
		Limiter: limiter,
		Workers: 1,
	})

	results, err := exec.ExecuteLLM(context.Background(), []string{"model-a", "model-b", "model-c"}, "prompt", nil)
	require.NoError(t, err)

	rejected := 0
	for _, r := range results {
		if r.IsSuccess() {
			continue
		}
		assert.True(t, llm.IsRateLimitExceeded(r.Err))
		rejected++
	}
	assert.Equal(t, 2, rejected)
	assert.True(t, results[0].IsSuccess())
}

func TestExecuteEmbeddingOnModel(t *testing.T) {
	store := llm.NewEmbeddingModelStore(map[string]llm.EmbeddingModel{
		"embed-a": &stubEmbedder{vector: []float32{1, 0}},
		"embed-b": &stubEmbedder{err: fmt.Errorf("quota")},
	}, nil, nil)
	exec := NewExecutor(ExecutorConfig{
		ChatStore:      llm.NewChatClientStore(nil, nil, nil),
		EmbeddingStore: store,
	})

	ok := exec.ExecuteEmbeddingOnModel(context.Background(), "embed-a", "hello")
	require.True(t, ok.IsSuccess())
	assert.Equal(t, []float32{1, 0}, ok.Value)

	failed := exec.ExecuteEmbeddingOnModel(context.Background(), "embed-b", "hello")
	require.False(t, failed.IsSuccess())
	assert.ErrorContains(t, failed.Err, "quota")
}

func TestExecuteComputePreservesOrderAndFailures(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{})

	results, err := exec.ExecuteCompute([]string{"model-a", "model-b"}, func(modelID string) (any, error) {
		if modelID == "model-b" {
			return nil, fmt.Errorf("bad input")
		}
		return 0.5, nil
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0.5, results[0].Value)
	assert.ErrorContains(t, results[1].Err, "bad input")
}

func TestRunAsyncFutureCancel(t *testing.T) {
	exec := newTestExecutor(map[string]llm.ChatClient{
		"model-a": &stubChatClient{block: true},
	})

	future := exec.RunAsync(context.Background(), func(ctx context.Context) (float64, error) {
		results, err := exec.ExecuteLLM(ctx, []string{"model-a"}, "prompt", nil)
		if err != nil {
			return 0, err
		}
		if results[0].Err != nil {
			return 0, results[0].Err
		}
		return 1, nil
	})

	future.Cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	_, err := future.Wait(waitCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
