// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teradata-labs/skein/pkg/llm"
)

// DefaultWorkers bounds per-step parallelism when no worker count is
// configured.
const DefaultWorkers = 8

// ExecutorConfig configures the multi-model executor.
type ExecutorConfig struct {
	// ChatStore resolves chat model IDs to clients. Required.
	ChatStore *llm.ChatClientStore

	// EmbeddingStore resolves embedding model IDs to models. Required
	// only for metrics that embed.
	EmbeddingStore *llm.EmbeddingModelStore

	// Limiter enforces per-provider rate limits. Optional; nil disables
	// rate limiting.
	Limiter *llm.RateLimiterRegistry

	// Workers bounds the number of concurrent model calls per step.
	// Default: DefaultWorkers.
	Workers int

	// Logger for executor events. Default: no-op.
	Logger *zap.Logger
}

// Executor fans evaluation steps out to a configurable set of models.
//
// Within one step the per-model calls run concurrently, bounded by the
// worker limit and by each provider's rate-limit bucket. Per-model
// failures are captured inside ModelResult; the Execute* methods return
// an error only for caller bugs (an empty model list).
//
// Safe for concurrent use: evaluations running in parallel share the
// executor but each one gets its own Notifier.
type Executor struct {
	chatStore  *llm.ChatClientStore
	embedStore *llm.EmbeddingModelStore
	limiter    *llm.RateLimiterRegistry
	workers    int
	logger     *zap.Logger

	mu        sync.Mutex
	listeners []registeredListener
}

// NewExecutor creates an executor over the given stores.
func NewExecutor(config ExecutorConfig) *Executor {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Executor{
		chatStore:  config.ChatStore,
		embedStore: config.EmbeddingStore,
		limiter:    config.Limiter,
		workers:    config.Workers,
		logger:     config.Logger,
	}
}

// AddListener registers a lifecycle listener. Lower priority runs first.
// Listeners registered before an evaluation starts are snapshotted into
// that evaluation's notifier.
func (e *Executor) AddListener(listener ModelExecutionListener, priority int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, registeredListener{listener: listener, priority: priority})
}

// newNotifier snapshots the registered listeners, sorted by priority,
// into a fresh per-evaluation notifier.
func (e *Executor) newNotifier() *Notifier {
	e.mu.Lock()
	snapshot := append([]registeredListener(nil), e.listeners...)
	e.mu.Unlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].priority < snapshot[j].priority
	})
	return newNotifier(snapshot, e.logger)
}

// ModelIDs returns all chat model IDs configured on the executor.
func (e *Executor) ModelIDs() []string {
	return e.chatStore.ModelIDs()
}

// EmbeddingModelIDs returns all embedding model IDs configured on the
// executor, or nil when no embedding store is set.
func (e *Executor) EmbeddingModelIDs() []string {
	if e.embedStore == nil {
		return nil
	}
	return e.embedStore.ModelIDs()
}

// ExecuteLLM runs the prompt against every model in modelIDs in parallel
// and decodes each reply with schema. The returned slice preserves the
// input order. Per-model failures (rate-limit rejection, transport
// errors, malformed output) are values inside the results, never errors.
func (e *Executor) ExecuteLLM(ctx context.Context, modelIDs []string, prompt string, schema *llm.ResponseSchema) ([]ModelResult, error) {
	if len(modelIDs) == 0 {
		return nil, fmt.Errorf("executeLLM requires at least one model")
	}

	results := make([]ModelResult, len(modelIDs))
	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, modelID := range modelIDs {
		i, modelID := i, modelID
		g.Go(func() error {
			results[i] = e.callLLM(ctx, modelID, prompt, schema)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// ExecuteLLMPerModel is ExecuteLLM with a distinct prompt per model,
// used by pipeline steps whose prompt embeds that model's own previous
// output. A model without an entry in promptsByModel fails with an
// error result.
func (e *Executor) ExecuteLLMPerModel(ctx context.Context, modelIDs []string, promptsByModel map[string]string, schema *llm.ResponseSchema) ([]ModelResult, error) {
	if len(modelIDs) == 0 {
		return nil, fmt.Errorf("executeLLMPerModel requires at least one model")
	}

	results := make([]ModelResult, len(modelIDs))
	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, modelID := range modelIDs {
		i, modelID := i, modelID
		g.Go(func() error {
			prompt, ok := promptsByModel[modelID]
			if !ok {
				results[i] = failureResult(modelID, fmt.Errorf("no prompt prepared for model %s", modelID), "", 0)
				return nil
			}
			results[i] = e.callLLM(ctx, modelID, prompt, schema)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// ExecuteLLMOnModel is the single-model variant of ExecuteLLM.
func (e *Executor) ExecuteLLMOnModel(ctx context.Context, modelID, prompt string, schema *llm.ResponseSchema) ModelResult {
	return e.callLLM(ctx, modelID, prompt, schema)
}

func (e *Executor) callLLM(ctx context.Context, modelID, prompt string, schema *llm.ResponseSchema) ModelResult {
	start := time.Now()

	// Cancellation must prevent new calls from starting.
	if err := ctx.Err(); err != nil {
		return failureResult(modelID, err, prompt, time.Since(start))
	}

	if e.limiter != nil {
		if err := e.limiter.Acquire(ctx, modelID); err != nil {
			return failureResult(modelID, err, prompt, time.Since(start))
		}
	}

	client := e.chatStore.Get(modelID)
	if client == nil {
		return failureResult(modelID, fmt.Errorf("no chat client for model %s", modelID), prompt, time.Since(start))
	}

	raw, err := client.Complete(ctx, llm.CompletionRequest{Prompt: prompt, Schema: schema})
	if err != nil {
		return failureResult(modelID, fmt.Errorf("llm call failed: %w", err), prompt, time.Since(start))
	}

	if schema == nil {
		return successResult(modelID, raw, prompt, time.Since(start))
	}

	value, err := schema.Decode(raw)
	if err != nil {
		return failureResult(modelID, fmt.Errorf("malformed llm output: %w", err), prompt, time.Since(start))
	}
	return successResult(modelID, value, prompt, time.Since(start))
}

// ExecuteEmbeddingOnModel embeds the text on one embedding model,
// following the same acquire-then-call-then-wrap shape as LLM calls.
// The success value is a []float32.
func (e *Executor) ExecuteEmbeddingOnModel(ctx context.Context, modelID, text string) ModelResult {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return failureResult(modelID, err, text, time.Since(start))
	}

	if e.limiter != nil {
		if err := e.limiter.Acquire(ctx, modelID); err != nil {
			return failureResult(modelID, err, text, time.Since(start))
		}
	}

	if e.embedStore == nil {
		return failureResult(modelID, fmt.Errorf("no embedding store configured"), text, time.Since(start))
	}
	model := e.embedStore.Get(modelID)
	if model == nil {
		return failureResult(modelID, fmt.Errorf("no embedding model for %s", modelID), text, time.Since(start))
	}

	vector, err := model.Embed(ctx, text)
	if err != nil {
		return failureResult(modelID, fmt.Errorf("embedding call failed: %w", err), text, time.Since(start))
	}
	return successResult(modelID, vector, text, time.Since(start))
}

// ExecuteCompute runs a pure in-process computation per model. No rate
// limiting is applied. The returned slice preserves the input order.
func (e *Executor) ExecuteCompute(modelIDs []string, fn func(modelID string) (any, error)) ([]ModelResult, error) {
	if len(modelIDs) == 0 {
		return nil, fmt.Errorf("executeCompute requires at least one model")
	}

	results := make([]ModelResult, len(modelIDs))
	for i, modelID := range modelIDs {
		start := time.Now()
		value, err := fn(modelID)
		if err != nil {
			results[i] = failureResult(modelID, err, "", time.Since(start))
			continue
		}
		results[i] = successResult(modelID, value, "", time.Since(start))
	}
	return results, nil
}

// RunAsync schedules fn on a new goroutine so the caller's goroutine is
// never blocked by an async scoring entry point. The returned future is
// cancellable; see ScoreFuture.
func (e *Executor) RunAsync(ctx context.Context, fn func(ctx context.Context) (float64, error)) *ScoreFuture {
	return newScoreFuture(ctx, fn)
}
