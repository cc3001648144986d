// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Strategy selects the behavior when a provider bucket is empty.
type Strategy string

const (
	// StrategyWait blocks until a token refills (bounded by Timeout when
	// Timeout > 0, otherwise indefinitely except for caller cancellation).
	StrategyWait Strategy = "wait"

	// StrategyReject fails immediately with RateLimitExceededError.
	StrategyReject Strategy = "reject"
)

// ProviderLimit configures rate limiting for one provider. All models
// registered to the provider share a single bucket.
type ProviderLimit struct {
	// RequestsPerSecond is the refill rate and bucket capacity. Must be >= 1.
	RequestsPerSecond int

	// Strategy is wait or reject. Defaults to wait.
	Strategy Strategy

	// Timeout bounds a wait-strategy acquisition. Zero means wait
	// indefinitely (until the caller's context is cancelled).
	Timeout time.Duration
}

// RateLimiterRegistry holds one token bucket per provider, shared across
// all models of that provider. Buckets live for the registry's lifetime.
//
// Thread-safe: the bucket map is fixed at construction, only bucket
// arithmetic is guarded by each bucket's mutex.
type RateLimiterRegistry struct {
	buckets map[string]*tokenBucket
	models  map[string]string
	logger  *zap.Logger
}

// NewRateLimiterRegistry creates a registry from per-provider limits and a
// modelID to provider mapping. Models absent from the mapping are never
// rate limited.
func NewRateLimiterRegistry(limits map[string]ProviderLimit, models map[string]string, logger *zap.Logger) *RateLimiterRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	buckets := make(map[string]*tokenBucket, len(limits))
	for provider, limit := range limits {
		rps := limit.RequestsPerSecond
		if rps < 1 {
			rps = 1
		}
		strategy := limit.Strategy
		if strategy == "" {
			strategy = StrategyWait
		}
		buckets[provider] = &tokenBucket{
			tokens:     float64(rps),
			maxTokens:  float64(rps),
			refillRate: float64(rps),
			lastRefill: time.Now(),
			strategy:   strategy,
			timeout:    limit.Timeout,
		}
	}

	ms := make(map[string]string, len(models))
	for id, p := range models {
		ms[id] = p
	}

	return &RateLimiterRegistry{buckets: buckets, models: ms, logger: logger}
}

// Acquire consumes one token from the bucket of modelID's provider.
//
// Models without a provider mapping (or providers without a configured
// limit) pass through immediately. On an empty bucket the provider's
// strategy decides: reject fails at once, wait blocks until refill, the
// configured timeout, or caller cancellation, whichever comes first.
func (r *RateLimiterRegistry) Acquire(ctx context.Context, modelID string) error {
	provider, ok := r.models[modelID]
	if !ok {
		return nil
	}
	bucket, ok := r.buckets[provider]
	if !ok {
		return nil
	}

	if bucket.tryAcquire() {
		return nil
	}

	if bucket.strategy == StrategyReject {
		r.logger.Debug("rate limit rejected",
			zap.String("model_id", modelID),
			zap.String("provider", provider),
		)
		return &RateLimitExceededError{ModelID: modelID, Provider: provider, Reason: ReasonRejected}
	}

	return r.waitAcquire(ctx, bucket, modelID, provider)
}

// waitAcquire blocks until a token is available, the bucket timeout
// expires, or ctx is cancelled.
func (r *RateLimiterRegistry) waitAcquire(ctx context.Context, bucket *tokenBucket, modelID, provider string) error {
	var deadline <-chan time.Time
	if bucket.timeout > 0 {
		timer := time.NewTimer(bucket.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		wait := bucket.nextTokenDelay()
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			if bucket.tryAcquire() {
				return nil
			}
		case <-deadline:
			timer.Stop()
			r.logger.Warn("rate limit acquisition timed out",
				zap.String("model_id", modelID),
				zap.String("provider", provider),
				zap.Duration("timeout", bucket.timeout),
			)
			return &RateLimitExceededError{ModelID: modelID, Provider: provider, Reason: ReasonTimeout}
		case <-ctx.Done():
			timer.Stop()
			return &RateLimitExceededError{ModelID: modelID, Provider: provider, Reason: ReasonInterrupted}
		}
	}
}

// tokenBucket implements continuous-refill token bucket arithmetic.
// Capacity and refill rate both equal the provider's requests per second,
// so refill is spread evenly over each second.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	strategy   Strategy
	timeout    time.Duration
}

func (b *tokenBucket) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.maxTokens, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// nextTokenDelay estimates how long until one full token has refilled.
func (b *tokenBucket) nextTokenDelay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	missing := 1.0 - b.tokens
	if missing <= 0 {
		return time.Millisecond
	}
	d := time.Duration(missing / b.refillRate * float64(time.Second))
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
