// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/llm"
	"github.com/teradata-labs/skein/pkg/types"
)

// scriptedClient replies with a fixed sequence, one reply per call.
// The last reply repeats once the script is exhausted.
type scriptedClient struct {
	mu      sync.Mutex
	replies []string
	next    int
	prompts []string
}

func (s *scriptedClient) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if len(s.replies) == 0 {
		return "", fmt.Errorf("scripted client has no replies")
	}
	reply := s.replies[min(s.next, len(s.replies)-1)]
	s.next++
	return reply, nil
}

func (s *scriptedClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// fixedEmbedder returns a canned vector per input text.
type fixedEmbedder struct {
	byText map[string][]float32
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := f.byText[text]
	if !ok {
		return nil, fmt.Errorf("no embedding for %q", text)
	}
	return v, nil
}

func newJudgeExecutor(clients map[string]llm.ChatClient) *evals.Executor {
	return evals.NewExecutor(evals.ExecutorConfig{
		ChatStore: llm.NewChatClientStore(clients, nil, nil),
	})
}

func singleJudge(replies ...string) *evals.Executor {
	return newJudgeExecutor(map[string]llm.ChatClient{
		"judge": &scriptedClient{replies: replies},
	})
}

func ragSample() types.Sample {
	return types.Sample{
		UserInput: "What is Java?",
		Response:  "Java is a programming language created by Sun Microsystems.",
		Reference: "Java is a programming language. Java was created by Sun Microsystems.",
		RetrievedContexts: []string{
			"Java is a high-level language.",
			"Sun Microsystems created Java.",
		},
	}
}

func TestFaithfulnessScores(t *testing.T) {
	statements := `{"statements": ["Java is a programming language.", "Java was created by Sun Microsystems."]}`

	tests := []struct {
		name     string
		verdicts string
		want     float64
	}{
		{
			name: "half supported",
			verdicts: `{"verdicts": [
				{"statement": "s1", "reason": "in context", "verdict": 1},
				{"statement": "s2", "reason": "not in context", "verdict": 0}]}`,
			want: 0.5,
		},
		{
			name: "all supported",
			verdicts: `{"verdicts": [
				{"statement": "s1", "reason": "ok", "verdict": 1},
				{"statement": "s2", "reason": "ok", "verdict": 1}]}`,
			want: 1.0,
		},
		{
			name: "none supported",
			verdicts: `{"verdicts": [
				{"statement": "s1", "reason": "no", "verdict": 0},
				{"statement": "s2", "reason": "no", "verdict": 0}]}`,
			want: 0.0,
		},
		{
			name:     "no verdicts",
			verdicts: `{"verdicts": []}`,
			want:     0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metric := NewFaithfulness(singleJudge(statements, tt.verdicts))
			score, err := metric.SingleTurnScore(context.Background(), ragSample())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, score, 1e-9)
		})
	}
}

func TestFaithfulnessMissingInputReturnsZero(t *testing.T) {
	metric := NewFaithfulness(singleJudge(`{"statements": []}`))
	score, err := metric.SingleTurnScore(context.Background(), types.Sample{UserInput: "question only"})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestContextRecallHappyPath(t *testing.T) {
	classifications := `{"classifications": [
		{"statement": "Java is a programming language.", "reason": "first context", "attributed": 1},
		{"statement": "Java was created by Sun Microsystems.", "reason": "second context", "attributed": 1}]}`

	metric := NewContextRecall(singleJudge(classifications))
	score, err := metric.SingleTurnScore(context.Background(), ragSample())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestContextRecallPartialAttribution(t *testing.T) {
	classifications := `{"classifications": [
		{"statement": "s1", "reason": "found", "attributed": 1},
		{"statement": "s2", "reason": "missing", "attributed": 0}]}`

	metric := NewContextRecall(singleJudge(classifications))
	score, err := metric.SingleTurnScore(context.Background(), ragSample())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestContextRecallNoReferenceReturnsZero(t *testing.T) {
	sample := ragSample()
	sample.Reference = ""

	metric := NewContextRecall(singleJudge(`{"classifications": []}`))
	score, err := metric.SingleTurnScore(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestDeterministicScoresWithStubbedJudge(t *testing.T) {
	classifications := `{"classifications": [
		{"statement": "s1", "reason": "r", "attributed": 1},
		{"statement": "s2", "reason": "r", "attributed": 0}]}`

	var scores []float64
	for i := 0; i < 3; i++ {
		metric := NewContextRecall(singleJudge(classifications))
		score, err := metric.SingleTurnScore(context.Background(), ragSample())
		require.NoError(t, err)
		scores = append(scores, score)
	}
	assert.Equal(t, scores[0], scores[1])
	assert.Equal(t, scores[1], scores[2])
}

func TestMultiModelAggregation(t *testing.T) {
	lenient := `{"classifications": [
		{"statement": "s1", "reason": "r", "attributed": 1},
		{"statement": "s2", "reason": "r", "attributed": 1}]}`
	strict := `{"classifications": [
		{"statement": "s1", "reason": "r", "attributed": 1},
		{"statement": "s2", "reason": "r", "attributed": 0}]}`

	exec := newJudgeExecutor(map[string]llm.ChatClient{
		"judge-a": &scriptedClient{replies: []string{lenient}},
		"judge-b": &scriptedClient{replies: []string{strict}},
	})

	metric := NewContextRecall(exec)
	score, err := metric.SingleTurnScore(context.Background(), ragSample())
	require.NoError(t, err)
	assert.InDelta(t, 0.75, score, 1e-9)

	minScore, err := metric.Score(context.Background(), ContextRecallConfig{
		CommonConfig: evals.CommonConfig{Aggregation: evals.AggregationMin},
	}, ragSample())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, minScore, 1e-9)
}

func TestRateLimitFanInExcludesOneSharedProviderModel(t *testing.T) {
	limiter := llm.NewRateLimiterRegistry(
		map[string]llm.ProviderLimit{
			"shared": {RequestsPerSecond: 1, Strategy: llm.StrategyReject},
		},
		map[string]string{"judge-a": "shared", "judge-b": "shared"},
		nil,
	)
	reply := `{"verdict": 1, "reason": "ok"}`
	exec := evals.NewExecutor(evals.ExecutorConfig{
		ChatStore: llm.NewChatClientStore(map[string]llm.ChatClient{
			"judge-a": &scriptedClient{replies: []string{reply}},
			"judge-b": &scriptedClient{replies: []string{reply}},
			"judge-c": &scriptedClient{replies: []string{reply}},
		}, nil, nil),
		Limiter: limiter,
	})
	collector := evals.NewCollectingListener()
	exec.AddListener(collector, 0)

	metric := NewAspectCritic(exec)
	score, err := metric.Score(context.Background(), AspectCriticConfig{Definition: "Is the answer concise?"},
		types.Sample{UserInput: "q", Response: "a"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	results := collector.Results()
	require.Len(t, results, 1)
	require.Len(t, results[0].ExcludedModels, 1)
	excluded := results[0].ExcludedModels[0]
	assert.Contains(t, []string{"judge-a", "judge-b"}, excluded)
	assert.NotContains(t, results[0].ExcludedModels, "judge-c")

	exclusions := collector.Exclusions()
	require.Len(t, exclusions, 1)
	assert.True(t, llm.IsRateLimitExceeded(exclusions[0].Cause))
}
