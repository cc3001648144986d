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
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/llm"
)

func parseSuite(t *testing.T, content string) *evals.Suite {
	t.Helper()
	var suite evals.Suite
	require.NoError(t, yaml.Unmarshal([]byte(content), &suite))
	return &suite
}

func TestSuiteRunnerRunsAllMetricsOnAllSamples(t *testing.T) {
	executor := singleJudge(`{"verdict": 1, "reason": "clean"}`)
	runner := NewSuiteRunner(executor, nil)

	suite := parseSuite(t, `
metadata:
  name: mixed
spec:
  samples:
    - name: s1
      user_input: where did the cat sit?
      response: the cat sat
      reference: the cat sat
    - name: s2
      user_input: recite the greek alphabet
      response: alpha beta
      reference: one two
  metrics:
    - name: aspect_critic
      config:
        definition: Is the answer polite?
    - name: rouge_score
      config:
        variant: rouge1
`)

	result, err := runner.Run(context.Background(), suite)
	require.NoError(t, err)

	assert.Equal(t, "mixed", result.SuiteName)
	require.Len(t, result.Scores, 4)
	assert.Empty(t, result.Failed())

	byKey := make(map[string]float64)
	for _, s := range result.Scores {
		byKey[s.SampleName+"/"+s.MetricName] = s.Score
	}
	assert.InDelta(t, 1.0, byKey["s1/aspect_critic"], 1e-9)
	assert.InDelta(t, 1.0, byKey["s1/rouge_score"], 1e-9)
	assert.InDelta(t, 1.0, byKey["s2/aspect_critic"], 1e-9)
	assert.Zero(t, byKey["s2/rouge_score"])

	averages := result.MetricAverages()
	assert.InDelta(t, 1.0, averages["aspect_critic"], 1e-9)
	assert.InDelta(t, 0.5, averages["rouge_score"], 1e-9)
}

func TestSuiteRunnerUnknownMetric(t *testing.T) {
	runner := NewSuiteRunner(singleJudge("{}"), nil)

	suite := parseSuite(t, `
metadata:
  name: bad
spec:
  samples:
    - name: s1
      response: hi
  metrics:
    - name: does_not_exist
`)

	_, err := runner.Run(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric: does_not_exist")
}

func TestSuiteRunnerInvalidConfigFailsBeforeScoring(t *testing.T) {
	client := &scriptedClient{replies: []string{"{}"}}
	runner := NewSuiteRunner(newJudgeExecutor(map[string]llm.ChatClient{"judge": client}), nil)

	suite := parseSuite(t, `
metadata:
  name: bad-config
spec:
  samples:
    - name: s1
      response: hi
  metrics:
    - name: aspect_critic
      config:
        strictness: not-a-number
`)

	_, err := runner.Run(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config for metric aspect_critic")
	assert.Zero(t, client.callCount())
}

func TestSuiteRunnerRecordsMetricErrors(t *testing.T) {
	// Aspect critic requires a definition; the bound scorer returns the
	// error per sample instead of aborting the suite.
	runner := NewSuiteRunner(singleJudge(`{"verdict": 1, "reason": "ok"}`), nil)

	suite := parseSuite(t, `
metadata:
  name: partial
spec:
  samples:
    - name: s1
      user_input: where did the cat sit?
      response: the cat sat
      reference: the cat sat
  metrics:
    - name: aspect_critic
    - name: bleu_score
`)

	result, err := runner.Run(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Scores, 2)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "aspect_critic", failed[0].MetricName)

	averages := result.MetricAverages()
	_, hasCritic := averages["aspect_critic"]
	assert.False(t, hasCritic)
	assert.InDelta(t, 1.0, averages["bleu_score"], 1e-9)
}

func TestMetricNamesCoverRunnerBindings(t *testing.T) {
	runner := NewSuiteRunner(singleJudge("{}"), nil)
	for _, name := range MetricNames() {
		_, err := runner.bind(evals.MetricSpec{Name: name})
		assert.NoError(t, err, name)
	}
}
