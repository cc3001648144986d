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

func entitySample() types.Sample {
	return types.Sample{
		Reference:         "Paris is the capital of France.",
		RetrievedContexts: []string{"Paris, France's capital, sits on the Seine."},
	}
}

func TestContextEntityRecallCaseInsensitive(t *testing.T) {
	metric := NewContextEntityRecall(singleJudge(
		`{"entities": ["PARIS", "france"]}`,
		`{"entities": ["paris", "FRANCE"]}`,
	))
	score, err := metric.SingleTurnScore(context.Background(), entitySample())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestContextEntityRecallPartialOverlap(t *testing.T) {
	metric := NewContextEntityRecall(singleJudge(
		`{"entities": ["Paris", "France", "Seine", "Europe"]}`,
		`{"entities": ["Paris", "Seine"]}`,
	))
	score, err := metric.SingleTurnScore(context.Background(), entitySample())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestContextEntityRecallEmptyReferenceEntities(t *testing.T) {
	metric := NewContextEntityRecall(singleJudge(
		`{"entities": []}`,
		`{"entities": ["Paris"]}`,
	))
	score, err := metric.SingleTurnScore(context.Background(), entitySample())
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestContextEntityRecallMissingReferenceReturnsZero(t *testing.T) {
	metric := NewContextEntityRecall(singleJudge(`{"entities": ["Paris"]}`))
	score, err := metric.SingleTurnScore(context.Background(), types.Sample{
		RetrievedContexts: []string{"ctx"},
	})
	require.NoError(t, err)
	assert.Zero(t, score)
}
