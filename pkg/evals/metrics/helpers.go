// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package metrics implements the LLM-judge, agent and embedding metrics
// on top of the pkg/evals execution engine. Each metric drives a fixed
// multi-step pipeline; per-model failures exclude that model, and the
// surviving per-model scores are folded by the configured aggregation
// strategy.
package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/teradata-labs/skein/pkg/types"
)

// numberedList renders items as "1. ...\n2. ..." for prompt embedding.
func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// formatConversation renders a multi-turn conversation for a prompt,
// one line per turn, tool calls inlined.
func formatConversation(messages []types.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
		for _, tc := range m.ToolCalls {
			fmt.Fprintf(&b, " [tool call: %s]", tc.Name)
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// averagePrecision computes AP over a ranked relevance vector:
// the mean of precision@k over the relevant ranks. 0 when nothing is
// relevant.
func averagePrecision(relevant []bool) float64 {
	hits := 0
	sum := 0.0
	for k, r := range relevant {
		if !r {
			continue
		}
		hits++
		sum += float64(hits) / float64(k+1)
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}

// cosineSimilarity of two vectors; 0 for zero vectors or mismatched
// lengths.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeEntity lowercases and trims an entity for set comparison.
func normalizeEntity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
