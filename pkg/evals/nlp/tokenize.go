// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package nlp implements the purely computational metrics: BLEU, ROUGE,
// chrF and string similarity. They are deterministic functions of
// (response, reference) and involve no models; each also satisfies the
// single-turn metric surface so suites can mix them with judge metrics.
package nlp

import (
	"strings"
	"unicode"
)

// tokenize lowercases and splits on any non-letter, non-digit rune.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ngrams returns the order-n token n-grams of tokens, joined by a
// separator that cannot occur inside a token.
func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	if n <= 0 || len(tokens) < n {
		return counts
	}
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

// charNgrams returns the order-n character n-grams of s with whitespace
// removed, as chrF specifies.
func charNgrams(s string, n int) map[string]int {
	runes := make([]rune, 0, len(s))
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			runes = append(runes, r)
		}
	}
	counts := make(map[string]int)
	if n <= 0 || len(runes) < n {
		return counts
	}
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	return counts
}

// overlap sums the clipped common counts of two n-gram multisets.
func overlap(a, b map[string]int) int {
	total := 0
	for gram, countA := range a {
		if countB, ok := b[gram]; ok {
			total += min(countA, countB)
		}
	}
	return total
}

func total(counts map[string]int) int {
	sum := 0
	for _, c := range counts {
		sum += c
	}
	return sum
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
