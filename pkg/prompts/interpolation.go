// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package prompts provides template interpolation for metric prompts.
// Metrics never concatenate user content into prompt strings directly;
// they render a template with named holes instead.
package prompts

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var placeholderRe = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Interpolate performs variable substitution in a prompt template.
//
// Uses {{.variable_name}} syntax. Values are sanitized before insertion:
// null bytes and non-printable control characters are stripped and invalid
// UTF-8 is repaired. Newlines and tabs are preserved so multi-line values
// such as retrieved contexts survive intact.
//
// Placeholders without a matching variable are left in place.
//
// Example:
//
//	Interpolate("Question: {{.user_input}}", map[string]any{"user_input": q})
func Interpolate(template string, vars map[string]any) string {
	if vars == nil {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "{{."), "}}")
		value, ok := vars[name]
		if !ok {
			return match
		}
		return sanitizeValue(value)
	})
}

// sanitizeValue converts a value to its string form and sanitizes it.
func sanitizeValue(value any) string {
	switch v := value.(type) {
	case string:
		return sanitizeString(v)
	case []string:
		sanitized := make([]string, len(v))
		for i, s := range v {
			sanitized[i] = sanitizeString(s)
		}
		return strings.Join(sanitized, "\n")
	case int, int32, int64, float32, float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		return sanitizeString(fmt.Sprintf("%v", v))
	}
}

func sanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
