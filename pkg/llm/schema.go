// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ResponseSchema describes the JSON structure a judge model must reply
// with. It is generated once per response type from a Go struct (field
// docstrings come from jsonschema struct tags) and reused across calls.
//
// Decode validates the raw model reply against the schema before
// unmarshalling, so malformed output fails with a deserialization error
// rather than producing a half-filled value.
type ResponseSchema struct {
	name      string
	schemaDoc []byte
	compiled  *gojsonschema.Schema
	newValue  func() any
}

// NewResponseSchema builds a ResponseSchema for the response type T.
func NewResponseSchema[T any](name string) (*ResponseSchema, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	var proto T
	doc, err := json.Marshal(reflector.Reflect(&proto))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema for %s: %w", name, err)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", name, err)
	}

	return &ResponseSchema{
		name:      name,
		schemaDoc: doc,
		compiled:  compiled,
		newValue:  func() any { return new(T) },
	}, nil
}

// MustResponseSchema is NewResponseSchema that panics on error. Metric
// response types are fixed structs, so a failure here is a programmer bug
// caught at package init.
func MustResponseSchema[T any](name string) *ResponseSchema {
	s, err := NewResponseSchema[T](name)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name (used for structured-output response
// formats and logging).
func (s *ResponseSchema) Name() string { return s.name }

// JSON returns the JSON schema document.
func (s *ResponseSchema) JSON() string { return string(s.schemaDoc) }

// Decode validates raw against the schema and unmarshals it into a fresh
// instance of the response type. Markdown code fences and surrounding
// prose are tolerated; only the outermost JSON object is considered.
func (s *ResponseSchema) Decode(raw string) (any, error) {
	doc := extractJSONObject(raw)
	if doc == "" {
		return nil, fmt.Errorf("no JSON object found in %s response", s.name)
	}

	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in %s response: %w", s.name, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%s response does not match schema: %s", s.name, strings.Join(details, "; "))
	}

	value := s.newValue()
	if err := json.Unmarshal([]byte(doc), value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", s.name, err)
	}
	return value, nil
}

// extractJSONObject returns the substring from the first '{' through the
// last '}', stripping code fences and any prose the model wrapped around
// the object. Returns "" when no object delimiters are present.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
