// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/skein/pkg/types"
)

// SuiteAPIVersion is the apiVersion every suite file must declare.
const SuiteAPIVersion = "skein/v1"

// Suite is a parsed evaluation suite: named samples plus the metrics to
// score them with.
type Suite struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	Metadata   SuiteMetadata `yaml:"metadata"`
	Spec       SuiteSpec     `yaml:"spec"`
}

// SuiteMetadata identifies the suite.
type SuiteMetadata struct {
	Name        string            `yaml:"name"`
	Version     string            `yaml:"version"`
	Description string            `yaml:"description"`
	Labels      map[string]string `yaml:"labels"`
}

// SuiteSpec lists the samples and the metric configurations.
type SuiteSpec struct {
	Samples []SuiteSample `yaml:"samples"`
	Metrics []MetricSpec  `yaml:"metrics"`
}

// SuiteSample is a sample with a name for reporting.
type SuiteSample struct {
	Name         string `yaml:"name"`
	types.Sample `yaml:",inline"`
}

// MetricSpec names a metric and carries its raw configuration block.
// The config is decoded lazily by the suite runner, which knows the
// concrete config type for each metric name.
type MetricSpec struct {
	Name   string    `yaml:"name"`
	Config yaml.Node `yaml:"config"`
}

// DecodeConfig unmarshals the metric's config block into out. A missing
// config block leaves out at its zero value.
func (s MetricSpec) DecodeConfig(out any) error {
	if s.Config.Kind == 0 {
		return nil
	}
	if err := s.Config.Decode(out); err != nil {
		return fmt.Errorf("invalid config for metric %s: %w", s.Name, err)
	}
	return nil
}

// LoadSuite loads an evaluation suite from a YAML file. Environment
// variables referenced as $VAR or ${VAR} are expanded before parsing, so
// suites can carry secrets and hostnames without hardcoding them.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file %s: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	var suite Suite
	if err := yaml.Unmarshal([]byte(expanded), &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite config: %w", err)
	}
	return &suite, nil
}

// validateSuite checks the structural invariants of a suite file.
func validateSuite(suite *Suite) error {
	if suite.APIVersion == "" {
		return fmt.Errorf("apiVersion is required")
	}
	if suite.APIVersion != SuiteAPIVersion {
		return fmt.Errorf("unsupported apiVersion: %s (expected: %s)", suite.APIVersion, SuiteAPIVersion)
	}
	if suite.Kind != "EvalSuite" {
		return fmt.Errorf("kind must be 'EvalSuite', got: %s", suite.Kind)
	}
	if suite.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if len(suite.Spec.Samples) == 0 {
		return fmt.Errorf("spec.samples must contain at least one sample")
	}
	if len(suite.Spec.Metrics) == 0 {
		return fmt.Errorf("spec.metrics must contain at least one metric")
	}

	for i, sample := range suite.Spec.Samples {
		if sample.Name == "" {
			return fmt.Errorf("samples[%d].name is required", i)
		}
	}
	seen := make(map[string]bool, len(suite.Spec.Metrics))
	for i, metric := range suite.Spec.Metrics {
		if metric.Name == "" {
			return fmt.Errorf("metrics[%d].name is required", i)
		}
		if seen[metric.Name] {
			return fmt.Errorf("metrics[%d]: duplicate metric %s", i, metric.Name)
		}
		seen[metric.Name] = true
	}
	return nil
}
