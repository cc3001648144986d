// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/evals/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run <suite-file>",
	Short: "Run an evaluation suite",
	Long: `Run an evaluation suite against the configured models.

The suite file must be a valid EvalSuite YAML file (kind: EvalSuite).
Every sample in the suite is scored with every configured metric; judge
metrics fan out to all configured models and aggregate the per-model
scores.

Examples:
  skein run examples/rag-quality.yaml
  skein run --config skein.yaml suite.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSuite,
}

var validateCmd = &cobra.Command{
	Use:   "validate <suite-file>",
	Short: "Validate a suite file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suite, err := evals.LoadSuite(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Suite %s is valid (%d samples, %d metrics)\n",
			suite.Metadata.Name, len(suite.Spec.Samples), len(suite.Spec.Metrics))
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the available metrics",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range metrics.MetricNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(metricsCmd)

	runCmd.Flags().Duration("timeout", 0, "overall suite timeout (0 = none)")
	runCmd.Flags().Bool("verbose", false, "log every pipeline step and model exclusion")
}

func runSuite(cmd *cobra.Command, args []string) error {
	suite, err := evals.LoadSuite(args[0])
	if err != nil {
		return err
	}

	logger, err := config.BuildLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	executor, err := config.BuildExecutor(logger)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		executor.AddListener(evals.NewLoggingListener(logger), 100)
	}

	ctx := cmd.Context()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Running suite %s: %d samples x %d metrics on %d models\n\n",
		suite.Metadata.Name, len(suite.Spec.Samples), len(suite.Spec.Metrics), len(config.Models))

	start := time.Now()
	result, err := metrics.NewSuiteRunner(executor, logger).Run(ctx, suite)
	if err != nil {
		return err
	}

	formatSuiteResult(cmd.OutOrStdout(), result, time.Since(start))

	if len(result.Failed()) > 0 {
		os.Exit(1)
	}
	return nil
}

// formatSuiteResult renders the per-sample scores and the per-metric
// averages.
func formatSuiteResult(w io.Writer, result *metrics.SuiteResult, duration time.Duration) {
	fmt.Fprintln(w, "===========================================================")
	fmt.Fprintf(w, "SUITE: %s\n", result.SuiteName)
	fmt.Fprintln(w, "===========================================================")

	var currentSample string
	for _, s := range result.Scores {
		if s.SampleName != currentSample {
			currentSample = s.SampleName
			fmt.Fprintf(w, "\nSample: %s\n", currentSample)
		}
		if s.Err != nil {
			fmt.Fprintf(w, "  ✗ %-24s error: %v\n", s.MetricName, s.Err)
			continue
		}
		fmt.Fprintf(w, "  ✓ %-24s %.4f (%.2fs)\n", s.MetricName, s.Score, s.Duration.Seconds())
	}

	averages := result.MetricAverages()
	names := make([]string, 0, len(averages))
	for name := range averages {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nMetric averages:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-26s %.4f\n", name, averages[name])
	}

	failed := result.Failed()
	fmt.Fprintf(w, "\nScored %d, failed %d, duration %.2fs\n",
		len(result.Scores)-len(failed), len(failed), duration.Seconds())
}
