// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package evals

import (
	"go.uber.org/zap"
)

// Notifier fans lifecycle events out to the listeners registered on the
// executor. One Notifier is created per evaluation and never shared, so
// the step and exclusion accumulators need no locking: they are written
// by the pipeline driver goroutine only.
type Notifier struct {
	listeners  []registeredListener
	logger     *zap.Logger
	steps      []StepResults
	exclusions []ModelExclusionEvent
}

func newNotifier(listeners []registeredListener, logger *zap.Logger) *Notifier {
	return &Notifier{listeners: listeners, logger: logger}
}

// Steps returns the steps recorded so far, in order.
func (n *Notifier) Steps() []StepResults { return n.steps }

// Exclusions returns the exclusion events recorded so far, in order.
func (n *Notifier) Exclusions() []ModelExclusionEvent { return n.exclusions }

func (n *Notifier) beforeMetricEvaluation(ctx MetricEvaluationContext) {
	n.dispatch("BeforeMetricEvaluation", func(l ModelExecutionListener) {
		l.BeforeMetricEvaluation(ctx)
	})
}

func (n *Notifier) beforeStep(stepName string, stepIndex, totalSteps int) {
	n.dispatch("BeforeStep", func(l ModelExecutionListener) {
		l.BeforeStep(stepName, stepIndex, totalSteps)
	})
}

func (n *Notifier) afterLLMStep(step StepResults) {
	n.steps = append(n.steps, step)
	n.dispatch("AfterLLMStep", func(l ModelExecutionListener) {
		l.AfterLLMStep(step)
	})
}

func (n *Notifier) afterComputeStep(step StepResults) {
	n.steps = append(n.steps, step)
	n.dispatch("AfterComputeStep", func(l ModelExecutionListener) {
		l.AfterComputeStep(step)
	})
}

func (n *Notifier) onModelExcluded(event ModelExclusionEvent) {
	n.exclusions = append(n.exclusions, event)
	n.dispatch("OnModelExcluded", func(l ModelExecutionListener) {
		l.OnModelExcluded(event)
	})
}

func (n *Notifier) afterMetricEvaluation(result MetricEvaluationResult) {
	n.dispatch("AfterMetricEvaluation", func(l ModelExecutionListener) {
		l.AfterMetricEvaluation(result)
	})
}

// dispatch invokes fn on every listener in priority order. A panicking
// listener is logged and skipped; it never aborts the evaluation.
func (n *Notifier) dispatch(callback string, fn func(ModelExecutionListener)) {
	for _, reg := range n.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					n.logger.Warn("listener panicked",
						zap.String("callback", callback),
						zap.Any("panic", r),
					)
				}
			}()
			fn(reg.listener)
		}()
	}
}
