// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import (
	"context"
	"fmt"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/prompts"
	"github.com/teradata-labs/skein/pkg/types"
)

// DefaultQuestionCount is the number of hypothetical questions generated
// per model.
const DefaultQuestionCount = 3

// ResponseRelevancyConfig configures the response relevancy metric.
type ResponseRelevancyConfig struct {
	evals.CommonConfig `yaml:",inline"`

	// EmbeddingModelID selects the embedding model. Empty means the
	// first configured embedding model.
	EmbeddingModelID string `yaml:"embedding_model_id"`

	// QuestionCount is the number of generated questions. Default 3.
	QuestionCount int `yaml:"question_count"`
}

// ResponseRelevancy measures how well the response addresses the user
// input: each judge model generates hypothetical questions the response
// would answer, and the score is the mean cosine similarity between the
// embedded user input and the embedded questions.
//
// If any generated question is flagged noncommittal, that model's score
// is 0. This is sensitive to LLM randomness; a single flag zeroes the
// model.
type ResponseRelevancy struct {
	base evals.MultiModelMetric
}

// NewResponseRelevancy creates the metric over the given executor.
func NewResponseRelevancy(executor *evals.Executor) *ResponseRelevancy {
	return &ResponseRelevancy{base: evals.NewMultiModelMetric("response_relevancy", executor)}
}

// Name returns the metric name.
func (m *ResponseRelevancy) Name() string { return m.base.Name() }

// SingleTurnScore evaluates the sample with the default config.
func (m *ResponseRelevancy) SingleTurnScore(ctx context.Context, sample types.Sample) (float64, error) {
	return m.Score(ctx, ResponseRelevancyConfig{}, sample)
}

// Score evaluates the sample with the given config.
func (m *ResponseRelevancy) Score(ctx context.Context, config ResponseRelevancyConfig, sample types.Sample) (float64, error) {
	return m.base.Run(ctx, config.CommonConfig, config, sample, 2, m.pipeline(config, sample))
}

// ScoreAsync evaluates the sample asynchronously.
func (m *ResponseRelevancy) ScoreAsync(ctx context.Context, config ResponseRelevancyConfig, sample types.Sample) *evals.ScoreFuture {
	return m.base.RunAsync(ctx, config.CommonConfig, config, sample, 2, m.pipeline(config, sample))
}

func (m *ResponseRelevancy) pipeline(config ResponseRelevancyConfig, sample types.Sample) evals.PipelineFunc {
	count := config.QuestionCount
	if count <= 0 {
		count = DefaultQuestionCount
	}

	return func(ev *evals.Evaluation) (map[string]float64, error) {
		if !sample.HasUserInput() || !sample.HasResponse() {
			return nil, m.base.MissingInput("user_input", "response")
		}

		embeddingModelID := config.EmbeddingModelID
		if embeddingModelID == "" {
			ids := ev.EmbeddingModelIDs()
			if len(ids) == 0 {
				return nil, fmt.Errorf("metric %s: no embedding models configured", m.base.Name())
			}
			embeddingModelID = ids[0]
		}

		prompt := prompts.Interpolate(generateQuestionsTemplate, map[string]any{
			"count":    count,
			"response": sample.Response,
		})
		generated, err := ev.LLMStep("generate_questions", prompt, questionsSchema)
		if err != nil {
			return nil, err
		}

		scores, err := ev.EmbeddingStep("compute_cosine_similarity", sample.UserInput,
			func(ctx context.Context, modelID string) (any, error) {
				list := generated[modelID].(*questionList)
				if len(list.Questions) == 0 {
					return 0.0, nil
				}
				for _, q := range list.Questions {
					if q.Noncommittal == 1 {
						return 0.0, nil
					}
				}

				inputResult := ev.Executor().ExecuteEmbeddingOnModel(ctx, embeddingModelID, sample.UserInput)
				if inputResult.Err != nil {
					return nil, inputResult.Err
				}
				inputVec := inputResult.Value.([]float32)

				sum := 0.0
				for _, q := range list.Questions {
					qResult := ev.Executor().ExecuteEmbeddingOnModel(ctx, embeddingModelID, q.Question)
					if qResult.Err != nil {
						return nil, qResult.Err
					}
					sum += clamp(cosineSimilarity(inputVec, qResult.Value.([]float32)), 0, 1)
				}
				return sum / float64(len(list.Questions)), nil
			})
		if err != nil {
			return nil, err
		}
		return evals.FloatScores(scores), nil
	}
}
