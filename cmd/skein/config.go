// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teradata-labs/skein/pkg/evals"
	"github.com/teradata-labs/skein/pkg/llm"
	"github.com/teradata-labs/skein/pkg/llm/openai"
)

// DefaultConfigFileName is the config file searched for when --config is
// not given.
const DefaultConfigFileName = "skein"

// Config is the engine configuration: the judge models, the embedding
// models, and the per-provider rate limits.
type Config struct {
	// Workers bounds concurrent model calls per pipeline step.
	Workers int `mapstructure:"workers"`

	// Models are the chat models metric judgements fan out to.
	Models []ModelConfig `mapstructure:"models"`

	// Embeddings are the embedding models (response relevancy).
	Embeddings []ModelConfig `mapstructure:"embeddings"`

	// RateLimits configures one token bucket per provider name.
	RateLimits map[string]RateLimitConfig `mapstructure:"rate_limits"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// ModelConfig describes one OpenAI-compatible model endpoint.
type ModelConfig struct {
	// ID is the model identifier used in suites and reports. Required.
	ID string `mapstructure:"id"`

	// Provider groups models into one rate-limit bucket. Optional;
	// models without a provider are never rate limited.
	Provider string `mapstructure:"provider"`

	// Model is the provider-side model name. Defaults to ID.
	Model string `mapstructure:"model"`

	// APIKey authenticates against the endpoint. Falls back to
	// OPENAI_API_KEY when empty.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the endpoint for OpenAI-compatible servers.
	BaseURL string `mapstructure:"base_url"`

	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float32 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// RateLimitConfig is the per-provider token bucket configuration.
type RateLimitConfig struct {
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
	Strategy          string `mapstructure:"strategy"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from multiple sources with proper priority:
// 1. Command line flags (highest priority)
// 2. Config file
// 3. Environment variables
// 4. Defaults (lowest priority)
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/skein/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	viper.SetEnvPrefix("SKEIN")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// Validate checks the configuration before any clients are built.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	seen := make(map[string]bool, len(c.Models)+len(c.Embeddings))
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("models[%d].id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("models[%d]: duplicate model id %s", i, m.ID)
		}
		seen[m.ID] = true
	}
	for i, m := range c.Embeddings {
		if m.ID == "" {
			return fmt.Errorf("embeddings[%d].id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("embeddings[%d]: duplicate model id %s", i, m.ID)
		}
		seen[m.ID] = true
	}
	for provider, limit := range c.RateLimits {
		if limit.RequestsPerSecond < 1 {
			return fmt.Errorf("rate_limits.%s.requests_per_second must be >= 1", provider)
		}
		switch limit.Strategy {
		case "", string(llm.StrategyWait), string(llm.StrategyReject):
		default:
			return fmt.Errorf("rate_limits.%s.strategy must be wait or reject", provider)
		}
	}
	return nil
}

// BuildExecutor wires the configured models into an evaluation executor.
func (c *Config) BuildExecutor(logger *zap.Logger) (*evals.Executor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	chatClients := make(map[string]llm.ChatClient, len(c.Models))
	providers := make(map[string]string)
	for _, m := range c.Models {
		chatClients[m.ID] = newOpenAIClient(m)
		if m.Provider != "" {
			providers[m.ID] = m.Provider
		}
	}

	var embedStore *llm.EmbeddingModelStore
	if len(c.Embeddings) > 0 {
		embedModels := make(map[string]llm.EmbeddingModel, len(c.Embeddings))
		for _, m := range c.Embeddings {
			embedModels[m.ID] = newOpenAIClient(m)
			if m.Provider != "" {
				providers[m.ID] = m.Provider
			}
		}
		embedStore = llm.NewEmbeddingModelStore(embedModels, nil, providers)
	}

	var limiter *llm.RateLimiterRegistry
	if len(c.RateLimits) > 0 {
		limits := make(map[string]llm.ProviderLimit, len(c.RateLimits))
		for provider, rl := range c.RateLimits {
			limits[provider] = llm.ProviderLimit{
				RequestsPerSecond: rl.RequestsPerSecond,
				Strategy:          llm.Strategy(rl.Strategy),
				Timeout:           time.Duration(rl.TimeoutSeconds) * time.Second,
			}
		}
		limiter = llm.NewRateLimiterRegistry(limits, providers, logger)
	}

	return evals.NewExecutor(evals.ExecutorConfig{
		ChatStore:      llm.NewChatClientStore(chatClients, nil, providers),
		EmbeddingStore: embedStore,
		Limiter:        limiter,
		Workers:        c.Workers,
		Logger:         logger,
	}), nil
}

func newOpenAIClient(m ModelConfig) *openai.Client {
	apiKey := m.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	model := m.Model
	if model == "" {
		model = m.ID
	}
	return openai.NewClient(openai.Config{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     m.BaseURL,
		Timeout:     time.Duration(m.TimeoutSeconds) * time.Second,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
	})
}

// BuildLogger creates the CLI logger from the logging config.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if c.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}
