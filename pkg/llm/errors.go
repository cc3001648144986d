// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"errors"
	"fmt"
)

// Rate-limit failure reasons.
const (
	// ReasonRejected means the provider bucket had no token and the
	// provider uses the reject strategy.
	ReasonRejected = "rejected"

	// ReasonTimeout means the wait strategy gave up after the configured
	// acquisition timeout.
	ReasonTimeout = "timeout"

	// ReasonInterrupted means the caller's context was cancelled while
	// waiting for a token.
	ReasonInterrupted = "interrupted"
)

// RateLimitExceededError reports a failed rate-limit acquisition for one
// model. It surfaces inside ModelResult.Err; it is never fatal on its own.
type RateLimitExceededError struct {
	ModelID  string
	Provider string
	Reason   string
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for model %s (provider %s): %s", e.ModelID, e.Provider, e.Reason)
}

// IsRateLimitExceeded reports whether err is (or wraps) a rate-limit
// acquisition failure.
func IsRateLimitExceeded(err error) bool {
	var rle *RateLimitExceededError
	return errors.As(err, &rle)
}
