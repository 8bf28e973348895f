package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassAuth represents 401/403 responses: the token was rejected.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassThrottle represents 429 responses with daily quota left.
	ErrorClassThrottle ErrorClass = "throttle"

	// ErrorClassDailyLimit represents 429 responses with the daily quota spent.
	ErrorClassDailyLimit ErrorClass = "daily_limit"

	// ErrorClassClient represents other 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError represents an API-specific error with additional context.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassAuth:
		// Retried once after invalidating the cached token; the retry
		// budget lives in retryConfigFor.
		return true
	case ErrorClassThrottle:
		// Per-second throttle clears after a short wait.
		return true
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	case ErrorClassDailyLimit:
		// The budget is spent for the day; retrying wastes requests.
		return false
	case ErrorClassClient:
		return false
	default:
		return false
	}
}
