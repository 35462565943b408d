// Package errors provides foundational, type-safe error primitives used across TailZen.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (validation, network, rate limit, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, backoff, rate limit, ...)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Conversion failures use a small, fixed set of categories:
//
//	InvalidReference   -> CategoryValidation
//	RateLimited        -> CategoryRateLimit
//	FetchExhausted     -> CategoryNetwork
//	Cancelled          -> CategoryCanceled
//	PartialContentLoss -> CategoryPartialContent (logged, never returned)
//
// Example usage:
//
//	err := errors.NetworkError("contents listing failed").
//		WithContext("repository", "acme/portfolio").
//		WithCause(lastErr).
//		Build()
package errors
