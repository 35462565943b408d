package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// RateLimitMessage is surfaced to callers when the content API rejects a request
// because the quota is spent.
const RateLimitMessage = "content API rate limit exceeded, please try again later"

// InvalidReference reports an empty or malformed repository owner/name.
func InvalidReference(owner, name string) *ClassifiedError {
	return ValidationError("invalid repository reference: owner and name are required").
		WithContext("owner", owner).
		WithContext("name", name).
		Build()
}

// RateLimited reports a rate-limit-class response from the content API.
func RateLimited(operation string, cause error) *ClassifiedError {
	return RateLimitError(RateLimitMessage).
		WithCause(cause).
		WithContext("operation", operation).
		Build()
}

// FetchExhausted reports a network call that failed on every attempt.
func FetchExhausted(operation string, attempts int, cause error) *ClassifiedError {
	return NetworkError(fmt.Sprintf("%s failed after %d attempt(s)", operation, attempts)).
		WithCause(cause).
		WithContext("operation", operation).
		WithContext("attempts", attempts).
		Build()
}

// Cancelled reports caller-initiated cancellation observed at the given point.
func Cancelled(where string, cause error) *ClassifiedError {
	return CanceledError("conversion cancelled").
		WithCause(cause).
		WithContext("stage", where).
		Build()
}

// PartialContentLoss reports a per-file fetch failure that was skipped.
// It is logged by the transformer and never returned from a conversion.
func PartialContentLoss(path string, cause error) *ClassifiedError {
	return NewError(CategoryPartialContent, "file skipped").
		Warning().
		WithCause(cause).
		WithContext("path", path).
		Build()
}

// IsInvalidReference reports whether err is an InvalidReference failure.
func IsInvalidReference(err error) bool { return HasCategory(err, CategoryValidation) }

// IsRateLimited reports whether err is a RateLimited failure.
func IsRateLimited(err error) bool { return HasCategory(err, CategoryRateLimit) }

// IsFetchExhausted reports whether err is a FetchExhausted failure.
func IsFetchExhausted(err error) bool { return HasCategory(err, CategoryNetwork) }

// IsCancelled reports whether err is a Cancelled failure or a bare context error.
func IsCancelled(err error) bool {
	if HasCategory(err, CategoryCanceled) {
		return true
	}
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
