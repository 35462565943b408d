package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "tailzen.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "tailzen.yaml" {
			t.Errorf("expected context file=tailzen.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", ConfigError("test error").Build())

		if !IsClassified(err) {
			t.Error("expected wrapped error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
	})

	t.Run("WithContext does not mutate receiver", func(t *testing.T) {
		base := NetworkError("boom").Build()
		derived := base.WithContext("attempt", 2)

		if _, ok := base.Context().Get("attempt"); ok {
			t.Error("expected base context to stay untouched")
		}
		if v, _ := derived.Context().Get("attempt"); v != 2 {
			t.Errorf("expected attempt=2, got %v", v)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryNetwork, "network failure").
			Warning().
			Retryable().
			WithContext("host", "api.github.com").
			Build()

		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if !err.IsTransient() {
			t.Error("expected backoff error to be transient")
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryNever},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryNever},
			{"AuthError", AuthError("test"), CategoryAuth, SeverityError, RetryUserAction},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityError, RetryNever},
			{"NetworkError", NetworkError("test"), CategoryNetwork, SeverityError, RetryBackoff},
			{"RateLimitError", RateLimitError("test"), CategoryRateLimit, SeverityError, RetryRateLimit},
			{"ForgeError", ForgeError("test"), CategoryForge, SeverityError, RetryBackoff},
			{"GitError", GitError("test"), CategoryGit, SeverityError, RetryBackoff},
			{"TransformError", TransformError("test"), CategoryTransform, SeverityError, RetryNever},
			{"PackagingError", PackagingError("test"), CategoryPackaging, SeverityError, RetryNever},
			{"CanceledError", CanceledError("test"), CategoryCanceled, SeverityError, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestConversionTaxonomy(t *testing.T) {
	cause := errors.New("503 Service Unavailable")

	if !IsInvalidReference(InvalidReference("", "repo")) {
		t.Error("expected InvalidReference to be detected")
	}
	rl := RateLimited("metadata", cause)
	if !IsRateLimited(rl) {
		t.Error("expected RateLimited to be detected")
	}
	if rl.Message() != RateLimitMessage {
		t.Errorf("unexpected rate limit message %q", rl.Message())
	}
	if rl.IsTransient() {
		t.Error("rate limit must not be reported as transient")
	}

	fe := FetchExhausted("contents /", 3, cause)
	if !IsFetchExhausted(fe) || !errors.Is(fe, cause) {
		t.Error("expected FetchExhausted to wrap the last cause")
	}
	if attempts, _ := fe.Context().Get("attempts"); attempts != 3 {
		t.Errorf("expected attempts=3, got %v", attempts)
	}

	if !IsCancelled(Cancelled("listing_tree", context.Canceled)) {
		t.Error("expected Cancelled to be detected")
	}
	if !IsCancelled(fmt.Errorf("wrapped: %w", context.Canceled)) {
		t.Error("expected bare context cancellation to count as cancelled")
	}

	pl := PartialContentLoss("css/a.css", cause)
	if pl.Severity() != SeverityWarning || pl.Category() != CategoryPartialContent {
		t.Errorf("unexpected partial content classification: %s/%s", pl.Category(), pl.Severity())
	}
}

func TestErrorContext(t *testing.T) {
	ctx1 := make(ErrorContext)
	ctx1 = ctx1.Set("key1", "value1")
	ctx1 = ctx1.Set("shared", "original")

	ctx2 := make(ErrorContext)
	ctx2 = ctx2.Set("key2", "value2")
	ctx2 = ctx2.Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	if v, _ := merged.GetString("key1"); v != "value1" {
		t.Errorf("expected key1=value1, got %s", v)
	}
	if v, _ := merged.GetString("key2"); v != "value2" {
		t.Errorf("expected key2=value2, got %s", v)
	}
	if v, _ := merged.GetString("shared"); v != "overridden" {
		t.Errorf("expected shared=overridden, got %s", v)
	}
	if _, ok := merged.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
}
