package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel enumerates final conversion outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess     OutcomeLabel = "success"
	OutcomeRateLimited OutcomeLabel = "rate_limited"
	OutcomeFailed      OutcomeLabel = "failed"
	OutcomeCanceled    OutcomeLabel = "canceled"
	OutcomeInvalid     OutcomeLabel = "invalid"
)

// Recorder defines observability hooks for conversions, their stages and the
// content API calls they make. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveConversionDuration(d time.Duration)
	IncConversionOutcome(outcome OutcomeLabel)
	// IncFetchAttempt counts every content API call, including retries.
	IncFetchAttempt(operation string)
	IncFetchRetry(operation string)
	IncFetchExhausted(operation string)
	// IncSoftFailure counts files skipped because their content could not be fetched.
	IncSoftFailure(kind string)
	ObserveArtifacts(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveConversionDuration(time.Duration)    {}
func (NoopRecorder) IncConversionOutcome(OutcomeLabel)          {}
func (NoopRecorder) IncFetchAttempt(string)                     {}
func (NoopRecorder) IncFetchRetry(string)                       {}
func (NoopRecorder) IncFetchExhausted(string)                   {}
func (NoopRecorder) IncSoftFailure(string)                      {}
func (NoopRecorder) ObserveArtifacts(int)                       {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
