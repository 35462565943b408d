package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "tailzen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration      *prom.HistogramVec
	stageResults       *prom.CounterVec
	conversionDuration prom.Histogram
	conversionOutcome  *prom.CounterVec
	fetchAttempts      *prom.CounterVec
	fetchRetries       *prom.CounterVec
	fetchExhausted     *prom.CounterVec
	softFailures       *prom.CounterVec
	artifacts          prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual conversion stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		conversionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Total conversion duration",
			Buckets:   prom.DefBuckets,
		}),
		conversionOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_outcomes_total",
			Help:      "Conversions by final status",
		}, []string{"outcome"}),
		fetchAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Content API calls including retries",
		}, []string{"operation"}),
		fetchRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Content API calls repeated after a transient failure",
		}, []string{"operation"}),
		fetchExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retry_exhausted_total",
			Help:      "Content API operations that failed on every attempt",
		}, []string{"operation"}),
		softFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_files_total",
			Help:      "Files skipped because their content could not be fetched",
		}, []string{"kind"}),
		artifacts: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "artifacts_per_theme",
			Help:      "Number of artifacts in produced themes",
			Buckets:   prom.LinearBuckets(4, 2, 8),
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.conversionDuration, pr.conversionOutcome,
		pr.fetchAttempts, pr.fetchRetries, pr.fetchExhausted, pr.softFailures, pr.artifacts)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveConversionDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.conversionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncConversionOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.conversionOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncFetchAttempt(operation string) {
	if p == nil {
		return
	}
	p.fetchAttempts.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry(operation string) {
	if p == nil {
		return
	}
	p.fetchRetries.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) IncFetchExhausted(operation string) {
	if p == nil {
		return
	}
	p.fetchExhausted.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) IncSoftFailure(kind string) {
	if p == nil {
		return
	}
	p.softFailures.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveArtifacts(n int) {
	if p == nil {
		return
	}
	p.artifacts.Observe(float64(n))
}
