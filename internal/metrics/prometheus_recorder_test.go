package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("listing_tree", 150*time.Millisecond)
	pr.IncStageResult("listing_tree", ResultSuccess)
	pr.ObserveConversionDuration(500 * time.Millisecond)
	pr.IncConversionOutcome(OutcomeSuccess)
	pr.IncFetchAttempt("contents")
	pr.IncFetchAttempt("contents")
	pr.IncFetchRetry("contents")
	pr.IncSoftFailure("style")
	pr.ObserveArtifacts(6)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.fetchAttempts.WithLabelValues("contents")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.fetchRetries.WithLabelValues("contents")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.conversionOutcome.WithLabelValues("success")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHTTPHandlerServesRecorderMetrics(t *testing.T) {
	reg := NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncConversionOutcome(OutcomeRateLimited)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `tailzen_conversion_outcomes_total{outcome="rate_limited"} 1`))
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncFetchAttempt("x")
		pr.ObserveStageDuration("x", time.Second)
	})
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopRecorder{}, OrNoop(nil))
	pr := NewPrometheusRecorder(nil)
	assert.Same(t, pr, OrNoop(pr))
}
