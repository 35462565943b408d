package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tailzen/internal/config"
	"git.home.luguber.info/inful/tailzen/internal/fetcher"
	"git.home.luguber.info/inful/tailzen/internal/forge"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	"git.home.luguber.info/inful/tailzen/internal/retry"
	"git.home.luguber.info/inful/tailzen/internal/source"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

var acme = source.RepositoryRef{Owner: "acme", Name: "portfolio"}

var portfolioFiles = map[string]string{
	"index.html": `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Acme Portfolio</title></head>
<body>
<main><h1>Work</h1></main>
</body>
</html>`,
	"styles.css": "@import url('https://fonts.example/css');\n.hero { color: #333; }\n",
	"app.js":     "console.log('hi');\n",
	"logo.png":   "\x89PNG",
}

// fakeGitHub serves the acme/portfolio repository over the GitHub REST shape.
type fakeGitHub struct {
	mu       sync.Mutex
	requests []string
	// status, when set, is returned for every API request.
	status int
	header http.Header
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path)
	f.mu.Unlock()

	if f.status != 0 {
		for k, v := range f.header {
			w.Header()[k] = v
		}
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"message":"error"}`))
		return
	}

	base := "http://" + r.Host
	switch {
	case r.URL.Path == "/repos/acme/portfolio":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":        "portfolio",
			"description": nil,
			"html_url":    "https://github.com/acme/portfolio",
		})
	case r.URL.Path == "/repos/acme/portfolio/contents":
		var items []map[string]any
		for _, name := range []string{"index.html", "styles.css", "app.js", "logo.png"} {
			items = append(items, map[string]any{
				"name": name, "path": name, "type": "file",
				"size": len(portfolioFiles[name]), "download_url": base + "/raw/" + name,
			})
		}
		items = append(items, map[string]any{"name": ".github", "path": ".github", "type": "dir", "download_url": nil})
		_ = json.NewEncoder(w).Encode(items)
	case strings.HasPrefix(r.URL.Path, "/raw/"):
		content, ok := portfolioFiles[strings.TrimPrefix(r.URL.Path, "/raw/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGitHub) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.requests {
		if p == path {
			n++
		}
	}
	return n
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) OnStageStart(ev StageEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "start:"+string(ev.Stage))
}

func (o *recordingObserver) OnStageComplete(ev StageEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, string(ev.Result)+":"+string(ev.Stage))
}

func newConverter(t *testing.T, fake *fakeGitHub, obs Observer) *Converter {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := forge.NewGitHubClient(forge.GitHubOptions{APIURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	return New(client, Options{
		Fetch: fetcher.Options{
			Policy: retry.NewPolicy(config.RetryBackoffLinear, time.Millisecond, 5*time.Millisecond, 2),
		},
		Transform: transform.Options{Year: 2024},
		Observer:  obs,
		NewID:     func() string { return "conv-1" },
	})
}

func TestConvert_AcmePortfolio(t *testing.T) {
	fake := &fakeGitHub{}
	obs := &recordingObserver{}

	res, err := newConverter(t, fake, obs).Convert(t.Context(), acme)
	require.NoError(t, err)

	assert.Equal(t, "conv-1", res.ConversionID)
	assert.Equal(t, "Portfolio", res.ThemeName)
	assert.Equal(t, DefaultDescription, res.Description)
	require.NotNil(t, res.Artifacts)

	style, ok := res.Artifacts.Get(transform.StyleSheet)
	require.True(t, ok)
	assert.Contains(t, style, "Theme Name: Portfolio")
	assert.Contains(t, style, ".hero { color: #333; }")
	assert.NotContains(t, style, "@import")

	index, ok := res.Artifacts.Get(transform.Index)
	require.True(t, ok)
	assert.Contains(t, index, "have_posts()")
	assert.Contains(t, index, "wp_footer()")

	header, _ := res.Artifacts.Get(transform.Header)
	footer, _ := res.Artifacts.Get(transform.Footer)
	assert.Contains(t, header, "site-branding")
	assert.Contains(t, footer, "&copy; 2024")

	functions, _ := res.Artifacts.Get(transform.Functions)
	assert.Contains(t, functions, "wp_enqueue_style(")
	assert.Contains(t, functions, "wp_enqueue_script(")

	readme, _ := res.Artifacts.Get(transform.Readme)
	assert.Contains(t, readme, "https://github.com/acme/portfolio")

	assert.Equal(t, []string{
		"start:fetching_metadata", "success:fetching_metadata",
		"start:listing_tree", "success:listing_tree",
		"start:classifying", "success:classifying",
		"start:transforming", "success:transforming",
	}, obs.events)

	assert.Zero(t, fake.count("/repos/acme/portfolio/contents/.github"), "dot directories are not listed")
	assert.Zero(t, fake.count("/raw/app.js"), "scripts are never downloaded")
	assert.Zero(t, fake.count("/raw/logo.png"), "images are never downloaded")
}

func TestConvert_RateLimitedMetadata(t *testing.T) {
	fake := &fakeGitHub{status: http.StatusForbidden, header: http.Header{"X-Ratelimit-Remaining": []string{"0"}}}
	obs := &recordingObserver{}

	res, err := newConverter(t, fake, obs).Convert(t.Context(), acme)
	require.Error(t, err)
	assert.Equal(t, Result{}, res)
	assert.True(t, derrors.IsRateLimited(err))
	assert.Contains(t, err.Error(), "try again later")
	assert.Equal(t, 1, fake.count("/repos/acme/portfolio"))
	assert.Equal(t, []string{"start:fetching_metadata", "failed:fetching_metadata"}, obs.events)
}

func TestConvert_ListingExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/portfolio" {
			_, _ = w.Write([]byte(`{"name":"portfolio","html_url":"https://github.com/acme/portfolio"}`))
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client, err := forge.NewGitHubClient(forge.GitHubOptions{APIURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	conv := New(client, Options{Fetch: fetcher.Options{
		Policy: retry.NewPolicy(config.RetryBackoffLinear, time.Millisecond, 5*time.Millisecond, 2),
	}})
	_, err = conv.Convert(t.Context(), acme)
	require.Error(t, err)
	assert.True(t, derrors.IsFetchExhausted(err))
	assert.Equal(t, int32(3), hits.Load())
}

func TestConvert_InvalidReference(t *testing.T) {
	fake := &fakeGitHub{}
	_, err := newConverter(t, fake, nil).Convert(t.Context(), source.RepositoryRef{Owner: "acme", Name: ""})
	require.Error(t, err)
	assert.True(t, derrors.IsInvalidReference(err))
	assert.Empty(t, fake.requests)
}

func TestConvert_Cancelled(t *testing.T) {
	fake := &fakeGitHub{}
	obs := &recordingObserver{}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := newConverter(t, fake, obs).Convert(ctx, acme)
	require.Error(t, err)
	assert.True(t, derrors.IsCancelled(err))
	assert.Nil(t, res.Artifacts)
	assert.Empty(t, fake.requests)
	assert.Equal(t, []string{"canceled:fetching_metadata"}, obs.events)
}

func TestConvert_RecordsMetrics(t *testing.T) {
	fake := &fakeGitHub{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	client, err := forge.NewGitHubClient(forge.GitHubOptions{APIURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	rec := &countingRecorder{}
	_, err = New(client, Options{Recorder: rec, Transform: transform.Options{Year: 2024}}).Convert(t.Context(), acme)
	require.NoError(t, err)
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 4, rec.stages)
	// metadata, root listing, index.html and styles.css
	assert.Equal(t, int32(4), rec.attempts.Load())
}

func TestInventory(t *testing.T) {
	fake := &fakeGitHub{}
	inv, err := newConverter(t, fake, nil).Inventory(t.Context(), acme)
	require.NoError(t, err)
	assert.Equal(t, "portfolio", inv.Metadata.Name)
	assert.Len(t, inv.Files, 4)
	assert.Len(t, inv.Classified.Styles, 1)
	assert.Len(t, inv.Classified.Markup, 1)
	assert.Len(t, inv.Classified.Scripts, 1)
	assert.Len(t, inv.Classified.Images, 1)
	assert.Zero(t, fake.count("/raw/index.html"))
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateIdle.CanTransition(StateFetchingMetadata))
	assert.True(t, StateListingTree.CanTransition(StateFailed))
	assert.False(t, StateClassifying.CanTransition(StateFailed))
	assert.False(t, StateTransforming.CanTransition(StateFailed))
	assert.True(t, StateTransforming.CanTransition(StateCancelled))
	assert.False(t, StateDone.CanTransition(StateFetchingMetadata))
	assert.True(t, StateDone.Terminal())

	m := newMachine()
	require.NoError(t, m.to(StateFetchingMetadata))
	require.Error(t, m.to(StateTransforming))
	assert.Equal(t, []State{StateIdle, StateFetchingMetadata}, m.history)
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.OutcomeLabel
	stages   int
	attempts atomic.Int32
}

func (c *countingRecorder) IncConversionOutcome(o metrics.OutcomeLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *countingRecorder) IncStageResult(string, metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages++
}

func (c *countingRecorder) IncFetchAttempt(string) { c.attempts.Add(1) }
