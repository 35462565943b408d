package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tailzen/internal/config"
	"git.home.luguber.info/inful/tailzen/internal/forge"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/retry"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

var acme = source.RepositoryRef{Owner: "acme", Name: "portfolio"}

func fastOptions() Options {
	return Options{
		Concurrency: 4,
		Policy:      retry.NewPolicy(config.RetryBackoffLinear, time.Millisecond, 10*time.Millisecond, 2),
	}
}

func paths(entries []source.RemoteEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

// nestedTree builds a tree whose sibling directories answer in reverse order.
func nestedTree() *fakeAPI {
	api := newFakeAPI()
	api.dirs[""] = []source.RemoteEntry{
		api.file("index.html", "index.html"),
		api.dir("a", "a"),
		api.file("README.md", "README.md"),
		api.dir("b", "b"),
		api.dir("c", "c"),
	}
	api.dirs["a"] = []source.RemoteEntry{api.file("a/one.css", "one.css"), api.dir("a/deep", "deep")}
	api.dirs["a/deep"] = []source.RemoteEntry{api.file("a/deep/x.js", "x.js")}
	api.dirs["b"] = []source.RemoteEntry{api.file("b/two.css", "two.css")}
	api.dirs["c"] = []source.RemoteEntry{api.file("c/three.html", "three.html")}
	api.delay["dir:a"] = 30 * time.Millisecond
	api.delay["dir:b"] = 15 * time.Millisecond
	return api
}

func TestListAllFiles_DepthFirstOrderUnderConcurrency(t *testing.T) {
	want := []string{"index.html", "a/one.css", "a/deep/x.js", "README.md", "b/two.css", "c/three.html"}
	for _, concurrency := range []int{1, 2, 4, 16} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			opts := fastOptions()
			opts.Concurrency = concurrency
			files, err := New(nestedTree(), opts).ListAllFiles(t.Context(), acme)
			require.NoError(t, err)
			assert.Equal(t, want, paths(files))
		})
	}
}

// wideTree builds a tree of the given depth where every directory holds
// fanout subdirectories, and leaves hold a single file.
func wideTree(depth, fanout int, delay time.Duration) (*fakeAPI, int) {
	api := newFakeAPI()
	files := 0
	var build func(dir string, level int)
	build = func(dir string, level int) {
		api.delay["dir:"+dir] = delay
		if level == depth {
			p := strings.TrimPrefix(dir+"/leaf.css", "/")
			api.dirs[dir] = []source.RemoteEntry{api.file(p, "leaf.css")}
			files++
			return
		}
		var entries []source.RemoteEntry
		for i := range fanout {
			name := fmt.Sprintf("d%d", i)
			p := strings.TrimPrefix(dir+"/"+name, "/")
			entries = append(entries, api.dir(p, name))
			build(p, level+1)
		}
		api.dirs[dir] = entries
	}
	build("", 0)
	return api, files
}

func TestListAllFiles_ConcurrencyBoundsWholeTraversal(t *testing.T) {
	for _, concurrency := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			api, want := wideTree(3, 4, 5*time.Millisecond)
			opts := fastOptions()
			opts.Concurrency = concurrency

			files, err := New(api, opts).ListAllFiles(t.Context(), acme)
			require.NoError(t, err)
			assert.Len(t, files, want)
			assert.LessOrEqual(t, api.peakInFlight(), concurrency)
		})
	}
}

func TestListAllFiles_SkipsExcludedDirectories(t *testing.T) {
	api := newFakeAPI()
	api.dirs[""] = []source.RemoteEntry{
		api.dir(".git", ".git"),
		api.dir(".github", ".github"),
		api.file(".editorconfig", ".editorconfig"),
		api.dir("node_modules", "node_modules"),
		api.dir("src", "src"),
	}
	api.dirs["src"] = []source.RemoteEntry{
		api.dir("src/node_modules", "node_modules"),
		api.dir("src/node_modules_extra", "node_modules_extra"),
		api.file("src/app.js", "app.js"),
	}
	api.dirs["src/node_modules_extra"] = []source.RemoteEntry{api.file("src/node_modules_extra/lib.js", "lib.js")}

	files, err := New(api, fastOptions()).ListAllFiles(t.Context(), acme)
	require.NoError(t, err)
	assert.Equal(t, []string{".editorconfig", "src/node_modules_extra/lib.js", "src/app.js"}, paths(files))
	assert.Zero(t, api.callCount("dir:.git"))
	assert.Zero(t, api.callCount("dir:node_modules"))
	assert.Zero(t, api.callCount("dir:src/node_modules"))
}

func TestListAllFiles_RetriesTransientFailures(t *testing.T) {
	api := nestedTree()
	api.failures["dir:b"] = 2

	files, err := New(api, fastOptions()).ListAllFiles(t.Context(), acme)
	require.NoError(t, err)
	assert.Len(t, files, 6)
	assert.Equal(t, 3, api.callCount("dir:b"))
}

func TestListAllFiles_ExhaustsAfterThreeAttempts(t *testing.T) {
	api := nestedTree()
	api.failures["dir:c"] = 10

	_, err := New(api, fastOptions()).ListAllFiles(t.Context(), acme)
	require.Error(t, err)
	assert.True(t, derrors.IsFetchExhausted(err))
	assert.Equal(t, 3, api.callCount("dir:c"))
	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	attempts, _ := ce.Context().Get("attempts")
	assert.Equal(t, 3, attempts)
}

func TestListAllFiles_NotFoundIsNotRetried(t *testing.T) {
	api := newFakeAPI()
	_, err := New(api, fastOptions()).ListAllFiles(t.Context(), acme)
	require.Error(t, err)
	assert.True(t, derrors.IsFetchExhausted(err))
	assert.Equal(t, 1, api.callCount("dir:"))
}

func TestListAllFiles_CancelledBeforeStart(t *testing.T) {
	api := nestedTree()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(api, fastOptions()).ListAllFiles(ctx, acme)
	require.Error(t, err)
	assert.True(t, derrors.IsCancelled(err))
	assert.Zero(t, api.callCount("dir:"))
}

func TestListAllFiles_InvalidReference(t *testing.T) {
	api := nestedTree()
	_, err := New(api, fastOptions()).ListAllFiles(t.Context(), source.RepositoryRef{Owner: "acme"})
	require.Error(t, err)
	assert.True(t, derrors.IsInvalidReference(err))
	assert.Zero(t, api.callCount("dir:"))
}

func TestResolveMetadata(t *testing.T) {
	api := newFakeAPI()
	api.failures["meta"] = 1
	meta, err := New(api, fastOptions()).ResolveMetadata(t.Context(), acme)
	require.NoError(t, err)
	assert.Equal(t, "portfolio", meta.Name)
	assert.Equal(t, 2, api.callCount("meta"))
}

func TestFetchContent(t *testing.T) {
	api := newFakeAPI()
	e := api.file("style.css", "style.css")
	api.content[e.ContentLocator] = "body{}"
	f := New(api, fastOptions())

	got, err := f.FetchContent(t.Context(), e)
	require.NoError(t, err)
	assert.Equal(t, "body{}", got)

	_, err = f.FetchContent(t.Context(), source.RemoteEntry{Path: "x.css", Name: "x.css", Kind: source.KindFile})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
}

func TestRateLimitFailsAfterOneRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	}))
	defer srv.Close()

	client, err := forge.NewGitHubClient(forge.GitHubOptions{APIURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = New(client, fastOptions()).ListAllFiles(t.Context(), acme)
	require.Error(t, err)
	assert.True(t, derrors.IsRateLimited(err))
	assert.Equal(t, int32(1), hits.Load())

	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, derrors.RateLimitMessage, ce.Message())
	assert.Equal(t, derrors.RetryRateLimit, ce.RetryStrategy())
}

func TestRunOrdered(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	got, err := runOrdered(t.Context(), items, 3, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 40, 20, 30}, got)

	boom := fmt.Errorf("boom")
	_, err = runOrdered(t.Context(), items, 2, func(ctx context.Context, n int) (int, error) {
		if n == 4 {
			return 0, boom
		}
		return n, nil
	})
	assert.ErrorIs(t, err, boom)
}
