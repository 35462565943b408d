// Package fetcher turns a repository reference into its metadata and a flat,
// depth-first list of files, retrying transient content API failures.
package fetcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	"git.home.luguber.info/inful/tailzen/internal/retry"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

// Operation names used in errors, logs and metrics.
const (
	OpMetadata = "metadata"
	OpContents = "contents"
	OpContent  = "content"
)

// DefaultConcurrency bounds directory listings in flight across a whole
// traversal.
const DefaultConcurrency = 4

// Options configures a Fetcher. Zero values select defaults.
type Options struct {
	Concurrency int
	Policy      retry.Policy
	Logger      *slog.Logger
	Recorder    metrics.Recorder
}

// Fetcher reads repositories through a source.API. It holds no state between
// calls and is safe for concurrent use.
type Fetcher struct {
	api         source.API
	policy      retry.Policy
	concurrency int
	logger      *slog.Logger
	recorder    metrics.Recorder
}

// New returns a Fetcher over api.
func New(api source.API, opts Options) *Fetcher {
	f := &Fetcher{
		api:         api,
		policy:      opts.Policy,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		recorder:    metrics.OrNoop(opts.Recorder),
	}
	if f.policy.Validate() != nil {
		f.policy = retry.DefaultPolicy()
	}
	if f.concurrency < 1 {
		f.concurrency = DefaultConcurrency
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// ResolveMetadata returns repository metadata.
func (f *Fetcher) ResolveMetadata(ctx context.Context, ref source.RepositoryRef) (source.RepositoryMetadata, error) {
	if err := ref.Validate(); err != nil {
		return source.RepositoryMetadata{}, err
	}
	return call(ctx, f, OpMetadata, func(ctx context.Context) (source.RepositoryMetadata, error) {
		return f.api.Metadata(ctx, ref)
	})
}

// ListAllFiles returns every file of the repository in sequential depth-first
// order. Directories named node_modules or starting with a dot are skipped;
// directories themselves are never returned.
func (f *Fetcher) ListAllFiles(ctx context.Context, ref source.RepositoryRef) ([]source.RemoteEntry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	slots := make(chan struct{}, f.concurrency)
	files, err := f.listDir(ctx, ref, "", slots)
	if err != nil {
		return nil, err
	}
	f.logger.DebugContext(ctx, "Listed repository tree",
		logfields.Repository(ref.String()),
		logfields.Count(len(files)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return files, nil
}

// FetchContent downloads the text content of a file entry.
func (f *Fetcher) FetchContent(ctx context.Context, entry source.RemoteEntry) (string, error) {
	if !entry.Fetchable() {
		return "", derrors.ValidationError("entry has no content locator").
			WithContext("path", entry.Path).
			Build()
	}
	data, err := call(ctx, f, OpContent, func(ctx context.Context) ([]byte, error) {
		return f.api.Content(ctx, entry.ContentLocator)
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SkipDir reports whether a directory is excluded from traversal.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// listDir lists dir and its subdirectories. slots is shared by the whole
// traversal and is held only for the duration of a single Contents attempt,
// never while waiting on children.
func (f *Fetcher) listDir(ctx context.Context, ref source.RepositoryRef, dir string, slots chan struct{}) ([]source.RemoteEntry, error) {
	entries, err := call(ctx, f, OpContents, func(ctx context.Context) ([]source.RemoteEntry, error) {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		defer func() { <-slots }()
		return f.api.Contents(ctx, ref, dir)
	})
	if err != nil {
		return nil, err
	}

	var subdirs []source.RemoteEntry
	for _, e := range entries {
		if e.Kind == source.KindDir && !SkipDir(e.Name) {
			subdirs = append(subdirs, e)
		}
	}
	nested, err := runOrdered(ctx, subdirs, len(subdirs), func(ctx context.Context, d source.RemoteEntry) ([]source.RemoteEntry, error) {
		return f.listDir(ctx, ref, d.Path, slots)
	})
	if err != nil {
		return nil, err
	}

	var files []source.RemoteEntry
	next := 0
	for _, e := range entries {
		switch {
		case e.Kind == source.KindDir && SkipDir(e.Name):
			f.logger.DebugContext(ctx, "Skipping directory", logfields.Path(e.Path))
		case e.Kind == source.KindDir:
			files = append(files, nested[next]...)
			next++
		default:
			files = append(files, e)
		}
	}
	return files, nil
}

// call runs fn under the retry policy and maps the outcome to the conversion
// error set: Cancelled, RateLimited or FetchExhausted.
func call[T any](ctx context.Context, f *Fetcher, operation string, fn func(context.Context) (T, error)) (T, error) {
	v, out := retry.Do(ctx, f.policy, func(ctx context.Context, _ int) (T, error) {
		f.recorder.IncFetchAttempt(operation)
		return fn(ctx)
	}, func(attempt int, delay time.Duration, err error) {
		f.recorder.IncFetchRetry(operation)
		f.logger.WarnContext(ctx, "Content API call failed, retrying",
			slog.String("operation", operation),
			logfields.Attempt(attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
	})
	if out.Err == nil {
		return v, nil
	}

	var zero T
	switch {
	case ctx.Err() != nil || derrors.IsCancelled(out.Err):
		return zero, derrors.Cancelled(operation, out.Err)
	case derrors.HasCategory(out.Err, derrors.CategoryRateLimit):
		return zero, derrors.RateLimited(operation, out.Err)
	default:
		f.recorder.IncFetchExhausted(operation)
		return zero, derrors.FetchExhausted(operation, out.Attempts, out.Err)
	}
}
