package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

// fakeAPI serves a static tree. failures maps a directory path to the number
// of transient failures to return before succeeding.
type fakeAPI struct {
	mu       sync.Mutex
	meta     source.RepositoryMetadata
	dirs     map[string][]source.RemoteEntry
	content  map[string]string
	failures map[string]int
	errs     map[string]error
	delay    map[string]time.Duration
	calls    map[string]int
	inflight int
	peak     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		meta:     source.RepositoryMetadata{Name: "portfolio", HomeURL: "https://github.com/acme/portfolio"},
		dirs:     map[string][]source.RemoteEntry{},
		content:  map[string]string{},
		failures: map[string]int{},
		errs:     map[string]error{},
		delay:    map[string]time.Duration{},
		calls:    map[string]int{},
	}
}

func (f *fakeAPI) file(p, name string) source.RemoteEntry {
	return source.RemoteEntry{Path: p, Name: name, Kind: source.KindFile, ContentLocator: "mem://" + p}
}

func (f *fakeAPI) dir(p, name string) source.RemoteEntry {
	return source.RemoteEntry{Path: p, Name: name, Kind: source.KindDir}
}

func (f *fakeAPI) hit(key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if err, ok := f.errs[key]; ok {
		return 0, err
	}
	if f.failures[key] > 0 {
		f.failures[key]--
		return 0, derrors.NetworkError("upstream 502").Build()
	}
	return f.delay[key], nil
}

func (f *fakeAPI) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeAPI) Metadata(_ context.Context, _ source.RepositoryRef) (source.RepositoryMetadata, error) {
	if _, err := f.hit("meta"); err != nil {
		return source.RepositoryMetadata{}, err
	}
	return f.meta, nil
}

func (f *fakeAPI) enter() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight++
	f.peak = max(f.peak, f.inflight)
}

func (f *fakeAPI) leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
}

func (f *fakeAPI) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

func (f *fakeAPI) Contents(ctx context.Context, _ source.RepositoryRef, p string) ([]source.RemoteEntry, error) {
	f.enter()
	defer f.leave()
	d, err := f.hit("dir:" + p)
	if err != nil {
		return nil, err
	}
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entries, ok := f.dirs[p]
	if !ok {
		return nil, derrors.NotFoundError(fmt.Sprintf("no such directory %q", p)).Build()
	}
	return entries, nil
}

func (f *fakeAPI) Content(_ context.Context, locator string) ([]byte, error) {
	if _, err := f.hit("content:" + locator); err != nil {
		return nil, err
	}
	c, ok := f.content[locator]
	if !ok {
		return nil, derrors.NotFoundError("no such file").Build()
	}
	return []byte(c), nil
}
