package git

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

const (
	// DefaultBaseURL is the clone host used when Options.BaseURL is empty.
	DefaultBaseURL = "https://github.com"

	// LocatorScheme prefixes content locators handed out by Source.
	LocatorScheme = "clone:"

	maxContentBytes = 10 * 1024 * 1024
)

// CloneFunc materializes the worktree of a repository.
type CloneFunc func(ctx context.Context, url string) (billy.Filesystem, error)

// Options configures a Source.
type Options struct {
	BaseURL string
	// Token is sent as HTTP basic auth password (GitHub accepts any user name).
	Token  string
	Logger *slog.Logger
	// Clone replaces the go-git shallow clone. Mostly useful in tests.
	Clone CloneFunc
}

// Source implements source.API on top of shallow clones. Each repository is
// cloned at most once per Source; listings and downloads read the in-memory
// worktree. Long-lived callers hand out a fresh scope per conversion with
// NewSession so clones are never shared between conversions.
type Source struct {
	baseURL string
	clone   CloneFunc
	logger  *slog.Logger

	mu     sync.Mutex
	clones map[string]*cloneResult
}

type cloneResult struct {
	done chan struct{}
	fs   billy.Filesystem
	err  error
}

var (
	_ source.API            = (*Source)(nil)
	_ source.SessionFactory = (*Source)(nil)
)

// NewSource creates a clone-backed content source.
func NewSource(opts Options) *Source {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{
		baseURL: base,
		clone:   opts.Clone,
		logger:  logger,
		clones:  make(map[string]*cloneResult),
	}
	if s.clone == nil {
		s.clone = shallowClone(opts.Token)
	}
	return s
}

// shallowClone returns a CloneFunc performing a depth-1, single-branch clone
// into memory storage.
func shallowClone(token string) CloneFunc {
	return func(ctx context.Context, url string) (billy.Filesystem, error) {
		opts := &git.CloneOptions{
			URL:          url,
			Depth:        1,
			SingleBranch: true,
			Tags:         git.NoTags,
		}
		if token != "" {
			opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: token}
		}
		fs := memfs.New()
		if _, err := git.CloneContext(ctx, memory.NewStorage(), fs, opts); err != nil {
			return nil, err
		}
		return fs, nil
	}
}

// CloneURL returns the clone URL of ref.
func (s *Source) CloneURL(ref source.RepositoryRef) string {
	return s.baseURL + "/" + ref.Owner + "/" + ref.Name + ".git"
}

// NewSession returns a Source sharing this one's configuration with an empty
// clone cache. Closing the session drops its clones.
func (s *Source) NewSession() source.Session {
	return &Source{
		baseURL: s.baseURL,
		clone:   s.clone,
		logger:  s.logger,
		clones:  make(map[string]*cloneResult),
	}
}

// Close drops every cached clone.
func (s *Source) Close() error {
	s.mu.Lock()
	s.clones = make(map[string]*cloneResult)
	s.mu.Unlock()
	return nil
}

// worktree returns the cloned worktree of ref, cloning on first use.
// Concurrent callers for the same ref wait for the single clone in flight.
// Failed clones are not cached so a retry clones again. A waiter whose own
// context is still live never inherits the cancellation of the caller that
// drove the clone; it clones again instead.
func (s *Source) worktree(ctx context.Context, ref source.RepositoryRef) (billy.Filesystem, error) {
	key := ref.String()
	for {
		s.mu.Lock()
		res, ok := s.clones[key]
		if !ok {
			res = &cloneResult{done: make(chan struct{})}
			s.clones[key] = res
		}
		s.mu.Unlock()

		if !ok {
			return s.cloneInto(ctx, key, ref, res)
		}

		select {
		case <-res.done:
			if isContextError(res.err) && ctx.Err() == nil {
				continue
			}
			return res.fs, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Source) cloneInto(ctx context.Context, key string, ref source.RepositoryRef, res *cloneResult) (billy.Filesystem, error) {
	url := s.CloneURL(ref)
	s.logger.Debug("Cloning repository", logfields.Repository(key), logfields.URL(url))
	fs, err := s.clone(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = classifyCloneError(url, err)
		}
		s.mu.Lock()
		if s.clones[key] == res {
			delete(s.clones, key)
		}
		s.mu.Unlock()
	}
	res.fs, res.err = fs, err
	close(res.done)
	return fs, err
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// Metadata derives metadata from the reference. A clone carries no
// description; the clone is still performed so a missing repository fails here.
func (s *Source) Metadata(ctx context.Context, ref source.RepositoryRef) (source.RepositoryMetadata, error) {
	if _, err := s.worktree(ctx, ref); err != nil {
		return source.RepositoryMetadata{}, err
	}
	return source.RepositoryMetadata{
		Name:    ref.Name,
		HomeURL: s.baseURL + "/" + ref.Owner + "/" + ref.Name,
	}, nil
}

// Contents lists the immediate children of dir sorted by name.
func (s *Source) Contents(ctx context.Context, ref source.RepositoryRef, dir string) ([]source.RemoteEntry, error) {
	fs, err := s.worktree(ctx, ref)
	if err != nil {
		return nil, err
	}
	dir = strings.Trim(dir, "/")
	infos, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("path not found").
				WithCause(err).
				WithContext("path", dir).
				Build()
		}
		return nil, errors.FileSystemError("failed to read worktree").WithCause(err).WithContext("path", dir).Build()
	}
	slices.SortFunc(infos, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })

	entries := make([]source.RemoteEntry, 0, len(infos))
	for _, info := range infos {
		p := path.Join(dir, info.Name())
		switch {
		case info.IsDir():
			entries = append(entries, source.RemoteEntry{Path: p, Name: info.Name(), Kind: source.KindDir})
		case info.Mode().IsRegular():
			entries = append(entries, source.RemoteEntry{
				Path:           p,
				Name:           info.Name(),
				Kind:           source.KindFile,
				Size:           info.Size(),
				ContentLocator: Locator(ref, p),
			})
		}
	}
	return entries, nil
}

// Content reads a file addressed by a locator produced by Contents.
func (s *Source) Content(ctx context.Context, locator string) ([]byte, error) {
	ref, p, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	fs, err := s.worktree(ctx, ref)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("file not found").WithCause(err).WithContext("path", p).Build()
		}
		return nil, errors.FileSystemError("failed to open file").WithCause(err).WithContext("path", p).Build()
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxContentBytes+1))
	if err != nil {
		return nil, errors.FileSystemError("failed to read file").WithCause(err).WithContext("path", p).Build()
	}
	if len(data) > maxContentBytes {
		return nil, errors.ValidationError("file exceeds size limit").
			WithContext("path", p).
			WithContext("limit", maxContentBytes).
			Build()
	}
	return data, nil
}

// Locator builds the content locator of a file in ref.
func Locator(ref source.RepositoryRef, p string) string {
	return LocatorScheme + ref.String() + ":" + p
}

// ParseLocator splits a locator built by Locator.
func ParseLocator(locator string) (source.RepositoryRef, string, error) {
	rest, ok := strings.CutPrefix(locator, LocatorScheme)
	if !ok {
		return source.RepositoryRef{}, "", invalidLocator(locator)
	}
	repo, p, ok := strings.Cut(rest, ":")
	if !ok || p == "" || strings.Contains(p, "..") {
		return source.RepositoryRef{}, "", invalidLocator(locator)
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok {
		return source.RepositoryRef{}, "", invalidLocator(locator)
	}
	ref, err := source.NewRef(owner, name)
	if err != nil {
		return source.RepositoryRef{}, "", err
	}
	return ref, p, nil
}

func invalidLocator(locator string) error {
	return errors.ValidationError("invalid content locator").WithContext("locator", locator).Build()
}
