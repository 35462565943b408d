package source

import "context"

// API is the content boundary of a repository host. Implementations return
// classified errors: rate limits as rate_limit, missing paths as not_found,
// and transport or server failures as network.
type API interface {
	// Metadata returns repository metadata.
	Metadata(ctx context.Context, ref RepositoryRef) (RepositoryMetadata, error)
	// Contents lists the immediate children of path ("" is the root) in the
	// order the host returns them.
	Contents(ctx context.Context, ref RepositoryRef, path string) ([]RemoteEntry, error)
	// Content downloads the raw bytes behind a content locator.
	Content(ctx context.Context, locator string) ([]byte, error)
}

// Session is an API scoped to a single conversion. Close releases whatever
// the session accumulated (clones, caches).
type Session interface {
	API
	Close() error
}

// SessionFactory is implemented by APIs that keep per-repository state. A
// converter opens one session per conversion instead of calling the API
// directly, so nothing outlives the conversion that produced it.
type SessionFactory interface {
	NewSession() Session
}
