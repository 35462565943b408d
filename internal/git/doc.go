// Package git provides a content source backed by a shallow, in-memory clone
// of a repository. It implements source.API so a conversion can run without
// the GitHub REST API, e.g. against self-hosted mirrors or when the API rate
// limit is exhausted.
package git
