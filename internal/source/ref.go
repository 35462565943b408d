package source

import (
	"fmt"
	"net/url"
	"strings"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

// RepositoryRef identifies a repository by owner and name.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// NewRef returns a validated reference.
func NewRef(owner, name string) (RepositoryRef, error) {
	ref := RepositoryRef{Owner: strings.TrimSpace(owner), Name: strings.TrimSpace(name)}
	if err := ref.Validate(); err != nil {
		return RepositoryRef{}, err
	}
	return ref, nil
}

// Validate fails with an InvalidReference error when owner or name is empty
// or contains a path separator.
func (r RepositoryRef) Validate() error {
	owner, name := strings.TrimSpace(r.Owner), strings.TrimSpace(r.Name)
	if owner == "" || name == "" || strings.ContainsAny(owner, `/\`) || strings.ContainsAny(name, `/\`) {
		return derrors.InvalidReference(r.Owner, r.Name)
	}
	return nil
}

// String renders the reference as owner/name.
func (r RepositoryRef) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

var githubHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
}

// ParseRef accepts owner/name, github.com/owner/name and GitHub web or clone
// URLs (with optional .git suffix and trailing /tree/... or /blob/... parts).
func ParseRef(input string) (RepositoryRef, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return RepositoryRef{}, derrors.InvalidReference("", "")
	}

	p := raw
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil || !githubHosts[strings.ToLower(u.Host)] {
			return RepositoryRef{}, derrors.ValidationError("unsupported repository URL").
				WithCause(err).
				WithContext("input", raw).
				Build()
		}
		p = u.Path
	case strings.HasPrefix(strings.ToLower(raw), "github.com/"), strings.HasPrefix(strings.ToLower(raw), "www.github.com/"):
		p = raw[strings.Index(raw, "/")+1:]
	case strings.HasPrefix(raw, "git@github.com:"):
		p = strings.TrimPrefix(raw, "git@github.com:")
	}

	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) < 2 {
		return RepositoryRef{}, derrors.InvalidReference(segments[0], "")
	}
	if len(segments) > 2 && segments[2] != "tree" && segments[2] != "blob" {
		return RepositoryRef{}, derrors.InvalidReference(segments[0], strings.Join(segments[1:], "/"))
	}
	return NewRef(segments[0], strings.TrimSuffix(segments[1], ".git"))
}
