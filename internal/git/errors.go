package git

import (
	stderrors "errors"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

// classifyCloneError maps go-git clone failures onto classified errors so the
// fetcher's retry policy treats them like their REST counterparts.
func classifyCloneError(url string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed):
		return errors.AuthError("clone requires authentication").
			WithCause(err).
			WithContext("url", url).
			Build()
	case stderrors.Is(err, transport.ErrRepositoryNotFound):
		return errors.NotFoundError("repository not found").
			WithCause(err).
			WithContext("url", url).
			Build()
	case stderrors.Is(err, transport.ErrEmptyRemoteRepository):
		return errors.NotFoundError("repository is empty").
			WithCause(err).
			WithContext("url", url).
			Build()
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "invalid username or password"):
		return errors.AuthError("clone requires authentication").WithCause(err).WithContext("url", url).Build()
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return errors.NotFoundError("repository not found").WithCause(err).WithContext("url", url).Build()
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return errors.RateLimitError(errors.RateLimitMessage).WithCause(err).WithContext("url", url).Build()
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		return errors.ValidationError("unsupported clone protocol").WithCause(err).WithContext("url", url).Build()
	}
	return errors.GitError("clone failed").WithCause(err).WithContext("url", url).Build()
}
