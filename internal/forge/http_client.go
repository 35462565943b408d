package forge

import (
	stderrors "errors"
	"net/http"
	"time"
)

const maxRedirects = 5

// NewHTTPClient returns a client with a request timeout and a bounded
// redirect chain. Raw downloads redirect across hosts, so only the count is
// limited.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return stderrors.New("too many redirects")
			}
			return nil
		},
	}
}
