package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

const (
	defaultUserAgent = "TailZen/1.0"
	maxErrorBody     = 512
)

// BaseForge provides common HTTP operations for content API clients.
type BaseForge struct {
	httpClient *http.Client
	apiURL     string
	token      string
	userAgent  string

	authHeaderPrefix string
	customHeaders    map[string]string
}

// NewBaseForge creates a BaseForge with common HTTP client settings.
func NewBaseForge(httpClient *http.Client, apiURL, token string) *BaseForge {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &BaseForge{
		httpClient:       httpClient,
		apiURL:           apiURL,
		token:            token,
		userAgent:        defaultUserAgent,
		authHeaderPrefix: "Bearer ",
		customHeaders:    make(map[string]string),
	}
}

// SetAuthHeaderPrefix customizes the authorization header format.
func (b *BaseForge) SetAuthHeaderPrefix(prefix string) {
	b.authHeaderPrefix = prefix
}

// SetCustomHeader sets a header sent with every request.
func (b *BaseForge) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

// SetUserAgent overrides the User-Agent header.
func (b *BaseForge) SetUserAgent(ua string) {
	if ua != "" {
		b.userAgent = ua
	}
}

// NewRequest creates a GET request for an endpoint relative to the API URL.
// Endpoint may carry a query string ("repos/o/n/contents/css?page=2"); its
// path must be escaped (see EscapePath) so a literal "?" cannot start one.
func (b *BaseForge) NewRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}
	unescaped, err := url.PathUnescape(cleanEndpoint)
	if err != nil {
		return nil, errors.ValidationError("invalid endpoint path").
			WithCause(err).
			WithContext("endpoint", endpoint).
			Build()
	}
	cleanEndpoint = unescaped

	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil, errors.ConfigError("failed to parse API URL").
			WithCause(err).
			WithContext("api_url", b.apiURL).
			Build()
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}
	return b.newRequestURL(ctx, u.String(), true)
}

func (b *BaseForge) newRequestURL(ctx context.Context, target string, withAuth bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, errors.ForgeError("failed to create request").
			WithCause(err).
			WithContext("url", target).
			Build()
	}
	if withAuth && b.token != "" {
		req.Header.Set("Authorization", b.authHeaderPrefix+b.token)
	}
	req.Header.Set("User-Agent", b.userAgent)
	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

// DoRequest executes a request and decodes a JSON response into result.
// Response headers are returned for pagination.
func (b *BaseForge) DoRequest(req *http.Request, result any) (http.Header, error) {
	resp, err := b.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, errors.ForgeError("failed to decode response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}
	return resp.Header, nil
}

// DoRaw executes a request and returns at most limit bytes of the body.
func (b *BaseForge) DoRaw(req *http.Request, limit int64) ([]byte, error) {
	resp, err := b.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.NetworkError("failed to read response body").
			WithCause(err).
			WithContext("url", req.URL.String()).
			Build()
	}
	if int64(len(data)) > limit {
		return nil, errors.NewError(errors.CategoryForge, "response too large").
			WithContext("url", req.URL.String()).
			WithContext("limit", limit).
			Build()
	}
	return data, nil
}

func (b *BaseForge) do(req *http.Request) (*http.Response, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NetworkError("failed to execute request").
			WithCause(err).
			WithContext("url", req.URL.String()).
			Build()
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, classifyResponse(req, resp)
	}
	return resp, nil
}

// IsRateLimitResponse reports whether a response signals exhausted quota:
// 429, or 403 with X-RateLimit-Remaining: 0.
func IsRateLimitResponse(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining")) == "0"
}

func classifyResponse(req *http.Request, resp *http.Response) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

	var builder *errors.ErrorBuilder
	switch {
	case IsRateLimitResponse(resp):
		builder = errors.RateLimitError(errors.RateLimitMessage).
			WithContext("reset", resp.Header.Get("X-RateLimit-Reset"))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		builder = errors.AuthError(fmt.Sprintf("content API denied access: %s", resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		builder = errors.NotFoundError(fmt.Sprintf("content API error: %s", resp.Status))
	case resp.StatusCode >= 500:
		builder = errors.NetworkError(fmt.Sprintf("content API error: %s", resp.Status))
	default:
		builder = errors.NewError(errors.CategoryForge, fmt.Sprintf("content API error: %s", resp.Status))
	}
	return builder.
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", bodyStr).
		Build()
}

// PaginatedFetchHelper performs paginated API requests. fetchPage receives the
// full endpoint for each page and reports whether more pages follow.
func PaginatedFetchHelper[T any](
	ctx context.Context,
	baseEndpoint string,
	pageParam string,
	limitParam string,
	pageSize int,
	fetchPage func(endpoint string) ([]T, bool, error),
) ([]T, error) {
	var allResults []T
	page := 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sep := "?"
		if strings.Contains(baseEndpoint, "?") {
			sep = "&"
		}
		endpoint := fmt.Sprintf("%s%s%s=%d&%s=%d", baseEndpoint, sep, pageParam, page, limitParam, pageSize)

		pageResults, hasMore, err := fetchPage(endpoint)
		if err != nil {
			return nil, err
		}

		allResults = append(allResults, pageResults...)

		if !hasMore || len(pageResults) < pageSize {
			break
		}
		page++
	}

	return allResults, nil
}

// EscapePath escapes every segment of a slash-separated repository path.
func EscapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// hasNextPage inspects a GitHub Link header for rel="next".
func hasNextPage(h http.Header) bool {
	for _, link := range h.Values("Link") {
		for part := range strings.SplitSeq(link, ",") {
			if strings.Contains(part, `rel="next"`) {
				return true
			}
		}
	}
	return false
}
