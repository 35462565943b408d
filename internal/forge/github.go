package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	contentsPageSize = 100
	maxContentBytes  = 10 * 1024 * 1024
)

// GitHubOptions configures a GitHubClient.
type GitHubOptions struct {
	APIURL     string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
}

// GitHubClient implements source.API for GitHub.
type GitHubClient struct {
	*BaseForge
	apiHost string
}

var _ source.API = (*GitHubClient)(nil)

// NewGitHubClient creates a new GitHub content client. The token is optional;
// anonymous access works for public repositories at a lower rate limit.
func NewGitHubClient(opts GitHubOptions) (*GitHubClient, error) {
	apiURL := strings.TrimSpace(opts.APIURL)
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("invalid GitHub API URL").
			WithCause(err).
			WithContext("api_url", apiURL).
			Build()
	}

	base := NewBaseForge(opts.HTTPClient, apiURL, opts.Token)
	base.SetUserAgent(opts.UserAgent)
	base.SetCustomHeader("Accept", "application/vnd.github+json")
	base.SetCustomHeader("X-GitHub-Api-Version", "2022-11-28")

	return &GitHubClient{BaseForge: base, apiHost: u.Host}, nil
}

type githubRepo struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
}

type githubContent struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Type        string  `json:"type"`
	Size        int64   `json:"size"`
	DownloadURL *string `json:"download_url"`
}

// Metadata returns repository metadata (GET /repos/{owner}/{repo}).
func (c *GitHubClient) Metadata(ctx context.Context, ref source.RepositoryRef) (source.RepositoryMetadata, error) {
	req, err := c.NewRequest(ctx, fmt.Sprintf("repos/%s/%s", url.PathEscape(ref.Owner), url.PathEscape(ref.Name)))
	if err != nil {
		return source.RepositoryMetadata{}, err
	}
	var repo githubRepo
	if _, err := c.DoRequest(req, &repo); err != nil {
		return source.RepositoryMetadata{}, err
	}
	meta := source.RepositoryMetadata{Name: repo.Name, HomeURL: repo.HTMLURL}
	if repo.Description != nil {
		meta.Description = *repo.Description
	}
	if meta.Name == "" {
		meta.Name = ref.Name
	}
	return meta, nil
}

// Contents lists a directory (GET /repos/{owner}/{repo}/contents/{path}).
// Pages are followed through the Link header when the API paginates.
func (c *GitHubClient) Contents(ctx context.Context, ref source.RepositoryRef, dir string) ([]source.RemoteEntry, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/contents", url.PathEscape(ref.Owner), url.PathEscape(ref.Name))
	if p := strings.Trim(dir, "/"); p != "" {
		endpoint += "/" + EscapePath(p)
	}

	items, err := PaginatedFetchHelper(ctx, endpoint, "page", "per_page", contentsPageSize,
		func(ep string) ([]githubContent, bool, error) {
			req, err := c.NewRequest(ctx, ep)
			if err != nil {
				return nil, false, err
			}
			var page []githubContent
			headers, err := c.DoRequest(req, &page)
			if err != nil {
				return nil, false, err
			}
			return page, hasNextPage(headers), nil
		})
	if err != nil {
		return nil, err
	}

	entries := make([]source.RemoteEntry, 0, len(items))
	for _, item := range items {
		entry := source.RemoteEntry{
			Path: item.Path,
			Name: item.Name,
			Size: item.Size,
		}
		switch item.Type {
		case "dir":
			entry.Kind = source.KindDir
		case "file":
			entry.Kind = source.KindFile
			if item.DownloadURL != nil {
				entry.ContentLocator = *item.DownloadURL
			}
		default:
			// symlinks and submodules carry no downloadable content
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Content downloads the raw file behind a download URL. The token is only
// sent to the API host itself.
func (c *GitHubClient) Content(ctx context.Context, locator string) ([]byte, error) {
	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.ValidationError("invalid content locator").
			WithCause(err).
			WithContext("locator", locator).
			Build()
	}
	req, err := c.newRequestURL(ctx, locator, u.Host == c.apiHost)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	return c.DoRaw(req, maxContentBytes)
}
