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
	"time"

	"appforge/internal/config"
	derrors "appforge/internal/foundation/errors"
)

const defaultBranch = "main"

// Client is a GitHub REST client scoped to the operations the publication
// workflow needs: identity lookup, repository listing and creation, and
// Pages enablement.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewClient creates a new GitHub client from forge configuration.
func NewClient(fg config.ForgeConfig) (*Client, error) {
	if fg.Token == "" {
		return nil, derrors.ConfigError("missing forge token").Build()
	}
	apiURL := fg.APIURL
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		token:      fg.Token,
	}, nil
}

// githubUser represents the authenticated GitHub user.
type githubUser struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// githubRepo represents a GitHub repository.
type githubRepo struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	CloneURL      string     `json:"clone_url"`
	HTMLURL       string     `json:"html_url"`
	DefaultBranch string     `json:"default_branch"`
	Private       bool       `json:"private"`
	CreatedAt     time.Time  `json:"created_at"`
	Owner         githubUser `json:"owner"`
}

// CurrentUser returns the authenticated identity.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, err
	}
	var gu githubUser
	if err := c.doRequest(req, &gu); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryForge, "failed to resolve authenticated user").Build()
	}
	return &User{ID: gu.ID, Login: gu.Login, Name: gu.Name}, nil
}

// ListRepositories returns all repositories owned by the authenticated user,
// following pagination. Iteration order is the order GitHub returns, which is
// what round-2 prefix resolution relies on.
func (c *Client) ListRepositories(ctx context.Context) ([]*Repository, error) {
	var all []*Repository
	page := 1
	perPage := 100

	for {
		endpoint := fmt.Sprintf("/user/repos?affiliation=owner&per_page=%d&page=%d", perPage, page)
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		var repos []githubRepo
		if err := c.doRequest(req, &repos); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryForge, "failed to list repositories").Build()
		}
		if len(repos) == 0 {
			break
		}
		for i := range repos {
			all = append(all, convertRepo(&repos[i]))
		}
		if len(repos) < perPage {
			break
		}
		page++
	}
	return all, nil
}

// CreateRepository creates a new public, non-auto-initialized repository under
// the authenticated user. Failures (name already exists, authorization) wrap
// the service's error text and are not retried.
func (c *Client) CreateRepository(ctx context.Context, name string) (*Repository, error) {
	payload := map[string]any{
		"name":        name,
		"private":     false,
		"auto_init":   false,
		"description": "Auto-generated repository for automated app deployment",
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/user/repos", payload)
	if err != nil {
		return nil, err
	}
	var gr githubRepo
	if err := c.doRequest(req, &gr); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryForge, "repository creation failed").
			WithContext("repository", name).
			Build()
	}
	return convertRepo(&gr), nil
}

// EnablePages enables static-site hosting from the main branch root.
// Callers treat failure as best-effort: a site that fails to enable hosting
// still counts as a successful publish.
func (c *Client) EnablePages(ctx context.Context, owner, repo string) error {
	payload := map[string]any{
		"source": map[string]string{
			"branch": defaultBranch,
			"path":   "/",
		},
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/pages", owner, repo)
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	if err := c.doRequest(req, nil); err != nil {
		return derrors.WrapError(err, derrors.CategoryForge, "failed to enable pages").
			WithContext("repository", repo).
			Warning().
			Build()
	}
	return nil
}

func convertRepo(gr *githubRepo) *Repository {
	branch := gr.DefaultBranch
	if branch == "" {
		branch = defaultBranch
	}
	return &Repository{
		ID:            gr.ID,
		Name:          gr.Name,
		FullName:      gr.FullName,
		Owner:         gr.Owner.Login,
		CloneURL:      gr.CloneURL,
		HTMLURL:       gr.HTMLURL,
		DefaultBranch: branch,
		Private:       gr.Private,
		CreatedAt:     gr.CreatedAt,
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, err
	}
	// Join only the path portion; the endpoint may carry a query string.
	rawPath := endpoint
	rawQuery := ""
	if i := strings.Index(endpoint, "?"); i >= 0 {
		rawPath, rawQuery = endpoint[:i], endpoint[i+1:]
	}
	u.Path = path.Join(u.Path, rawPath)
	u.RawQuery = rawQuery

	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(string(jsonBody)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, err
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "AppForge/1.0")
	return req, nil
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Surface the service's own diagnostic text; callers wrap with context.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return fmt.Errorf("GitHub API error: %s", resp.Status)
		}
		return fmt.Errorf("GitHub API error: %s: %s", resp.Status, msg)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
