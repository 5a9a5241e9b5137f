package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Client is a minimal Notion REST client covering the pages, blocks,
// databases and users endpoints.
//
// Requests are issued one at a time and are never retried; a failed call is
// returned to the caller as-is.
type Client struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// APIError is the error object returned by the Notion API for non-2xx
// responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion API error (status %d, code %s): %s", e.Status, e.Code, e.Message)
}

// NewClient creates a new Notion API client.
func NewClient(cfg *Config) (*Client, error) {
	// Apply defaults
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notion client config: %w", err)
	}

	return &Client{
		config: cfg,
		client: cfg.NewHTTPClient(),
		logger: cfg.Logger.Named("notion"),
	}, nil
}

// doRequest executes a single API request and decodes the response into
// result.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, result any) error {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Notion-Version", c.config.Version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Trace("sending request", "method", method, "path", path)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// RetrievePage fetches a single page by id.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	path := fmt.Sprintf("/v1/pages/%s", url.PathEscape(pageID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to retrieve page %s: %w", pageID, err)
	}
	return &page, nil
}

// ListBlockChildren returns one batch of the children of a block. An empty
// cursor starts from the beginning.
func (c *Client) ListBlockChildren(ctx context.Context, blockID, cursor string) (*BlockList, error) {
	query := url.Values{}
	query.Set("page_size", fmt.Sprint(MaxPageSize))
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}

	var blocks BlockList
	path := fmt.Sprintf("/v1/blocks/%s/children", url.PathEscape(blockID))
	if err := c.doRequest(ctx, http.MethodGet, path, query, nil, &blocks); err != nil {
		return nil, fmt.Errorf("failed to list children of block %s: %w", blockID, err)
	}
	return &blocks, nil
}

// RetrieveDatabase fetches database metadata by id.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	path := fmt.Sprintf("/v1/databases/%s", url.PathEscape(databaseID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &db); err != nil {
		return nil, fmt.Errorf("failed to retrieve database %s: %w", databaseID, err)
	}
	return &db, nil
}

type queryDatabaseRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// QueryDatabase returns one batch of database rows. An empty cursor starts
// from the first row.
func (c *Client) QueryDatabase(ctx context.Context, databaseID, cursor string) (*PageList, error) {
	body := queryDatabaseRequest{
		StartCursor: cursor,
		PageSize:    MaxPageSize,
	}

	var pages PageList
	path := fmt.Sprintf("/v1/databases/%s/query", url.PathEscape(databaseID))
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &pages); err != nil {
		return nil, fmt.Errorf("failed to query database %s: %w", databaseID, err)
	}
	return &pages, nil
}

// ListUsers returns the first batch of workspace users. pageSize is clamped
// to MaxPageSize.
func (c *Client) ListUsers(ctx context.Context, pageSize int) (*UserList, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	query := url.Values{}
	query.Set("page_size", fmt.Sprint(pageSize))

	var users UserList
	if err := c.doRequest(ctx, http.MethodGet, "/v1/users", query, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &users, nil
}
