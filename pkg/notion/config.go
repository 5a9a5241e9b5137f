package notion

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"

	// MaxPageSize is the largest page size accepted by list and query endpoints.
	MaxPageSize = 100
)

// Config contains configuration for the Notion API client.
type Config struct {
	// BaseURL is the API root, without the /v1 prefix.
	// Default: "https://api.notion.com"
	BaseURL string

	// Version is sent as the Notion-Version header.
	// Default: "2022-06-28"
	Version string

	// Timeout bounds every single API request.
	// Default: 30 seconds
	Timeout time.Duration

	// TokenSource supplies the bearer token obtained by the auth command.
	TokenSource oauth2.TokenSource

	Logger hclog.Logger
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Version: DefaultVersion,
		Timeout: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.TokenSource, validation.NotNil),
	)
}

// NewHTTPClient creates an HTTP client that attaches the bearer token to every
// request.
func (c *Config) NewHTTPClient() *http.Client {
	base := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	client := oauth2.NewClient(ctx, c.TokenSource)
	client.Timeout = c.Timeout
	return client
}
