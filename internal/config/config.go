package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/notion-helper/pkg/kb"
	"github.com/hashicorp-forge/notion-helper/pkg/notion"
	"github.com/hashicorp-forge/notion-helper/pkg/oauth"
)

// Environment variables read by Load.
const (
	EnvKnowledgeBaseID = "KB_ID"
	EnvClientID        = "OAUTH_CLIENT_ID"
	EnvClientSecret    = "OAUTH_CLIENT_SECRET"
	EnvAuthURL         = "OAUTH_AUTH_URL"
	EnvAPIURL          = "NOTION_API_URL"
	EnvAPIVersion      = "NOTION_VERSION"
	EnvTokenFile       = "NOTION_TOKEN_FILE"
	EnvSnapshotFile    = "NOTION_SNAPSHOT_FILE"
	EnvLogLevel        = "NOTION_HELPER_LOG_LEVEL"
)

// Config is the configuration shared by all commands.
type Config struct {
	// KnowledgeBaseID is the root page holding the knowledge base database.
	KnowledgeBaseID string

	OAuth  OAuth
	Notion Notion

	// TokenFile stores the OAuth token response.
	TokenFile string

	// SnapshotFile receives the JSON snapshot of each read run.
	SnapshotFile string

	LogLevel hclog.Level
}

// OAuth holds the credentials used by the auth command.
type OAuth struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
}

// Notion configures API access.
type Notion struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration using lookup. A missing knowledge base id
// is an error; everything else has a default or is validated by the command
// that needs it.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		KnowledgeBaseID: get(EnvKnowledgeBaseID, ""),
		OAuth: OAuth{
			ClientID:     get(EnvClientID, ""),
			ClientSecret: get(EnvClientSecret, ""),
			AuthURL:      get(EnvAuthURL, ""),
		},
		Notion: Notion{
			BaseURL: get(EnvAPIURL, notion.DefaultBaseURL),
			Version: get(EnvAPIVersion, notion.DefaultVersion),
			Timeout: 30 * time.Second,
		},
		TokenFile:    get(EnvTokenFile, oauth.DefaultTokenFile),
		SnapshotFile: get(EnvSnapshotFile, kb.DefaultSnapshotFile),
		LogLevel:     hclog.LevelFromString(get(EnvLogLevel, "info")),
	}

	if cfg.LogLevel == hclog.NoLevel {
		return nil, fmt.Errorf("invalid %s: %q", EnvLogLevel, get(EnvLogLevel, ""))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	return validation.Errors{
		EnvKnowledgeBaseID: validation.Validate(c.KnowledgeBaseID,
			validation.Required.Error("provide knowledge base id")),
		EnvAPIURL:       validation.Validate(c.Notion.BaseURL, validation.Required, is.URL),
		EnvTokenFile:    validation.Validate(c.TokenFile, validation.Required),
		EnvSnapshotFile: validation.Validate(c.SnapshotFile, validation.Required),
	}.Filter()
}

// Validate checks the settings required by the auth command.
func (o *OAuth) Validate() error {
	return validation.Errors{
		EnvClientID:     validation.Validate(o.ClientID, validation.Required),
		EnvClientSecret: validation.Validate(o.ClientSecret, validation.Required),
		EnvAuthURL:      validation.Validate(o.AuthURL, validation.Required, is.URL),
	}.Filter()
}
