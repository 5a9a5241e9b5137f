package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	// DefaultTokenURL is the Notion OAuth token endpoint.
	DefaultTokenURL = "https://api.notion.com/v1/oauth/token"

	// DefaultRedirectURL must match the redirect URI registered for the
	// integration.
	DefaultRedirectURL = "http://localhost:8888/redirect"

	notionVersion = "2022-06-28"
)

// Config contains the OAuth client credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string

	// AuthURL is the consent page opened in the browser.
	AuthURL string

	// TokenURL is where authorization codes are exchanged.
	// Default: DefaultTokenURL
	TokenURL string

	// RedirectURL is sent with the exchange and determines the local
	// listener path.
	// Default: DefaultRedirectURL
	RedirectURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.AuthURL, validation.Required, is.URL),
		validation.Field(&c.TokenURL, validation.Required, is.URL),
		validation.Field(&c.RedirectURL, validation.Required, is.URL),
	)
}

func (c *Config) applyDefaults() {
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.RedirectURL == "" {
		c.RedirectURL = DefaultRedirectURL
	}
}

// TokenExchanger trades an authorization code for a token response.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (json.RawMessage, error)
}

// Exchanger performs the authorization code exchange against the token
// endpoint.
type Exchanger struct {
	config *Config
	client *http.Client
}

var _ TokenExchanger = (*Exchanger)(nil)

// NewExchanger creates an Exchanger. A nil client gets a 30 second timeout.
func NewExchanger(cfg *Config, client *http.Client) (*Exchanger, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid oauth config: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Exchanger{config: cfg, client: client}, nil
}

type exchangeRequest struct {
	GrantType   string `json:"grant_type"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// Exchange posts the code with basic auth client credentials and returns the
// response body verbatim.
func (e *Exchanger) Exchange(ctx context.Context, code string) (json.RawMessage, error) {
	body, err := json.Marshal(exchangeRequest{
		GrantType:   "authorization_code",
		Code:        code,
		RedirectURI: e.config.RedirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(e.config.ClientID, e.config.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var oauthErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
			Message          string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &oauthErr); err == nil {
			if msg := firstNonEmpty(oauthErr.ErrorDescription, oauthErr.Message, oauthErr.Error); msg != "" {
				return nil, fmt.Errorf("failed to retrieve the OAuth authorization data (status %d): %s", resp.StatusCode, msg)
			}
		}
		return nil, fmt.Errorf("failed to retrieve the OAuth authorization data (status %d): %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("token endpoint returned invalid JSON")
	}

	return json.RawMessage(respBody), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
