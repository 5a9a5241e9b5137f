package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// ErrStateMismatch is returned when the redirect carries a state parameter
// that was not issued by this process.
var ErrStateMismatch = errors.New("state parameter mismatch")

const successMessage = "Successfully retrieved OAuth authorization data. You can close this page."

// Server handles the single OAuth redirect.
//
// Requests to the redirect path trigger the code exchange and complete the
// server whether the exchange succeeds or fails. Any other path gets a 404 and
// leaves the server waiting.
type Server struct {
	exchanger    TokenExchanger
	store        *TokenStore
	logger       hclog.Logger
	redirectPath string
	state        string

	once sync.Once
	done chan error
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Exchanger TokenExchanger
	Store     *TokenStore
	Logger    hclog.Logger

	// RedirectPath is matched as a prefix of the request path.
	// Default: "/redirect"
	RedirectPath string

	// State is the expected state parameter. Empty generates a random one.
	State string
}

// NewServer creates a redirect handler.
func NewServer(opts ServerOptions) *Server {
	if opts.RedirectPath == "" {
		opts.RedirectPath = "/redirect"
	}
	if opts.State == "" {
		opts.State = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	return &Server{
		exchanger:    opts.Exchanger,
		store:        opts.Store,
		logger:       opts.Logger,
		redirectPath: opts.RedirectPath,
		state:        opts.State,
		done:         make(chan error, 1),
	}
}

// State returns the state parameter the redirect must carry.
func (s *Server) State() string {
	return s.state
}

// Done receives exactly one value: the outcome of the first redirect.
func (s *Server) Done() <-chan error {
	return s.done
}

func (s *Server) finish(err error) {
	s.once.Do(func() {
		s.done <- err
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, s.redirectPath) {
		writeText(w, http.StatusNotFound, "404 Not Found")
		return
	}

	if err := s.handleRedirect(r); err != nil {
		s.logger.Error("error handling OAuth redirect", "error", err)
		writeText(w, http.StatusInternalServerError, err.Error())
		s.finish(err)
		return
	}

	writeText(w, http.StatusOK, successMessage)
	s.finish(nil)
}

func (s *Server) handleRedirect(r *http.Request) error {
	query := r.URL.Query()

	if oauthErr := query.Get("error"); oauthErr != "" {
		return fmt.Errorf("authorization was not granted: %s", oauthErr)
	}
	if state := query.Get("state"); state != s.state {
		return ErrStateMismatch
	}

	code := query.Get("code")
	if code == "" {
		return errors.New("redirect did not include an authorization code")
	}

	raw, err := s.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return err
	}

	if err := s.store.Save(raw); err != nil {
		return err
	}

	var info struct {
		WorkspaceName string `json:"workspace_name"`
		BotID         string `json:"bot_id"`
	}
	if err := json.Unmarshal(raw, &info); err == nil {
		s.logger.Info("stored OAuth authorization data",
			"path", s.store.Path(),
			"workspace", info.WorkspaceName,
			"bot_id", info.BotID,
		)
	}

	return nil
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}
