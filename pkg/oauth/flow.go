package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/browser"
)

// DefaultListenAddr is the local address receiving the OAuth redirect.
const DefaultListenAddr = "localhost:8888"

// Flow runs the browser based authorization: it opens the consent page,
// waits for one redirect on a local listener and shuts the listener down.
type Flow struct {
	// Addr is the listen address. Ignored when Listener is set.
	// Default: DefaultListenAddr
	Addr string

	// Listener, when set, is used instead of listening on Addr.
	Listener net.Listener

	// AuthURL is the consent page. The server state is appended to it.
	AuthURL string

	Server *Server
	Logger hclog.Logger

	// OpenURL opens the consent page.
	// Default: browser.OpenURL
	OpenURL func(url string) error

	// ShutdownTimeout bounds the graceful listener shutdown.
	// Default: 5 seconds
	ShutdownTimeout time.Duration
}

// ConsentURL appends the state parameter to authURL.
func ConsentURL(authURL, state string) (string, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorization URL: %w", err)
	}
	q := u.Query()
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run blocks until the redirect has been handled, the listener fails or ctx
// is done. The listener is closed before Run returns.
func (f *Flow) Run(ctx context.Context) error {
	logger := f.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	openURL := f.OpenURL
	if openURL == nil {
		openURL = browser.OpenURL
	}
	shutdownTimeout := f.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 5 * time.Second
	}

	consentURL, err := ConsentURL(f.AuthURL, f.Server.State())
	if err != nil {
		return err
	}

	ln := f.Listener
	if ln == nil {
		addr := f.Addr
		if addr == "" {
			addr = DefaultListenAddr
		}
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("error listening on %s: %w", addr, err)
		}
	}

	srv := &http.Server{
		Handler:           f.Server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logger.Info("waiting for OAuth redirect", "addr", ln.Addr().String())
	if err := openURL(consentURL); err != nil {
		logger.Warn("unable to open browser, visit the authorization URL manually",
			"url", consentURL, "error", err)
	}

	var result error
	select {
	case result = <-f.Server.Done():
	case err := <-serveErr:
		result = fmt.Errorf("error serving OAuth redirect: %w", err)
	case <-ctx.Done():
		result = fmt.Errorf("gave up waiting for OAuth redirect: %w", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("error shutting down listener: %w", err))
	}

	return result
}
