package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenResponse = `{"access_token":"secret_abc","token_type":"bearer","bot_id":"bot-1","workspace_name":"Acme"}`

// fakeExchanger returns a canned response and records the codes it saw.
type fakeExchanger struct {
	raw   json.RawMessage
	err   error
	codes []string
}

func (f *fakeExchanger) Exchange(_ context.Context, code string) (json.RawMessage, error) {
	f.codes = append(f.codes, code)
	return f.raw, f.err
}

func newTestServer(exchanger TokenExchanger, fs afero.Fs) *Server {
	return NewServer(ServerOptions{
		Exchanger: exchanger,
		Store:     NewTokenStore(fs, ""),
		Logger:    hclog.NewNullLogger(),
		State:     "state-1",
	})
}

func TestExchanger_Exchange(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, notionVersion, r.Header.Get("Notion-Version"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "authorization_code", body["grant_type"])
		assert.Equal(t, "code-123", body["code"])
		assert.Equal(t, DefaultRedirectURL, body["redirect_uri"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tokenResponse))
	}))
	defer mockServer.Close()

	exchanger, err := NewExchanger(&Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      "https://api.notion.com/v1/oauth/authorize?owner=user",
		TokenURL:     mockServer.URL + "/v1/oauth/token",
	}, nil)
	require.NoError(t, err)

	raw, err := exchanger.Exchange(context.Background(), "code-123")
	require.NoError(t, err)
	assert.JSONEq(t, tokenResponse, string(raw))
}

func TestExchanger_Exchange_Failure(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid code."}`))
	}))
	defer mockServer.Close()

	exchanger, err := NewExchanger(&Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      "https://api.notion.com/v1/oauth/authorize",
		TokenURL:     mockServer.URL,
	}, nil)
	require.NoError(t, err)

	raw, err := exchanger.Exchange(context.Background(), "bad")
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "Invalid code.")
}

func TestNewExchanger_Validation(t *testing.T) {
	_, err := NewExchanger(&Config{AuthURL: "https://example.com"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid oauth config")
}

func TestTokenStore_SaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewTokenStore(fs, "")
	assert.Equal(t, DefaultTokenFile, store.Path())

	require.NoError(t, store.Save(json.RawMessage(tokenResponse)))

	data, err := afero.ReadFile(fs, DefaultTokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"access_token\": \"secret_abc\"")
	assert.Contains(t, string(data), "workspace_name", "token response is stored verbatim")

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret_abc", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())

	ts, err := store.TokenSource()
	require.NoError(t, err)
	fromSource, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret_abc", fromSource.AccessToken)
}

func TestTokenStore_Load_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewTokenStore(fs, "token.json")

	_, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the auth command first")

	require.NoError(t, afero.WriteFile(fs, "token.json", []byte("{not json"), 0o600))
	_, err = store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing token file")

	require.NoError(t, afero.WriteFile(fs, "token.json", []byte(`{"bot_id":"b"}`), 0o600))
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestServer_Redirect_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	exchanger := &fakeExchanger{raw: json.RawMessage(tokenResponse)}
	srv := newTestServer(exchanger, fs)

	req := httptest.NewRequest(http.MethodGet, "/redirect?code=abc&state=state-1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, successMessage, w.Body.String())
	assert.Equal(t, []string{"abc"}, exchanger.codes)

	select {
	case err := <-srv.Done():
		assert.NoError(t, err)
	default:
		t.Fatal("expected server to signal completion")
	}

	exists, err := afero.Exists(fs, DefaultTokenFile)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestServer_Redirect_ExchangeFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	exchanger := &fakeExchanger{err: errors.New("Failed to retrieve the OAuth authorization data.")}
	srv := newTestServer(exchanger, fs)

	req := httptest.NewRequest(http.MethodGet, "/redirect?code=abc&state=state-1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to retrieve the OAuth authorization data.")

	select {
	case err := <-srv.Done():
		assert.Error(t, err)
	default:
		t.Fatal("expected server to signal completion on failure")
	}

	exists, _ := afero.Exists(fs, DefaultTokenFile)
	assert.False(t, exists)
}

func TestServer_Redirect_Rejected(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"StateMismatch", "code=abc&state=other", ErrStateMismatch.Error()},
		{"MissingCode", "state=state-1", "authorization code"},
		{"AccessDenied", "error=access_denied&state=state-1", "access_denied"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exchanger := &fakeExchanger{raw: json.RawMessage(tokenResponse)}
			srv := newTestServer(exchanger, afero.NewMemMapFs())

			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/redirect?"+tc.query, nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
			assert.Empty(t, exchanger.codes)
			assert.Error(t, <-srv.Done())
		})
	}
}

func TestServer_UnmatchedPath(t *testing.T) {
	exchanger := &fakeExchanger{raw: json.RawMessage(tokenResponse)}
	srv := newTestServer(exchanger, afero.NewMemMapFs())

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "404 Not Found", w.Body.String())
	assert.Empty(t, exchanger.codes)

	select {
	case <-srv.Done():
		t.Fatal("unmatched paths must not complete the server")
	default:
	}
}

func TestServer_CompletesOnce(t *testing.T) {
	exchanger := &fakeExchanger{raw: json.RawMessage(tokenResponse)}
	srv := newTestServer(exchanger, afero.NewMemMapFs())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/redirect?code=abc&state=state-1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.NoError(t, <-srv.Done())
	select {
	case <-srv.Done():
		t.Fatal("completion must be signalled exactly once")
	default:
	}
}

func TestConsentURL(t *testing.T) {
	got, err := ConsentURL("https://api.notion.com/v1/oauth/authorize?client_id=c&owner=user", "s1")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "c", u.Query().Get("client_id"))
	assert.Equal(t, "user", u.Query().Get("owner"))
	assert.Equal(t, "s1", u.Query().Get("state"))
}

func TestFlow_Run_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	srv := newTestServer(&fakeExchanger{raw: json.RawMessage(tokenResponse)}, fs)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := fmt.Sprintf("http://%s", ln.Addr().String())

	var opened string
	responses := make(chan string, 2)
	flow := &Flow{
		Listener: ln,
		AuthURL:  "https://api.notion.com/v1/oauth/authorize?owner=user",
		Server:   srv,
		Logger:   hclog.NewNullLogger(),
		OpenURL: func(consentURL string) error {
			opened = consentURL
			go func() {
				// Unrelated requests must not end the flow.
				for _, path := range []string{"/favicon.ico", "/redirect?code=abc&state=state-1"} {
					resp, err := http.Get(base + path)
					if err != nil {
						responses <- err.Error()
						continue
					}
					body, _ := io.ReadAll(resp.Body)
					resp.Body.Close()
					responses <- fmt.Sprintf("%d %s", resp.StatusCode, body)
				}
			}()
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, flow.Run(ctx))
	assert.Contains(t, opened, "state=state-1")
	assert.Equal(t, "404 404 Not Found", <-responses)
	assert.Equal(t, "200 "+successMessage, <-responses)

	tok, err := NewTokenStore(fs, "").Load()
	require.NoError(t, err)
	assert.Equal(t, "secret_abc", tok.AccessToken)

	_, err = net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	assert.Error(t, err, "listener must be closed after the flow")
}

func TestFlow_Run_Timeout(t *testing.T) {
	srv := newTestServer(&fakeExchanger{raw: json.RawMessage(tokenResponse)}, afero.NewMemMapFs())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	flow := &Flow{
		Listener: ln,
		AuthURL:  "https://api.notion.com/v1/oauth/authorize",
		Server:   srv,
		OpenURL:  func(string) error { return errors.New("no browser") },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = flow.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	assert.Error(t, err, "listener must be closed after a timeout")
}
