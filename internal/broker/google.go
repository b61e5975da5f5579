// Package broker grants OAuth access tokens for the Google Docs API.
//
// It plays the role of the platform token broker: interactive grants go
// through a loopback redirect with PKCE, non-interactive fetches only use
// the cached (and refreshable) token.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// DocumentsScope grants read/write access to Google Docs.
const DocumentsScope = "https://www.googleapis.com/auth/documents"

const defaultCallbackTimeout = 5 * time.Minute

// Options configures the Google broker.
type Options struct {
	ClientID        string
	ClientSecret    string
	Scopes          []string        // defaults to DocumentsScope
	Endpoint        oauth2.Endpoint // defaults to google.Endpoint
	CallbackTimeout time.Duration   // how long to wait for the consent redirect
	Opener          Opener          // defaults to BrowserOpener
}

// Google implements session.TokenBroker.
type Google struct {
	oauth           oauth2.Config
	cache           *TokenCache
	open            Opener
	callbackTimeout time.Duration
	logger          logger.Logger

	// only one interactive grant at a time
	grantMu sync.Mutex
}

// NewGoogle creates a broker caching tokens in cache.
func NewGoogle(opts Options, cache *TokenCache, log logger.Logger) *Google {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{DocumentsScope}
	}
	endpoint := opts.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	timeout := opts.CallbackTimeout
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}
	open := opts.Opener
	if open == nil {
		open = BrowserOpener(log)
	}

	return &Google{
		oauth: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		cache:           cache,
		open:            open,
		callbackTimeout: timeout,
		logger:          log,
	}
}

// GetAuthToken returns an access token. A cached token is always preferred;
// only interactive calls fall back to the consent flow. Without interaction,
// ("", nil) means no token is cached and a cached token that cannot be
// refreshed is an error.
func (g *Google) GetAuthToken(ctx context.Context, interactive bool) (string, error) {
	token, err := g.cachedToken(ctx)
	if err == nil {
		return token, nil
	}
	noCache := errors.Is(err, ErrNoCachedToken)
	if !interactive {
		if noCache {
			return "", nil
		}
		return "", err
	}
	if !noCache {
		g.logger.Warn("cached token unusable", logger.Error(err))
	}
	if g.oauth.ClientID == "" {
		return "", errors.New("OAuth client id is not configured (CLIPDOC_OAUTH_CLIENT_ID)")
	}
	return g.grant(ctx)
}

// RemoveCachedAuthToken forgets token if it is the cached one.
func (g *Google) RemoveCachedAuthToken(_ context.Context, token string) error {
	tok, err := g.cache.Load()
	if err != nil {
		if errors.Is(err, ErrNoCachedToken) {
			return nil
		}
		return err
	}
	if tok.AccessToken != token {
		return nil
	}
	return g.cache.Delete()
}

// cachedToken loads the cache and refreshes an expired token.
func (g *Google) cachedToken(ctx context.Context) (string, error) {
	tok, err := g.cache.Load()
	if err != nil {
		return "", err
	}

	fresh, err := g.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := g.cache.Save(fresh); err != nil {
			g.logger.Warn("failed to cache refreshed token", logger.Error(err))
		}
	}
	return fresh.AccessToken, nil
}

type callbackResult struct {
	code string
	err  error
}

// grant runs the loopback authorization-code flow.
func (g *Google) grant(ctx context.Context) (string, error) {
	g.grantMu.Lock()
	defer g.grantMu.Unlock()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to open callback listener: %w", err)
	}

	cfg := g.oauth
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/callback"
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	if err := g.open(authURL); err != nil {
		g.logger.Debug("browser launcher unavailable", logger.Error(err))
	}

	timer := time.NewTimer(g.callbackTimeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-results:
	case <-timer.C:
		return "", errors.New("timed out waiting for authorization")
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.err != nil {
		return "", res.err
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := g.cache.Save(tok); err != nil {
		g.logger.Warn("failed to cache token", logger.Error(err))
	}
	return tok.AccessToken, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	var once sync.Once
	deliver := func(r callbackResult) {
		once.Do(func() { results <- r })
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()

		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			msg := e
			if desc := q.Get("error_description"); desc != "" {
				msg = desc
			}
			deliver(callbackResult{err: errors.New(msg)})
			http.Error(w, "Authorization failed: "+msg, http.StatusForbidden)
			return
		}
		code := q.Get("code")
		if code == "" {
			deliver(callbackResult{err: errors.New("authorization response carried no code")})
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		deliver(callbackResult{code: code})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Authorization successful! You can close this tab.\n"))
	})
}
