// Package session owns the authorization state of the delivery owner.
//
// Only the boolean flag is persisted. The bearer token lives in memory, so
// after a restart the flag may be stale and is revalidated by Restore.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// State of the session.
type State int

const (
	Unauthorized State = iota
	Authorizing
	Authorized
)

func (s State) String() string {
	switch s {
	case Authorizing:
		return "authorizing"
	case Authorized:
		return "authorized"
	default:
		return "unauthorized"
	}
}

// TokenBroker grants and forgets OAuth access tokens.
// GetAuthToken returns ("", nil) when it holds no token at all and an error
// when a held token could not be refreshed.
type TokenBroker interface {
	GetAuthToken(ctx context.Context, interactive bool) (string, error)
	RemoveCachedAuthToken(ctx context.Context, token string) error
}

// FlagStore persists the isAuthorized flag.
type FlagStore interface {
	IsAuthorized(ctx context.Context) (bool, error)
	SetAuthorized(ctx context.Context, authorized bool) error
}

// Session is the in-memory authorization state and bearer token.
type Session struct {
	mu     sync.RWMutex
	state  State
	token  string
	broker TokenBroker
	flags  FlagStore
	logger logger.Logger
}

// New creates an Unauthorized session.
func New(broker TokenBroker, flags FlagStore, log logger.Logger) *Session {
	return &Session{
		state:  Unauthorized,
		broker: broker,
		flags:  flags,
		logger: log,
	}
}

// Authorize requests an interactive grant from the broker.
// Any broker error or empty token leaves the session Unauthorized and the
// returned error carries the broker's message verbatim.
func (s *Session) Authorize(ctx context.Context) error {
	s.mu.Lock()
	s.state = Authorizing
	s.mu.Unlock()

	s.logger.Info("starting authorization")
	token, err := s.broker.GetAuthToken(ctx, true)
	if err == nil && token == "" {
		err = domain.ErrNoToken
	}
	if err != nil {
		s.logger.Error("authorization failed", logger.Error(err))
		s.reset(ctx)
		return &domain.AuthError{Message: err.Error()}
	}

	s.mu.Lock()
	s.state = Authorized
	s.token = token
	s.mu.Unlock()

	s.persist(ctx, true)
	s.logger.Info("authorization successful")
	return nil
}

// Restore is the passive startup check. If the persisted flag says
// authorized, a non-interactive token fetch must succeed, otherwise the
// flag is corrected.
func (s *Session) Restore(ctx context.Context) error {
	authorized, err := s.flags.IsAuthorized(ctx)
	if err != nil {
		return fmt.Errorf("failed to read authorization flag: %w", err)
	}
	s.logger.Info("initial authorization state", logger.Bool("authorized", authorized))
	if !authorized {
		return nil
	}

	token, err := s.broker.GetAuthToken(ctx, false)
	if err != nil || token == "" {
		s.logger.Info("no existing token found, authorization required", logger.Error(err))
		s.reset(ctx)
		return nil
	}

	s.mu.Lock()
	s.state = Authorized
	s.token = token
	s.mu.Unlock()

	s.logger.Info("retrieved existing token")
	return nil
}

// Clear revokes the cached token with the broker, if one is held, and
// unconditionally resets to Unauthorized.
func (s *Session) Clear(ctx context.Context) error {
	s.logger.Info("clearing authorization")
	s.dropToken(ctx)
	return s.setFlag(ctx, false)
}

// Invalidate drops a token the remote API rejected so the next attempt
// forces re-authorization.
func (s *Session) Invalidate(ctx context.Context) {
	s.logger.Warn("token appears to be invalid, clearing it")
	s.dropToken(ctx)
	s.persist(ctx, false)
}

// Token returns the bearer token while Authorized.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authorized || s.token == "" {
		return "", false
	}
	return s.token, true
}

// AccessToken returns a current bearer token while Authorized. The broker
// is asked on every call so an expired token gets refreshed before a send.
// A broker with no token left drops the session to Unauthorized; a broker
// error keeps the held token and lets the remote API judge it.
func (s *Session) AccessToken(ctx context.Context) (string, bool) {
	held, ok := s.Token()
	if !ok {
		return "", false
	}

	token, err := s.broker.GetAuthToken(ctx, false)
	if err != nil {
		s.logger.Warn("failed to refresh token, using the held one", logger.Error(err))
		return held, true
	}
	if token == "" {
		s.logger.Warn("no token available anymore, authorization required")
		s.mu.Lock()
		stale := s.token == held
		s.mu.Unlock()
		if stale {
			s.reset(ctx)
		}
		return "", false
	}
	if token == held {
		return held, true
	}

	s.mu.Lock()
	if s.state != Authorized || s.token != held {
		// cleared or re-authorized while the broker was asked
		token, ok = s.token, s.state == Authorized && s.token != ""
		s.mu.Unlock()
		return token, ok
	}
	s.token = token
	s.mu.Unlock()

	s.logger.Info("auth token refreshed")
	return token, true
}

// Authorized reports whether a usable token is held.
func (s *Session) Authorized() bool {
	_, ok := s.Token()
	return ok
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) dropToken(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.state = Unauthorized
	s.mu.Unlock()

	if token == "" {
		return
	}
	if err := s.broker.RemoveCachedAuthToken(ctx, token); err != nil {
		s.logger.Warn("failed to remove cached token", logger.Error(err))
		return
	}
	s.logger.Info("auth token removed")
}

func (s *Session) reset(ctx context.Context) {
	s.mu.Lock()
	s.state = Unauthorized
	s.token = ""
	s.mu.Unlock()
	s.persist(ctx, false)
}

// persist writes the flag and only logs failures: the in-memory state
// stays authoritative for this process.
func (s *Session) persist(ctx context.Context, authorized bool) {
	if err := s.setFlag(ctx, authorized); err != nil {
		s.logger.Warn("failed to persist authorization flag", logger.Error(err))
	}
}

func (s *Session) setFlag(ctx context.Context, authorized bool) error {
	if s.flags == nil {
		return errors.New("no flag store configured")
	}
	if err := s.flags.SetAuthorized(ctx, authorized); err != nil {
		return fmt.Errorf("failed to persist authorization flag: %w", err)
	}
	return nil
}
