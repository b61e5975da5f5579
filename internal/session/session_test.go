package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) GetAuthToken(ctx context.Context, interactive bool) (string, error) {
	args := m.Called(ctx, interactive)
	return args.String(0), args.Error(1)
}

func (m *MockBroker) RemoveCachedAuthToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type flagStore struct {
	mu         sync.Mutex
	authorized bool
	writes     int
}

func (f *flagStore) IsAuthorized(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized, nil
}

func (f *flagStore) SetAuthorized(_ context.Context, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized = v
	f.writes++
	return nil
}

func TestAuthorize_Success(t *testing.T) {
	ctx := context.Background()
	broker := new(MockBroker)
	broker.On("GetAuthToken", ctx, true).Return("tok-1", nil).Once()
	flags := &flagStore{}

	s := New(broker, flags, logger.Nop())
	require.NoError(t, s.Authorize(ctx))

	assert.Equal(t, Authorized, s.State())
	token, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)
	assert.True(t, flags.authorized)
	broker.AssertExpectations(t)
}

func TestAuthorize_BrokerErrorIsVerbatim(t *testing.T) {
	ctx := context.Background()
	broker := new(MockBroker)
	broker.On("GetAuthToken", ctx, true).Return("", errors.New("The user did not approve access.")).Once()
	flags := &flagStore{authorized: true}

	s := New(broker, flags, logger.Nop())
	err := s.Authorize(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthorizationFailed)
	assert.Equal(t, "The user did not approve access.", domain.UserMessage(err))
	assert.Equal(t, Unauthorized, s.State())
	assert.False(t, flags.authorized)
}

func TestAuthorize_EmptyToken(t *testing.T) {
	ctx := context.Background()
	broker := new(MockBroker)
	broker.On("GetAuthToken", ctx, true).Return("", nil).Once()

	s := New(broker, &flagStore{}, logger.Nop())
	err := s.Authorize(ctx)

	require.Error(t, err)
	assert.Equal(t, domain.ErrNoToken.Error(), domain.UserMessage(err))
	assert.False(t, s.Authorized())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("flag unset skips broker", func(t *testing.T) {
		broker := new(MockBroker)
		s := New(broker, &flagStore{}, logger.Nop())

		require.NoError(t, s.Restore(ctx))
		assert.Equal(t, Unauthorized, s.State())
		broker.AssertNotCalled(t, "GetAuthToken", mock.Anything, mock.Anything)
	})

	t.Run("flag set and token available", func(t *testing.T) {
		broker := new(MockBroker)
		broker.On("GetAuthToken", ctx, false).Return("cached", nil).Once()
		flags := &flagStore{authorized: true}
		s := New(broker, flags, logger.Nop())

		require.NoError(t, s.Restore(ctx))
		token, ok := s.Token()
		assert.True(t, ok)
		assert.Equal(t, "cached", token)
		assert.True(t, flags.authorized)
	})

	t.Run("stale flag is corrected", func(t *testing.T) {
		broker := new(MockBroker)
		broker.On("GetAuthToken", ctx, false).Return("", nil).Once()
		flags := &flagStore{authorized: true}
		s := New(broker, flags, logger.Nop())

		require.NoError(t, s.Restore(ctx))
		assert.Equal(t, Unauthorized, s.State())
		assert.False(t, flags.authorized)
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes held token", func(t *testing.T) {
		broker := new(MockBroker)
		broker.On("GetAuthToken", ctx, true).Return("tok", nil).Once()
		broker.On("RemoveCachedAuthToken", ctx, "tok").Return(nil).Once()
		flags := &flagStore{}
		s := New(broker, flags, logger.Nop())
		require.NoError(t, s.Authorize(ctx))

		require.NoError(t, s.Clear(ctx))
		assert.Equal(t, Unauthorized, s.State())
		assert.False(t, flags.authorized)
		broker.AssertExpectations(t)
	})

	t.Run("without token still resets", func(t *testing.T) {
		broker := new(MockBroker)
		flags := &flagStore{authorized: true}
		s := New(broker, flags, logger.Nop())

		require.NoError(t, s.Clear(ctx))
		assert.False(t, flags.authorized)
		broker.AssertNotCalled(t, "RemoveCachedAuthToken", mock.Anything, mock.Anything)
	})

	t.Run("broker failure does not block reset", func(t *testing.T) {
		broker := new(MockBroker)
		broker.On("GetAuthToken", ctx, true).Return("tok", nil).Once()
		broker.On("RemoveCachedAuthToken", ctx, "tok").Return(errors.New("gone")).Once()
		flags := &flagStore{}
		s := New(broker, flags, logger.Nop())
		require.NoError(t, s.Authorize(ctx))

		require.NoError(t, s.Clear(ctx))
		assert.False(t, s.Authorized())
		assert.False(t, flags.authorized)
	})
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	broker := new(MockBroker)
	broker.On("GetAuthToken", ctx, true).Return("tok", nil).Once()
	broker.On("RemoveCachedAuthToken", ctx, "tok").Return(nil).Once()
	flags := &flagStore{}
	s := New(broker, flags, logger.Nop())
	require.NoError(t, s.Authorize(ctx))

	s.Invalidate(ctx)

	assert.Equal(t, Unauthorized, s.State())
	assert.False(t, flags.authorized)
	_, ok := s.Token()
	assert.False(t, ok)
	broker.AssertExpectations(t)
}

func TestAccessToken(t *testing.T) {
	ctx := context.Background()

	authorized := func(t *testing.T, broker *MockBroker, flags *flagStore) *Session {
		t.Helper()
		broker.On("GetAuthToken", ctx, true).Return("tok-1", nil).Once()
		s := New(broker, flags, logger.Nop())
		require.NoError(t, s.Authorize(ctx))
		return s
	}

	t.Run("unauthorized skips broker", func(t *testing.T) {
		broker := new(MockBroker)
		s := New(broker, &flagStore{}, logger.Nop())

		_, ok := s.AccessToken(ctx)
		assert.False(t, ok)
		broker.AssertNotCalled(t, "GetAuthToken", mock.Anything, mock.Anything)
	})

	t.Run("refreshed token replaces the held one", func(t *testing.T) {
		broker := new(MockBroker)
		s := authorized(t, broker, &flagStore{})
		broker.On("GetAuthToken", ctx, false).Return("tok-2", nil).Once()

		token, ok := s.AccessToken(ctx)
		assert.True(t, ok)
		assert.Equal(t, "tok-2", token)

		held, _ := s.Token()
		assert.Equal(t, "tok-2", held)
		broker.AssertExpectations(t)
	})

	t.Run("broker without token drops the session", func(t *testing.T) {
		broker := new(MockBroker)
		flags := &flagStore{}
		s := authorized(t, broker, flags)
		broker.On("GetAuthToken", ctx, false).Return("", nil).Once()

		_, ok := s.AccessToken(ctx)
		assert.False(t, ok)
		assert.Equal(t, Unauthorized, s.State())
		assert.False(t, flags.authorized)
	})

	t.Run("refresh failure keeps the held token", func(t *testing.T) {
		broker := new(MockBroker)
		s := authorized(t, broker, &flagStore{})
		broker.On("GetAuthToken", ctx, false).Return("", errors.New("failed to refresh token: invalid_grant")).Once()

		token, ok := s.AccessToken(ctx)
		assert.True(t, ok)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, Authorized, s.State())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unauthorized", Unauthorized.String())
	assert.Equal(t, "authorizing", Authorizing.String())
	assert.Equal(t, "authorized", Authorized.String())
}
