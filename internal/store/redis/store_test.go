package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewStore(client)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_Defaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	authorized, err := s.IsAuthorized(ctx)
	require.NoError(t, err)
	assert.False(t, authorized)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	rec, err := s.LastCopied(ctx)
	require.NoError(t, err)
	assert.True(t, rec.IsZero())
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.SetAuthorized(ctx, true))
	require.NoError(t, s.SaveDocumentID(ctx, "ABC123"))
	require.NoError(t, s.SaveIncludeSourceURLs(ctx, false))

	at := time.UnixMilli(1_700_000_000_500)
	require.NoError(t, s.SaveLastCopied(ctx, domain.DedupRecord{Text: "hello", At: at}))

	authorized, err := s.IsAuthorized(ctx)
	require.NoError(t, err)
	assert.True(t, authorized)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{DocumentID: "ABC123", IncludeSourceURLs: false}, settings)

	rec, err := s.LastCopied(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Text)
	assert.True(t, rec.At.Equal(at))

	// keys are namespaced and readable by other tools
	got, err := mr.Get("clipdoc:docId")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", got)
	got, err = mr.Get("clipdoc:lastCopyTime")
	require.NoError(t, err)
	assert.Equal(t, "1700000000500", got)
}

func TestStore_Ping(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
