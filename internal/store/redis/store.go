package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/store"
)

// Store persists clipdoc state in Redis. Keys never expire.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

var _ store.Store = (*Store)(nil)

// getString returns the value and whether the key exists.
func (s *Store) getString(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) setString(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// IsAuthorized returns the persisted flag (false when absent).
func (s *Store) IsAuthorized(ctx context.Context) (bool, error) {
	raw, ok, err := s.getString(ctx, KeyIsAuthorized)
	if err != nil {
		return false, err
	}
	return store.ParseBool(raw, ok, false), nil
}

// SetAuthorized persists the flag.
func (s *Store) SetAuthorized(ctx context.Context, authorized bool) error {
	return s.setString(ctx, KeyIsAuthorized, store.FormatBool(authorized))
}

// Settings reads document id and source preference in one round trip.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	vals, err := s.client.MGet(ctx, KeyDocID, KeyIncludeSourceURLs).Result()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	docID, _ := vals[0].(string)
	include, includeSet := vals[1].(string)
	return store.DecodeSettings(docID, include, includeSet), nil
}

// SaveDocumentID stores the target document.
func (s *Store) SaveDocumentID(ctx context.Context, documentID string) error {
	return s.setString(ctx, KeyDocID, documentID)
}

// SaveIncludeSourceURLs stores the source preference.
func (s *Store) SaveIncludeSourceURLs(ctx context.Context, include bool) error {
	return s.setString(ctx, KeyIncludeSourceURLs, store.FormatBool(include))
}

// LastCopied returns the shared "already sent" record.
func (s *Store) LastCopied(ctx context.Context) (domain.DedupRecord, error) {
	vals, err := s.client.MGet(ctx, KeyLastCopiedText, KeyLastCopyTime).Result()
	if err != nil {
		return domain.DedupRecord{}, fmt.Errorf("failed to get last copied text: %w", err)
	}

	text, _ := vals[0].(string)
	at, _ := vals[1].(string)
	return domain.DedupRecord{Text: text, At: store.ParseTime(at)}, nil
}

// SaveLastCopied writes text and time together.
func (s *Store) SaveLastCopied(ctx context.Context, rec domain.DedupRecord) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, KeyLastCopiedText, rec.Text, 0)
	pipe.Set(ctx, KeyLastCopyTime, store.FormatTime(rec.At), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save last copied text: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
