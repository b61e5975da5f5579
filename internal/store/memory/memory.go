// Package memory is an in-process Settings Store. State is lost on exit,
// which makes it suitable for tests and throwaway sessions.
package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/store"
)

// Store keeps every key in a map guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

var _ store.Store = (*Store)(nil)

func (s *Store) get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) set(kv ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i+1 < len(kv); i += 2 {
		s.values[kv[i]] = kv[i+1]
	}
}

// IsAuthorized returns the persisted flag.
func (s *Store) IsAuthorized(context.Context) (bool, error) {
	raw, ok := s.get(store.KeyIsAuthorized)
	return store.ParseBool(raw, ok, false), nil
}

// SetAuthorized persists the flag.
func (s *Store) SetAuthorized(_ context.Context, authorized bool) error {
	s.set(store.KeyIsAuthorized, store.FormatBool(authorized))
	return nil
}

// Settings returns the document id and source preference.
func (s *Store) Settings(context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	include, ok := s.values[store.KeyIncludeSourceURLs]
	return store.DecodeSettings(s.values[store.KeyDocID], include, ok), nil
}

// SaveDocumentID stores the target document.
func (s *Store) SaveDocumentID(_ context.Context, documentID string) error {
	s.set(store.KeyDocID, documentID)
	return nil
}

// SaveIncludeSourceURLs stores the source preference.
func (s *Store) SaveIncludeSourceURLs(_ context.Context, include bool) error {
	s.set(store.KeyIncludeSourceURLs, store.FormatBool(include))
	return nil
}

// LastCopied returns the shared "already sent" record.
func (s *Store) LastCopied(context.Context) (domain.DedupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.DedupRecord{
		Text: s.values[store.KeyLastCopiedText],
		At:   store.ParseTime(s.values[store.KeyLastCopyTime]),
	}, nil
}

// SaveLastCopied overwrites the shared record.
func (s *Store) SaveLastCopied(_ context.Context, rec domain.DedupRecord) error {
	s.set(store.KeyLastCopiedText, rec.Text, store.KeyLastCopyTime, store.FormatTime(rec.At))
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
