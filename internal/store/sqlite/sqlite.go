// Package sqlite persists clipdoc state in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/store"
)

// FileName is the database file created inside the data directory.
const FileName = "clipdoc.db"

// Store is a key/value table over SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; the daemon and CLI are the only clients
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, true, nil
}

// put upserts pairs of key, value in one transaction.
func (s *Store) put(ctx context.Context, kv ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	for i := 0; i+1 < len(kv); i += 2 {
		if _, err := tx.ExecContext(ctx, upsert, kv[i], kv[i+1]); err != nil {
			return fmt.Errorf("failed to write %s: %w", kv[i], err)
		}
	}
	return tx.Commit()
}

// IsAuthorized returns the persisted flag (false when absent).
func (s *Store) IsAuthorized(ctx context.Context) (bool, error) {
	raw, ok, err := s.get(ctx, store.KeyIsAuthorized)
	if err != nil {
		return false, err
	}
	return store.ParseBool(raw, ok, false), nil
}

// SetAuthorized persists the flag.
func (s *Store) SetAuthorized(ctx context.Context, authorized bool) error {
	return s.put(ctx, store.KeyIsAuthorized, store.FormatBool(authorized))
}

// Settings returns document id and source preference.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	docID, _, err := s.get(ctx, store.KeyDocID)
	if err != nil {
		return domain.Settings{}, err
	}
	include, ok, err := s.get(ctx, store.KeyIncludeSourceURLs)
	if err != nil {
		return domain.Settings{}, err
	}
	return store.DecodeSettings(docID, include, ok), nil
}

// SaveDocumentID stores the target document.
func (s *Store) SaveDocumentID(ctx context.Context, documentID string) error {
	return s.put(ctx, store.KeyDocID, documentID)
}

// SaveIncludeSourceURLs stores the source preference.
func (s *Store) SaveIncludeSourceURLs(ctx context.Context, include bool) error {
	return s.put(ctx, store.KeyIncludeSourceURLs, store.FormatBool(include))
}

// LastCopied returns the shared "already sent" record.
func (s *Store) LastCopied(ctx context.Context) (domain.DedupRecord, error) {
	text, _, err := s.get(ctx, store.KeyLastCopiedText)
	if err != nil {
		return domain.DedupRecord{}, err
	}
	at, _, err := s.get(ctx, store.KeyLastCopyTime)
	if err != nil {
		return domain.DedupRecord{}, err
	}
	return domain.DedupRecord{Text: text, At: store.ParseTime(at)}, nil
}

// SaveLastCopied writes text and time atomically.
func (s *Store) SaveLastCopied(ctx context.Context, rec domain.DedupRecord) error {
	return s.put(ctx,
		store.KeyLastCopiedText, rec.Text,
		store.KeyLastCopyTime, store.FormatTime(rec.At),
	)
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
