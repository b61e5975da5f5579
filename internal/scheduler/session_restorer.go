package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/clipdoc/internal/dedup"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// Restorer is the passive session startup check.
type Restorer interface {
	Restore(ctx context.Context) error
}

// LastCopiedReader returns the persisted "already sent" record.
type LastCopiedReader interface {
	LastCopied(ctx context.Context) (domain.DedupRecord, error)
}

// SessionRestorer brings in-memory state back from the store on startup.
type SessionRestorer struct {
	session Restorer
	store   LastCopiedReader
	dedup   *dedup.Deduplicator
	logger  logger.Logger
}

// NewSessionRestorer creates a SessionRestorer.
func NewSessionRestorer(
	session Restorer,
	store LastCopiedReader,
	dd *dedup.Deduplicator,
	log logger.Logger,
) *SessionRestorer {
	return &SessionRestorer{
		session: session,
		store:   store,
		dedup:   dd,
		logger:  log,
	}
}

// Restore seeds the delivered record and checks the persisted session.
func (sr *SessionRestorer) Restore(ctx context.Context) error {
	sr.logger.Info("restoring state from store")

	rec, err := sr.store.LastCopied(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last copied text: %w", err)
	}
	if !rec.IsZero() {
		sr.dedup.Seed(dedup.ScopeDelivered, rec)
		sr.logger.Info("restored last copied text",
			logger.String("text", domain.Preview(rec.Text)),
			logger.Time("at", rec.At))
	}

	return sr.session.Restore(ctx)
}
