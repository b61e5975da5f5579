package delivery

import (
	"context"
	"strings"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/dedup"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
	"github.com/MrSnakeDoc/clipdoc/internal/store"
)

// Session is the authorization lifecycle seen by the owner.
type Session interface {
	Credentials
	Authorize(ctx context.Context) error
	Clear(ctx context.Context) error
	Authorized() bool
}

// TabSource returns the active browsing context.
type TabSource interface {
	ActiveTab(ctx context.Context) (domain.Tab, bool)
}

// Background is the delivery owner: it answers messages from observation
// contexts and the CLI and handles changes seen by the background poller.
type Background struct {
	pipeline *Pipeline
	session  Session
	store    store.Store
	tabs     TabSource
	dedup    *dedup.Deduplicator
	inFlight dedup.InFlight
	events   *notify.Broadcaster[messaging.Event]
	logger   logger.Logger
	now      func() time.Time
}

var _ messaging.Handler = (*Background)(nil)

// NewBackground wires the owner. dd may be shared with the startup restorer
// so the delivered record survives restarts.
func NewBackground(
	pipeline *Pipeline,
	sess Session,
	st store.Store,
	tabs TabSource,
	dd *dedup.Deduplicator,
	events *notify.Broadcaster[messaging.Event],
	log logger.Logger,
) *Background {
	return &Background{
		pipeline: pipeline,
		session:  sess,
		store:    st,
		tabs:     tabs,
		dedup:    dd,
		events:   events,
		logger:   log,
		now:      time.Now,
	}
}

// Authorize runs the interactive grant.
func (b *Background) Authorize(ctx context.Context) (messaging.Response, error) {
	if err := b.session.Authorize(ctx); err != nil {
		return messaging.Fail(domain.UserMessage(err)), nil
	}
	return messaging.OK(), nil
}

// ClearAuth drops the session.
func (b *Background) ClearAuth(ctx context.Context) (messaging.Response, error) {
	if err := b.session.Clear(ctx); err != nil {
		return messaging.Fail(domain.UserMessage(err)), nil
	}
	return messaging.OK(), nil
}

// TextCopied delivers text observed by a page-level observer.
func (b *Background) TextCopied(ctx context.Context, req messaging.Request) (messaging.Response, error) {
	log := b.logger.With(logger.String("processing_id", req.ProcessingID))
	log.Info("received text copied message", logger.String("text", domain.Preview(req.Text)))

	if !b.session.Authorized() {
		log.Info("not authorized, skipping")
		return messaging.Fail(domain.ErrNotAuthorized.Error()), nil
	}

	settings, err := b.store.Settings(ctx)
	if err != nil {
		log.Error("failed to read settings", logger.Error(err))
		return messaging.Fail(domain.UserMessage(err)), nil
	}
	if settings.DocumentID == "" {
		log.Info("no document id set, skipping")
		return messaging.Fail(domain.ErrNoTargetConfigured.Error()), nil
	}

	// another producer may already have sent this clipboard change
	if !b.dedup.ShouldAccept(dedup.ScopeDelivered, strings.TrimSpace(req.Text), b.now()) {
		log.Debug("text already delivered, skipping")
		return messaging.OK(), nil
	}

	if err := b.pipeline.AppendText(ctx, settings.DocumentID, req.Text, req.URL, req.Title); err != nil {
		return messaging.Fail(domain.UserMessage(err)), nil
	}
	return messaging.OK(), nil
}

// ManualPaste delivers text entered by the user, without source metadata.
func (b *Background) ManualPaste(ctx context.Context, req messaging.Request) (messaging.Response, error) {
	settings, err := b.store.Settings(ctx)
	if err != nil {
		return messaging.Fail(domain.UserMessage(err)), nil
	}
	if settings.DocumentID == "" {
		return messaging.Fail(domain.ErrNoTargetConfigured.Error()), nil
	}

	if err := b.pipeline.AppendText(ctx, settings.DocumentID, req.Text, "", ""); err != nil {
		return messaging.Fail(domain.UserMessage(err)), nil
	}
	return messaging.OK(), nil
}

// RecordCopy stores text as the last copied value shared by every
// producer. Observers call it before forwarding a copy event, so the
// background poller leaves that text to the page.
func (b *Background) RecordCopy(ctx context.Context, text string, at time.Time) error {
	rec := domain.DedupRecord{Text: strings.TrimSpace(text), At: at}
	b.dedup.Seed(dedup.ScopeBackground, rec)
	return b.store.SaveLastCopied(ctx, rec)
}

// LastDelivered returns the most recent text accepted for delivery.
func (b *Background) LastDelivered() (domain.DedupRecord, bool) {
	return b.dedup.Record(dedup.ScopeDelivered)
}

// Delivering reports whether a background delivery is in progress.
func (b *Background) Delivering() bool {
	return b.inFlight.Busy()
}

// ClipboardChanged handles a change seen by the background poller.
// It reports whether a delivery happened. Unauthorized sessions and
// missing document ids are skipped without error.
func (b *Background) ClipboardChanged(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	// the watcher calls this from one goroutine; the flag guards other
	// callers of ClipboardChanged and backs Delivering
	if !b.inFlight.TryAcquire() {
		b.logger.Debug("delivery in flight, skipping clipboard change")
		return false, nil
	}
	defer b.inFlight.Release()

	now := b.now()
	if !b.dedup.ShouldAccept(dedup.ScopeBackground, text, now) ||
		!b.dedup.ShouldAccept(dedup.ScopeDelivered, text, now) {
		b.logger.Debug("skipping recently processed text", logger.String("text", domain.Preview(text)))
		return false, nil
	}

	if err := b.store.SaveLastCopied(ctx, domain.DedupRecord{Text: text, At: now}); err != nil {
		b.logger.Warn("failed to persist last copied text", logger.Error(err))
	}

	tab, hasTab := b.tabs.ActiveTab(ctx)

	settings, err := b.store.Settings(ctx)
	if err != nil {
		return false, err
	}
	if !b.session.Authorized() || settings.DocumentID == "" {
		b.logger.Debug("not ready to deliver",
			logger.Bool("authorized", b.session.Authorized()),
			logger.Bool("doc_set", settings.DocumentID != ""))
		return false, nil
	}

	var url, title string
	if settings.IncludeSourceURLs && hasTab {
		url, title = tab.URL, tab.Title
	}

	if err := b.pipeline.AppendText(ctx, settings.DocumentID, text, url, title); err != nil {
		return false, err
	}

	n := b.events.Publish(messaging.TextPasted(true))
	b.logger.Debug("text pasted event sent", logger.Int("receivers", n))
	return true, nil
}
