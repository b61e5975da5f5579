// Package observer is the page-level observation source: one Observer per
// browsing context, fed by copy events, copy shortcuts and a clipboard poll.
package observer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/clipboard"
	"github.com/MrSnakeDoc/clipdoc/internal/dedup"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
)

const (
	// DefaultSettleDelay lets a copy shortcut reach the clipboard.
	DefaultSettleDelay = 100 * time.Millisecond
	// DefaultCopyThrottle ignores copy events closer than this.
	DefaultCopyThrottle = time.Second
)

// Status strings shown by the notifier.
const (
	MsgCopied    = "Text copied to Google Doc!"
	MsgQueued    = "Text will be copied to Google Doc"
	MsgProcessed = "Text will be processed"
	errPrefix    = "Error: "
)

// Recorder stores the last copied text shared with the background poller.
type Recorder interface {
	RecordCopy(ctx context.Context, text string, at time.Time) error
}

// SettingsReader returns the current settings.
type SettingsReader interface {
	Settings(ctx context.Context) (domain.Settings, error)
}

// Sender forwards copied text to the delivery owner.
type Sender interface {
	TextCopied(ctx context.Context, req messaging.Request) (messaging.Response, error)
}

// Observer tracks one browsing context.
type Observer struct {
	id   string
	page domain.Tab

	sender    Sender
	recorder  Recorder
	settings  SettingsReader
	clipboard clipboard.Reader
	notifier  *notify.Notifier
	dedup     *dedup.Deduplicator
	inFlight  dedup.InFlight
	polling   dedup.InFlight // one PollAll round at a time
	logger    logger.Logger

	settle   time.Duration
	throttle time.Duration
	now      func() time.Time

	mu           sync.Mutex
	lastCopied   string
	lastCopyTime time.Time
	active       bool

	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the context id.
func (o *Observer) ID() string { return o.id }

// Page returns the context url and title.
func (o *Observer) Page() domain.Tab { return o.page }

// Notification returns the visible toast, if any.
func (o *Observer) Notification() (notify.Notification, bool) {
	return o.notifier.Current()
}

// SetActive records focus (true) or blur (false). Polling only runs while
// the context is active.
func (o *Observer) SetActive(active bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = active
}

// Active reports whether the context has focus.
func (o *Observer) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// OnCopy handles a copy event carrying the current selection.
func (o *Observer) OnCopy(ctx context.Context, selection string) {
	if text := strings.TrimSpace(selection); text != "" {
		if err := o.recorder.RecordCopy(ctx, text, o.now()); err != nil {
			o.logger.Warn("failed to record copied text", logger.Error(err))
		}
	}
	o.handleCopy(ctx, selection, domain.SourceSelectionCopy)
}

// OnShortcut handles a copy key combination. The selection is read after
// the settle delay; the call returns immediately.
func (o *Observer) OnShortcut(ctx context.Context, selection func() string) {
	ctx = context.WithoutCancel(ctx)
	timer := time.NewTimer(o.settle)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			o.handleCopy(ctx, selection(), domain.SourceKeyboardShortcut)
		case <-o.done:
		}
	}()
}

// handleCopy throttles copy events and forwards a new selection.
func (o *Observer) handleCopy(ctx context.Context, selection string, source domain.Source) {
	now := o.now()

	o.mu.Lock()
	if !o.lastCopyTime.IsZero() && now.Sub(o.lastCopyTime) < o.throttle {
		o.mu.Unlock()
		return
	}
	o.lastCopyTime = now

	text := strings.TrimSpace(selection)
	if text == "" || text == o.lastCopied {
		o.mu.Unlock()
		return
	}
	o.lastCopied = text
	o.mu.Unlock()

	o.send(ctx, text, source)
}

// Poll reads the clipboard once. Read failures are dropped silently.
func (o *Observer) Poll(ctx context.Context) {
	if !o.Active() {
		return
	}

	text, err := o.clipboard.ReadText(ctx)
	if err != nil {
		return
	}

	o.mu.Lock()
	if strings.TrimSpace(text) == "" || text == o.lastCopied {
		o.mu.Unlock()
		return
	}
	o.lastCopied = text
	o.mu.Unlock()

	o.logger.Debug("new clipboard content detected")
	o.send(ctx, text, domain.SourcePageClipboardPoll)
}

// send forwards text to the owner and reports the outcome.
func (o *Observer) send(ctx context.Context, text string, source domain.Source) {
	cand, ok := domain.NewCandidate(text, source, o.now())
	if !ok {
		return
	}

	if !o.inFlight.TryAcquire() {
		o.logger.Debug("skipping duplicate text processing", logger.String("reason", "in flight"))
		return
	}
	defer o.inFlight.Release()

	if !o.dedup.ShouldAccept(dedup.ScopePage, cand.Text, cand.ObservedAt) {
		o.logger.Debug("skipping duplicate text processing", logger.String("reason", "recent"))
		return
	}

	req := messaging.Request{Text: cand.Text, ProcessingID: cand.ID}
	if settings, err := o.settings.Settings(ctx); err == nil && settings.IncludeSourceURLs {
		req.URL, req.Title = o.page.URL, o.page.Title
	}

	log := o.logger.With(
		logger.String("processing_id", cand.ID),
		logger.String("source", string(cand.Source)))
	log.Info("text copied", logger.String("text", domain.Preview(cand.Text)))

	resp, err := o.sender.TextCopied(ctx, req)
	switch {
	case err != nil:
		log.Warn("messaging error", logger.Error(err))
		o.notifier.Notify(MsgQueued, false)
	case resp.Success:
		o.notifier.Notify(MsgCopied, false)
	case resp.Error != "":
		log.Error("error sending to document", logger.String("error", resp.Error))
		o.notifier.Notify(errPrefix+resp.Error, true)
	default:
		o.notifier.Notify(MsgProcessed, false)
	}
}

// OnEvent reacts to a broadcast from the delivery owner.
func (o *Observer) OnEvent(ev messaging.Event) {
	if ev.Action == messaging.ActionTextPasted && ev.Success {
		o.notifier.Notify(MsgCopied, false)
	}
}

// Close stops pending shortcut handlers and hides the notification.
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		close(o.done)
		o.notifier.Close()
	})
}
