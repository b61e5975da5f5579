package scheduler

import (
	"context"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/clipdoc/internal/clipboard"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// ChangeSink receives clipboard content that changed since the last poll.
type ChangeSink interface {
	ClipboardChanged(ctx context.Context, text string) (bool, error)
}

// ClipboardWatcher is the extension-wide clipboard change detector.
type ClipboardWatcher struct {
	reader clipboard.Reader
	sink   ChangeSink
	logger logger.Logger

	mu       sync.Mutex
	lastSeen string
}

// NewClipboardWatcher creates a watcher.
func NewClipboardWatcher(reader clipboard.Reader, sink ChangeSink, log logger.Logger) *ClipboardWatcher {
	return &ClipboardWatcher{reader: reader, sink: sink, logger: log}
}

// Prime records the current clipboard as already seen so content copied
// before startup is not delivered.
func (w *ClipboardWatcher) Prime(ctx context.Context) {
	text, err := w.reader.ReadText(ctx)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.lastSeen = text
	w.mu.Unlock()
}

// Check reads the clipboard and forwards non-blank content that differs
// from the previous read. Read errors are skipped.
func (w *ClipboardWatcher) Check(ctx context.Context) error {
	text, err := w.reader.ReadText(ctx)
	if err != nil {
		return nil
	}

	w.mu.Lock()
	if text == w.lastSeen || strings.TrimSpace(text) == "" {
		w.mu.Unlock()
		return nil
	}
	w.lastSeen = text
	w.mu.Unlock()

	w.logger.Debug("clipboard changed", logger.String("text", domain.Preview(text)))
	if _, err := w.sink.ClipboardChanged(ctx, text); err != nil {
		return err
	}
	return nil
}
