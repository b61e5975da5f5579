// Package dedup suppresses repeated observations of the same clipboard
// content coming from several uncoordinated producers.
package dedup

import (
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

// Scope is an independent observation context with its own record.
type Scope string

const (
	// ScopePage is the page-level observer.
	ScopePage Scope = "page"
	// ScopeBackground is the extension-wide clipboard poller.
	ScopeBackground Scope = "background"
	// ScopeDelivered is the shared "already sent" record of the delivery owner.
	ScopeDelivered Scope = "delivered"
)

const (
	DefaultPageWindow       = 3 * time.Second
	DefaultBackgroundWindow = 2 * time.Second
	// covers one page poll interval after a background delivery
	DefaultDeliveredWindow = 5 * time.Second
)

// DefaultWindows returns the suppression window of each scope.
func DefaultWindows() map[Scope]time.Duration {
	return map[Scope]time.Duration{
		ScopePage:       DefaultPageWindow,
		ScopeBackground: DefaultBackgroundWindow,
		ScopeDelivered:  DefaultDeliveredWindow,
	}
}

// Deduplicator keeps exactly one DedupRecord per scope.
type Deduplicator struct {
	mu      sync.Mutex
	windows map[Scope]time.Duration
	records map[Scope]domain.DedupRecord
}

// New creates a Deduplicator. Scopes missing from windows fall back to
// DefaultWindows.
func New(windows map[Scope]time.Duration) *Deduplicator {
	merged := DefaultWindows()
	for scope, w := range windows {
		if w > 0 {
			merged[scope] = w
		}
	}
	return &Deduplicator{
		windows: merged,
		records: make(map[Scope]domain.DedupRecord, len(merged)),
	}
}

// ShouldAccept reports whether text is new for scope at now.
// It suppresses iff the record holds the same text accepted less than the
// scope window ago. On acceptance the record is overwritten with (text, now).
// Blank text is always rejected.
func (d *Deduplicator) ShouldAccept(scope Scope, text string, now time.Time) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[scope]
	if ok && rec.Text == text && now.Sub(rec.At) < d.window(scope) {
		return false
	}

	d.records[scope] = domain.DedupRecord{Text: text, At: now}
	return true
}

// Seed restores a record, e.g. the persisted last copied text.
func (d *Deduplicator) Seed(scope Scope, rec domain.DedupRecord) {
	if rec.IsZero() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[scope] = rec
}

// Record returns the current record of scope.
func (d *Deduplicator) Record(scope Scope) (domain.DedupRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[scope]
	return rec, ok
}

func (d *Deduplicator) window(scope Scope) time.Duration {
	if w, ok := d.windows[scope]; ok {
		return w
	}
	return DefaultBackgroundWindow
}
