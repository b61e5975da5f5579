package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source tags where a candidate text was observed.
type Source string

const (
	SourceSelectionCopy           Source = "selection-copy"
	SourceKeyboardShortcut        Source = "keyboard-shortcut"
	SourcePageClipboardPoll       Source = "page-clipboard-poll"
	SourceBackgroundClipboardPoll Source = "background-clipboard-poll"
	SourceManualTest              Source = "manual-test"
)

// Candidate is a piece of text observed as potentially newly copied.
//
// It is ephemeral: nothing keeps it beyond the dedup window.
type Candidate struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is a processing id used to correlate logs across the
	// observer and the delivery owner.
	ID string

	// ─────────────────────────────
	// Content & provenance
	// ─────────────────────────────

	// Text is always trimmed and non-empty.
	Text string

	// Source is the producer that observed the text.
	Source Source

	// ObservedAt is the discovery timestamp.
	ObservedAt time.Time
}

// NewCandidate trims text and returns false when nothing is left.
func NewCandidate(text string, source Source, now time.Time) (Candidate, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Candidate{}, false
	}
	return Candidate{
		ID:         uuid.NewString(),
		Text:       trimmed,
		Source:     source,
		ObservedAt: now,
	}, true
}

// DedupRecord is the last accepted value of a scope.
type DedupRecord struct {
	Text string
	At   time.Time
}

// IsZero reports whether nothing was recorded yet.
func (r DedupRecord) IsZero() bool {
	return r.Text == "" && r.At.IsZero()
}

// Tab is the active browsing context used to decorate requests.
type Tab struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Preview shortens text for log lines.
func Preview(text string) string {
	const max = 50
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}
