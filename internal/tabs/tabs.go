// Package tabs tracks the active browsing context reported by the browser
// helper.
package tabs

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

// Tracker holds the last reported active tab.
type Tracker struct {
	mu  sync.RWMutex
	tab domain.Tab
	set bool
}

// NewTracker returns a tracker with no active tab.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetActive records tab as active. An empty URL clears it.
func (t *Tracker) SetActive(tab domain.Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tab = tab
	t.set = tab.URL != ""
}

// Clear forgets the active tab.
func (t *Tracker) Clear() {
	t.SetActive(domain.Tab{})
}

// ActiveTab returns the active tab and whether one is known.
func (t *Tracker) ActiveTab(context.Context) (domain.Tab, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tab, t.set
}
