// Package notify shows transient status messages and fans out events to
// observation contexts.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3 * time.Second

// Notification is a transient status message.
type Notification struct {
	Message string    `json:"message"`
	IsError bool      `json:"isError"`
	ShownAt time.Time `json:"shownAt"`
}

// Notifier keeps at most one visible notification per context.
// A new one replaces the current one and restarts the timer.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Notification
	timer   *time.Timer
	gen     uint64
	closed  bool
	now     func() time.Time
}

// NewNotifier creates a Notifier. ttl <= 0 uses DefaultTTL.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// Notify shows message. It is a no-op once the Notifier is closed.
func (n *Notifier) Notify(message string, isError bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}

	n.gen++
	gen := n.gen
	n.current = &Notification{Message: message, IsError: isError, ShownAt: n.now()}
	n.timer = time.AfterFunc(n.ttl, func() { n.dismiss(gen) })
}

// dismiss removes the notification only if no newer one replaced it.
func (n *Notifier) dismiss(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen == gen {
		n.current = nil
		n.timer = nil
	}
}

// Current returns the visible notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// Close dismisses the current notification and drops later ones.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
