package observer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/clipdoc/internal/clipboard"
	"github.com/MrSnakeDoc/clipdoc/internal/dedup"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
)

// Options tunes every Observer created by a Registry. Zero values take the
// package defaults.
type Options struct {
	SettleDelay  time.Duration
	CopyThrottle time.Duration
	DedupWindow  time.Duration
	NotifyTTL    time.Duration
}

// Registry owns the observation contexts by id.
type Registry struct {
	sender    Sender
	recorder  Recorder
	settings  SettingsReader
	clipboard clipboard.Reader
	events    *notify.Broadcaster[messaging.Event]
	opts      Options
	logger    logger.Logger

	mu        sync.RWMutex
	observers map[string]*entry
}

type entry struct {
	obs   *Observer
	unsub func()
}

// NewRegistry creates an empty Registry.
func NewRegistry(
	sender Sender,
	recorder Recorder,
	settings SettingsReader,
	reader clipboard.Reader,
	events *notify.Broadcaster[messaging.Event],
	opts Options,
	log logger.Logger,
) *Registry {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.CopyThrottle <= 0 {
		opts.CopyThrottle = DefaultCopyThrottle
	}
	return &Registry{
		sender:    sender,
		recorder:  recorder,
		settings:  settings,
		clipboard: reader,
		events:    events,
		opts:      opts,
		logger:    log,
		observers: make(map[string]*entry),
	}
}

// Open creates an active Observer for page and subscribes it to owner
// broadcasts.
func (r *Registry) Open(page domain.Tab) *Observer {
	id := uuid.NewString()
	o := &Observer{
		id:        id,
		page:      page,
		sender:    r.sender,
		recorder:  r.recorder,
		settings:  r.settings,
		clipboard: r.clipboard,
		notifier:  notify.NewNotifier(r.opts.NotifyTTL),
		dedup:     dedup.New(map[dedup.Scope]time.Duration{dedup.ScopePage: r.opts.DedupWindow}),
		logger:    r.logger.With(logger.String("context_id", id)),
		settle:    r.opts.SettleDelay,
		throttle:  r.opts.CopyThrottle,
		now:       time.Now,
		active:    true,
		done:      make(chan struct{}),
	}

	events, unsub := r.events.Subscribe()
	go func() {
		for ev := range events {
			o.OnEvent(ev)
		}
	}()

	r.mu.Lock()
	r.observers[id] = &entry{obs: o, unsub: unsub}
	r.mu.Unlock()

	o.logger.Info("observation context opened", logger.String("url", page.URL))
	return o
}

// Get returns the Observer for id.
func (r *Registry) Get(id string) (*Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.observers[id]
	if !ok {
		return nil, false
	}
	return e.obs, true
}

// Remove closes and forgets id. It reports whether id existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.observers[id]
	delete(r.observers, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.unsub()
	e.obs.Close()
	e.obs.logger.Info("observation context closed")
	return true
}

// Len returns the number of open contexts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// IDs returns the open context ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.observers))
	for id := range r.observers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// PollAll starts one clipboard poll on every active context and returns
// without waiting. Each context polls on its own goroutine, so a hung send
// only stalls its own context. A context still busy with the previous
// poll skips this one.
func (r *Registry) PollAll(ctx context.Context) {
	r.mu.RLock()
	list := make([]*Observer, 0, len(r.observers))
	for _, e := range r.observers {
		list = append(list, e.obs)
	}
	r.mu.RUnlock()

	for _, o := range list {
		if ctx.Err() != nil {
			return
		}
		if !o.polling.TryAcquire() {
			o.logger.Debug("previous poll still running, skipping")
			continue
		}
		go func(o *Observer) {
			defer o.polling.Release()
			o.Poll(ctx)
		}(o)
	}
}

// Close removes every context.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Remove(id)
	}
}
