package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// Poller runs a Task on a fixed interval and on manual triggers.
type Poller struct {
	name          string
	task          Task
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewPoller creates a Poller. manualTrigger may be nil.
func NewPoller(
	name string,
	interval time.Duration,
	task Task,
	manualTrigger chan struct{},
	log logger.Logger,
) *Poller {
	return &Poller{
		name:          name,
		task:          task,
		logger:        log.With(logger.String("poller", name)),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the task once, then keeps running it in the background
// until Stop is called or ctx is done. Task errors are logged.
func (p *Poller) Start(ctx context.Context) {
	p.run(ctx)

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.run(ctx)
			case <-p.manualTrigger:
				p.logger.Info("manual poll triggered")
				p.run(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the poller. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Poller) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.task(ctx); err != nil {
		p.logger.Error("poll failed", logger.Error(err))
	}
}

// Trigger requests an immediate run without blocking. It reports whether
// the request was queued.
func Trigger(manualTrigger chan struct{}) bool {
	select {
	case manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}
