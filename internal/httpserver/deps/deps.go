package deps

import (
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/mw"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
	"github.com/MrSnakeDoc/clipdoc/internal/observer"
	"github.com/MrSnakeDoc/clipdoc/internal/session"
	"github.com/MrSnakeDoc/clipdoc/internal/store"
	"github.com/MrSnakeDoc/clipdoc/internal/tabs"
)

// DeliveryState is the read side of the delivery owner.
type DeliveryState interface {
	LastDelivered() (domain.DedupRecord, bool)
	Delivering() bool
}

// SessionState is the read side of the session.
type SessionState interface {
	State() session.State
	Authorized() bool
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to access the server
	AllowedCIDRS   []string         // caller IPs allowed to access the control API
	TrustProxy     bool             // resolve caller IP from proxy headers
	RequestTimeout time.Duration    // timeout for short control routes
	RateLimit      mw.RateLimitConfig

	Owner       messaging.Handler                    // delivery owner
	Deliveries  DeliveryState                        // last delivery and in-flight flag (optional)
	Session     SessionState                         // authorization state
	Store       store.Store                          // settings store
	Tabs        *tabs.Tracker                        // active tab reported by the browser helper
	Contexts    *observer.Registry                   // page-level observation contexts
	Events      *notify.Broadcaster[messaging.Event] // textPasted fan-out
	PollTrigger chan struct{}                        // manual background poll (nil if watcher disabled)
}
