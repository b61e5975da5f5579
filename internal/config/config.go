package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// DefaultListenAddr is loopback only: the control API is a local channel.
const DefaultListenAddr = "127.0.0.1:7717"

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:7717"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for short control routes
	DaemonURL       string        // base URL used by CLI commands

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Persistence
	StoreBackend string // redis | sqlite | memory
	DataDir      string // sqlite directory

	// Redis
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int

	// OAuth token broker
	OAuthClientID        string
	OAuthClientSecret    string
	OAuthScopes          []string
	OAuthCallbackTimeout time.Duration
	TokenCachePath       string

	// Docs API
	DocsBaseURL string
	DocsTimeout time.Duration

	// Observation
	ClipboardWatch        bool          // background clipboard poller on/off
	ClipboardSkipInitial  bool          // ignore clipboard content present at startup
	ClipboardPollInterval time.Duration // background poller
	PagePollInterval      time.Duration // per-context poller
	SettleDelay           time.Duration // copy shortcut settle delay
	CopyThrottle          time.Duration
	DedupPageWindow       time.Duration
	DedupBackgroundWindow time.Duration
	DedupDeliveredWindow  time.Duration
	NotifyTTL             time.Duration

	// Access restrictions
	AllowedHosts          []string
	AllowedCIDRS          []string
	TrustProxy            bool
	RateLimitBurst        int
	RateLimitRefillPerMin int
}

// ConfigFile returns the YAML overlay path.
func ConfigFile() string {
	return getenv("CLIPDOC_CONFIG_FILE", filepath.Join(xdg.ConfigHome, "clipdoc", "config.yaml"))
}

// Load reads .env, then the YAML overlay, then the environment. Values
// already in the environment always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if err := applyOverlay(ConfigFile(), os.Getenv("CLIPDOC_CONFIG_FILE") != ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("CLIPDOC_LISTEN_ADDR", DefaultListenAddr),
		ShutdownTimeout: mustDuration("CLIPDOC_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("CLIPDOC_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("CLIPDOC_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CLIPDOC_PRETTY_LOG", true),

		// Persistence
		StoreBackend: strings.ToLower(getenv("CLIPDOC_STORE", StoreSQLite)),
		DataDir:      getenv("CLIPDOC_DATA_DIR", filepath.Join(xdg.DataHome, "clipdoc")),

		// Redis settings
		RedisAddr:           getenv("CLIPDOC_REDIS_ADDR", ""),
		RedisUser:           getenv("CLIPDOC_REDIS_USERNAME", ""),
		RedisPassword:       getenv("CLIPDOC_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("CLIPDOC_REDIS_DB", 0),
		RedisDT:             mustDuration("CLIPDOC_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("CLIPDOC_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("CLIPDOC_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("CLIPDOC_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("CLIPDOC_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("CLIPDOC_REDIS_POOL_SIZE", 4),
		RedisConnectTimeout: mustDuration("CLIPDOC_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("CLIPDOC_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("CLIPDOC_REDIS_WARN_THRESHOLD", 3),

		// OAuth
		OAuthClientID:        getenv("CLIPDOC_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret:    getenv("CLIPDOC_OAUTH_CLIENT_SECRET", ""),
		OAuthScopes:          splitAndTrim(getenv("CLIPDOC_OAUTH_SCOPES", "https://www.googleapis.com/auth/documents")),
		OAuthCallbackTimeout: mustDuration("CLIPDOC_OAUTH_CALLBACK_TIMEOUT", 5*time.Minute),
		TokenCachePath:       getenv("CLIPDOC_TOKEN_CACHE", filepath.Join(xdg.StateHome, "clipdoc", "token.json")),

		// Docs API
		DocsBaseURL: getenv("CLIPDOC_DOCS_BASE_URL", "https://docs.googleapis.com"),
		DocsTimeout: mustDuration("CLIPDOC_DOCS_TIMEOUT", 0),

		// Observation
		ClipboardWatch:        mustBool("CLIPDOC_CLIPBOARD_WATCH", true),
		ClipboardSkipInitial:  mustBool("CLIPDOC_CLIPBOARD_SKIP_INITIAL", true),
		ClipboardPollInterval: mustDuration("CLIPDOC_CLIPBOARD_POLL_INTERVAL", time.Second),
		PagePollInterval:      mustDuration("CLIPDOC_PAGE_POLL_INTERVAL", 2*time.Second),
		SettleDelay:           mustDuration("CLIPDOC_SETTLE_DELAY", 100*time.Millisecond),
		CopyThrottle:          mustDuration("CLIPDOC_COPY_THROTTLE", time.Second),
		DedupPageWindow:       mustDuration("CLIPDOC_DEDUP_PAGE_WINDOW", 3*time.Second),
		DedupBackgroundWindow: mustDuration("CLIPDOC_DEDUP_BACKGROUND_WINDOW", 2*time.Second),
		DedupDeliveredWindow:  mustDuration("CLIPDOC_DEDUP_DELIVERED_WINDOW", 5*time.Second),
		NotifyTTL:             mustDuration("CLIPDOC_NOTIFY_TTL", 3*time.Second),

		// Access restrictions
		AllowedHosts:          splitAndTrim(getenv("CLIPDOC_ALLOWED_HOSTS", "")),
		AllowedCIDRS:          splitAndTrim(getenv("CLIPDOC_ALLOWED_CIDRS", "127.0.0.1/32, ::1/128")),
		TrustProxy:            mustBool("CLIPDOC_TRUST_PROXY", false),
		RateLimitBurst:        getenvInt("CLIPDOC_RATE_LIMIT_BURST", 30),
		RateLimitRefillPerMin: getenvInt("CLIPDOC_RATE_LIMIT_REFILL_PER_MIN", 120),
	}
	cfg.DaemonURL = getenv("CLIPDOC_DAEMON_URL", "http://"+cfg.ListenAddr)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.OAuthClientSecret = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("CLIPDOC_REDIS_ADDR is required when CLIPDOC_STORE=redis")
		}
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown CLIPDOC_STORE %q (want redis, sqlite or memory)", c.StoreBackend)
	}
	if c.ClipboardPollInterval <= 0 || c.PagePollInterval <= 0 {
		return errors.New("poll intervals must be > 0")
	}
	return nil
}

// applyOverlay exports the YAML file's entries as environment variables
// that are not already set. A missing file is only an error when it was
// named explicitly.
func applyOverlay(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for key, v := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if !strings.HasPrefix(key, "CLIPDOC_") {
			key = "CLIPDOC_" + key
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, overlayValue(v)); err != nil {
			return fmt.Errorf("apply %s: %w", key, err)
		}
	}
	return nil
}

func overlayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
