package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	})(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/poll", nil)

	rec := serve(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	rec = serve(h, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestRateLimitPerCaller(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1})(okHandler)

	a := httptest.NewRequest(http.MethodPost, "/", nil)
	a.RemoteAddr = "127.0.0.1:1000"
	b := httptest.NewRequest(http.MethodPost, "/", nil)
	b.RemoteAddr = "127.0.0.2:1000"

	assert.Equal(t, http.StatusOK, serve(h, a).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, a).Code)
	assert.Equal(t, http.StatusOK, serve(h, b).Code)
}

func TestRateLimitSweepsIdleBuckets(t *testing.T) {
	now := time.Unix(0, 0)
	l := newLimiter(RateLimitConfig{
		Burst:         1,
		SweepInterval: time.Minute,
		IdleTTL:       time.Minute,
		Now:           func() time.Time { return now },
	})

	l.take("a", now)
	now = now.Add(2 * time.Minute)
	l.take("b", now)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")
}

func TestRateLimitMaxEntriesSweepsEarly(t *testing.T) {
	now := time.Unix(0, 0)
	l := newLimiter(RateLimitConfig{
		Burst:      1,
		MaxEntries: 2,
		IdleTTL:    time.Second,
		Now:        func() time.Time { return now },
	})

	l.take("a", now)
	l.take("b", now)
	now = now.Add(2 * time.Second)
	l.take("c", now)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.Nop()

	tests := []struct {
		name       string
		allowed    []string
		remote     string
		xff        string
		trustProxy bool
		want       int
	}{
		{"empty list passes", nil, "203.0.113.9:1", "", false, http.StatusOK},
		{"loopback v4", []string{"127.0.0.1/32", "::1/128"}, "127.0.0.1:1", "", false, http.StatusOK},
		{"loopback v6", []string{"127.0.0.1/32", "::1/128"}, "[::1]:1", "", false, http.StatusOK},
		{"remote rejected", []string{"127.0.0.1/32"}, "203.0.113.9:1", "", false, http.StatusForbidden},
		{"xff ignored without trust", []string{"127.0.0.1/32"}, "203.0.113.9:1", "127.0.0.1", false, http.StatusForbidden},
		{"xff honoured with trust", []string{"127.0.0.1/32"}, "10.0.0.1:1", "127.0.0.1, 10.0.0.1", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := serve(AllowOnlyCIDRS(tt.allowed, tt.trustProxy, log)(okHandler), req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"localhost", "127.0.0.1", "*.lan"}, logger.Nop())(okHandler)

	for host, want := range map[string]int{
		"localhost":        http.StatusOK,
		"LOCALHOST:7717":   http.StatusOK,
		"127.0.0.1:7717":   http.StatusOK,
		"box.lan":          http.StatusOK,
		"lan":              http.StatusForbidden,
		"evil.example.com": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		assert.Equal(t, want, serve(h, req).Code, host)
	}
}

func TestLogKeepsFlusher(t *testing.T) {
	var flushErr error
	h := Log(logger.Nop(), false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flushErr = http.NewResponseController(w).Flush()
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.NoError(t, flushErr)
	assert.True(t, rec.Flushed)
}
