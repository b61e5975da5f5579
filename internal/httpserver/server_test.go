package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/clipdoc/internal/clipboard"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/mw"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
	"github.com/MrSnakeDoc/clipdoc/internal/observer"
	"github.com/MrSnakeDoc/clipdoc/internal/session"
	"github.com/MrSnakeDoc/clipdoc/internal/store/memory"
	"github.com/MrSnakeDoc/clipdoc/internal/tabs"
)

type fakeOwner struct {
	mu     sync.Mutex
	copied []messaging.Request
	resp   messaging.Response
	err    error
}

func (o *fakeOwner) Authorize(context.Context) (messaging.Response, error) {
	return messaging.OK(), nil
}

func (o *fakeOwner) ClearAuth(context.Context) (messaging.Response, error) {
	return messaging.OK(), nil
}

func (o *fakeOwner) TextCopied(_ context.Context, req messaging.Request) (messaging.Response, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.copied = append(o.copied, req)
	return o.resp, o.err
}

func (o *fakeOwner) ManualPaste(context.Context, messaging.Request) (messaging.Response, error) {
	return messaging.Fail(domain.ErrNoTargetConfigured.Error()), nil
}

func (o *fakeOwner) RecordCopy(context.Context, string, time.Time) error { return nil }

func (o *fakeOwner) requests() []messaging.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]messaging.Request(nil), o.copied...)
}

type fakeSession struct{}

func (fakeSession) State() session.State { return session.Authorized }
func (fakeSession) Authorized() bool     { return true }

type fakeDeliveries struct {
	last domain.DedupRecord
	busy bool
}

func (d fakeDeliveries) LastDelivered() (domain.DedupRecord, bool) { return d.last, !d.last.IsZero() }
func (d fakeDeliveries) Delivering() bool                          { return d.busy }

type fixture struct {
	deps  deps.Deps
	owner *fakeOwner
	store *memory.Store
	h     http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Nop()
	st := memory.New()
	owner := &fakeOwner{resp: messaging.OK()}
	events := notify.NewBroadcaster[messaging.Event](0)
	reg := observer.NewRegistry(owner, owner, st, clipboard.Static{}, events, observer.Options{}, log)
	t.Cleanup(reg.Close)

	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Version:        "test",
		RequestTimeout: time.Second,
		RateLimit:      mw.RateLimitConfig{Burst: 100, RefillPerIPPerMin: 100},
		Owner:          owner,
		Session:        fakeSession{},
		Store:          st,
		Tabs:           tabs.NewTracker(),
		Contexts:       reg,
		Events:         events,
		PollTrigger:    make(chan struct{}, 1),
	}
	return &fixture{deps: d, owner: owner, store: st, h: NewRouter(d)}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndReadyz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready":true`)
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"docId":"","includeSourceUrls":true}`, rec.Body.String())

	rec = f.do(t, http.MethodPut, "/api/settings",
		`{"docId":"https://docs.google.com/document/d/ABC123/edit","includeSourceUrls":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"docId":"ABC123","includeSourceUrls":false}`, rec.Body.String())

	rec = f.do(t, http.MethodPut, "/api/settings", `{"docId":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s, err := f.store.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABC123", s.DocumentID)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveDocumentID(context.Background(), "DOC"))

	rec := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st messaging.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "authorized", st.State)
	assert.True(t, st.Authorized)
	assert.Equal(t, "DOC", st.DocumentID)
	assert.Equal(t, "test", st.Version)
	assert.Empty(t, st.LastDeliveredText)
	assert.False(t, st.Delivering)
}

func TestStatus_LastDelivery(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.deps.Deliveries = fakeDeliveries{last: domain.DedupRecord{Text: "sent", At: at}, busy: true}
	f.h = NewRouter(f.deps)

	rec := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st messaging.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "sent", st.LastDeliveredText)
	assert.True(t, st.LastDeliveredAt.Equal(at))
	assert.True(t, st.Delivering)
}

func TestMessageRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/messages/textCopied", `{"text":"hello","processingId":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	reqs := f.owner.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, messaging.ActionTextCopied, reqs[0].Action)
	assert.Equal(t, "hello", reqs[0].Text)

	rec = f.do(t, http.MethodPost, "/api/messages/authorize", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/messages/manualPaste", `{"text":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrNoTargetConfigured.Error())

	rec = f.do(t, http.MethodPost, "/api/messages/bogus", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/messages/textCopied", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPollTrigger(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/poll", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/poll", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	<-f.deps.PollTrigger
	rec = f.do(t, http.MethodPost, "/api/poll", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestContextLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/contexts", `{"url":"https://example.com/a","title":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var opened struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	require.NotEmpty(t, opened.ID)
	base := "/api/contexts/" + opened.ID

	rec = f.do(t, http.MethodGet, base+"/notification", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"visible":false}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, base+"/copy", `{"selection":"  copied words "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), observer.MsgCopied)

	reqs := f.owner.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "copied words", reqs[0].Text)
	assert.Equal(t, "https://example.com/a", reqs[0].URL)
	assert.Equal(t, "A", reqs[0].Title)

	rec = f.do(t, http.MethodPost, base+"/blur", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	o, ok := f.deps.Contexts.Get(opened.ID)
	require.True(t, ok)
	assert.False(t, o.Active())

	rec = f.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodPost, base+"/copy", `{"selection":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActiveTab(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/tabs/active", `{"url":"https://example.com","title":"Ex"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	tab, ok := f.deps.Tabs.ActiveTab(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Ex", tab.Title)
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return f.deps.Events.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)
	f.deps.Events.Publish(messaging.TextPasted(true))

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event: textPasted", sc.Text())
	require.True(t, sc.Scan())
	assert.JSONEq(t, `{"action":"textPasted","success":true}`, strings.TrimPrefix(sc.Text(), "data: "))
}

func TestAccessGuards(t *testing.T) {
	f := newFixture(t)
	f.deps.AllowedCIDRS = []string{"127.0.0.1/32"}
	f.deps.AllowedHosts = []string{"localhost"}
	h := NewRouter(f.deps)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil) // 192.0.2.1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "http://localhost:7717/api/settings", nil)
	req.RemoteAddr = "127.0.0.1:50000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
