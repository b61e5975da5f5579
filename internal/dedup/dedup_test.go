package dedup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

func TestShouldAccept_WindowPerScope(t *testing.T) {
	d := New(nil)
	t0 := time.Unix(1_700_000_000, 0)

	for scope, window := range DefaultWindows() {
		t.Run(string(scope), func(t *testing.T) {
			require.True(t, d.ShouldAccept(scope, "same", t0))
			assert.False(t, d.ShouldAccept(scope, "same", t0.Add(window-time.Millisecond)),
				"repeat inside the window must be suppressed")
			assert.True(t, d.ShouldAccept(scope, "same", t0.Add(window)),
				"repeat once the window elapsed must be accepted")
		})
	}
}

func TestShouldAccept_HelloScenario(t *testing.T) {
	d := New(map[Scope]time.Duration{ScopePage: 3 * time.Second})
	t0 := time.Unix(1_700_000_000, 0)

	assert.True(t, d.ShouldAccept(ScopePage, "hello", t0))
	assert.False(t, d.ShouldAccept(ScopePage, "hello", t0.Add(500*time.Millisecond)))
	assert.True(t, d.ShouldAccept(ScopePage, "hello", t0.Add(3000*time.Millisecond)))

	rec, ok := d.Record(ScopePage)
	require.True(t, ok)
	assert.Equal(t, t0.Add(3*time.Second), rec.At)
}

func TestShouldAccept_DifferentTextAccepted(t *testing.T) {
	d := New(nil)
	t0 := time.Now()

	assert.True(t, d.ShouldAccept(ScopePage, "a", t0))
	assert.True(t, d.ShouldAccept(ScopePage, "b", t0.Add(time.Millisecond)))
	// record now holds "b", so "a" is new again
	assert.True(t, d.ShouldAccept(ScopePage, "a", t0.Add(2*time.Millisecond)))
}

func TestShouldAccept_ScopesAreIndependent(t *testing.T) {
	d := New(nil)
	t0 := time.Now()

	assert.True(t, d.ShouldAccept(ScopePage, "x", t0))
	assert.True(t, d.ShouldAccept(ScopeBackground, "x", t0))
	assert.True(t, d.ShouldAccept(ScopeDelivered, "x", t0))
}

func TestShouldAccept_BlankRejected(t *testing.T) {
	d := New(nil)
	assert.False(t, d.ShouldAccept(ScopePage, "", time.Now()))
	assert.False(t, d.ShouldAccept(ScopePage, "  \n", time.Now()))

	_, ok := d.Record(ScopePage)
	assert.False(t, ok, "blank text must not touch the record")
}

func TestSeed(t *testing.T) {
	d := New(nil)
	t0 := time.Now()

	d.Seed(ScopeDelivered, domain.DedupRecord{Text: "persisted", At: t0})
	assert.False(t, d.ShouldAccept(ScopeDelivered, "persisted", t0.Add(time.Second)))

	d.Seed(ScopePage, domain.DedupRecord{})
	_, ok := d.Record(ScopePage)
	assert.False(t, ok, "zero record must not be seeded")
}

func TestShouldAccept_ConcurrentSingleWinner(t *testing.T) {
	d := New(nil)
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.ShouldAccept(ScopeBackground, "race", now) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}

func TestInFlight(t *testing.T) {
	var f InFlight

	require.True(t, f.TryAcquire())
	assert.True(t, f.Busy())
	assert.False(t, f.TryAcquire(), "second acquire must fail while busy")

	f.Release()
	assert.False(t, f.Busy())
	assert.True(t, f.TryAcquire())
}
