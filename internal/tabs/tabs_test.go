package tabs

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()

	if _, ok := tr.ActiveTab(ctx); ok {
		t.Fatal("new tracker should have no active tab")
	}

	want := domain.Tab{URL: "https://example.com", Title: "Example"}
	tr.SetActive(want)
	got, ok := tr.ActiveTab(ctx)
	if !ok || got != want {
		t.Errorf("ActiveTab() = %+v, %v; want %+v, true", got, ok, want)
	}

	tr.Clear()
	if _, ok := tr.ActiveTab(ctx); ok {
		t.Error("ActiveTab() after Clear should report false")
	}
}
