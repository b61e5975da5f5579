package domain

import (
	"errors"
	"testing"
	"time"
)

func TestComposeBlock(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		title string
		want  string
	}{
		{
			name:  "with source",
			url:   "https://example.com/a",
			title: "Example",
			want:  "Source: Example\nURL: https://example.com/a\n\nhello\n\n",
		},
		{
			name: "without source",
			want: "hello\n\n",
		},
		{
			name: "url only is not enough",
			url:  "https://example.com/a",
			want: "hello\n\n",
		},
		{
			name:  "title only is not enough",
			title: "Example",
			want:  "hello\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewDeliveryRequest(true, "DOC", "hello", tt.url, tt.title)
			if err != nil {
				t.Fatalf("NewDeliveryRequest() error = %v", err)
			}
			if got := req.ComposeBlock(); got != tt.want {
				t.Errorf("ComposeBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDeliveryRequestPreconditions(t *testing.T) {
	if _, err := NewDeliveryRequest(false, "DOC", "hello", "", ""); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("unauthorized: error = %v, want ErrNotAuthorized", err)
	}
	if _, err := NewDeliveryRequest(true, "", "hello", "", ""); !errors.Is(err, ErrNoTargetConfigured) {
		t.Errorf("no doc: error = %v, want ErrNoTargetConfigured", err)
	}
}

func TestNewCandidate(t *testing.T) {
	now := time.Now()

	if _, ok := NewCandidate("  \n\t ", SourceSelectionCopy, now); ok {
		t.Error("blank text should be rejected")
	}

	c, ok := NewCandidate("  hello  ", SourceBackgroundClipboardPoll, now)
	if !ok {
		t.Fatal("non-blank text should be accepted")
	}
	if c.Text != "hello" {
		t.Errorf("Text = %q, want trimmed %q", c.Text, "hello")
	}
	if c.ID == "" {
		t.Error("ID should be set")
	}
	if c.Source != SourceBackgroundClipboardPoll || !c.ObservedAt.Equal(now) {
		t.Errorf("unexpected provenance: %+v", c)
	}
}

func TestPreview(t *testing.T) {
	short := "short text"
	if got := Preview(short); got != short {
		t.Errorf("Preview(%q) = %q", short, got)
	}

	long := ""
	for i := 0; i < 60; i++ {
		long += "é"
	}
	got := Preview(long)
	if len([]rune(got)) != 53 {
		t.Errorf("Preview() rune length = %d, want 53", len([]rune(got)))
	}
}
