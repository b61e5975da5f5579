// Package messaging defines the messages exchanged between observation
// contexts, the CLI and the delivery owner, and an HTTP client for them.
package messaging

import (
	"context"
	"time"
)

// Action names a message.
type Action string

const (
	ActionAuthorize   Action = "authorize"
	ActionClearAuth   Action = "clearAuth"
	ActionTextCopied  Action = "textCopied"
	ActionManualPaste Action = "manualPaste"
	ActionTextPasted  Action = "textPasted"
)

// Request is sent to the delivery owner.
type Request struct {
	Action       Action `json:"action"`
	Text         string `json:"text,omitempty"`
	URL          string `json:"url,omitempty"`
	Title        string `json:"title,omitempty"`
	ProcessingID string `json:"processingId,omitempty"`
}

// Response is the owner's reply. A reply with neither Success nor Error is
// empty: the sender cannot tell what happened.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK is a successful reply.
func OK() Response { return Response{Success: true} }

// Fail is a failed reply carrying a user message.
func Fail(msg string) Response { return Response{Error: msg} }

// IsEmpty reports a reply without outcome.
func (r Response) IsEmpty() bool { return !r.Success && r.Error == "" }

// Event is pushed by the delivery owner to every observation context.
type Event struct {
	Action  Action `json:"action"`
	Success bool   `json:"success"`
}

// TextPasted is the event broadcast after a background delivery.
func TextPasted(success bool) Event {
	return Event{Action: ActionTextPasted, Success: success}
}

// Handler is implemented by the delivery owner. Errors are transport
// failures only; outcomes travel in Response.
type Handler interface {
	Authorize(ctx context.Context) (Response, error)
	ClearAuth(ctx context.Context) (Response, error)
	TextCopied(ctx context.Context, req Request) (Response, error)
	ManualPaste(ctx context.Context, req Request) (Response, error)
}

// Dispatch routes req to the matching Handler method.
func Dispatch(ctx context.Context, h Handler, req Request) (Response, error) {
	switch req.Action {
	case ActionAuthorize:
		return h.Authorize(ctx)
	case ActionClearAuth:
		return h.ClearAuth(ctx)
	case ActionTextCopied:
		return h.TextCopied(ctx, req)
	case ActionManualPaste:
		return h.ManualPaste(ctx, req)
	default:
		return Fail("unknown action: " + string(req.Action)), nil
	}
}

// Status is the daemon state reported to the CLI.
type Status struct {
	State             string    `json:"state"`
	Authorized        bool      `json:"authorized"`
	DocumentID        string    `json:"docId"`
	IncludeSourceURLs bool      `json:"includeSourceUrls"`
	LastCopiedText    string    `json:"lastCopiedText,omitempty"`
	LastCopyTime      time.Time `json:"lastCopyTime,omitempty"`
	LastDeliveredText string    `json:"lastDeliveredText,omitempty"`
	LastDeliveredAt   time.Time `json:"lastDeliveredAt,omitempty"`
	Delivering        bool      `json:"delivering"`
	Contexts          int       `json:"contexts"`
	Version           string    `json:"version"`
}

// SettingsUpdate changes only the fields that are set.
type SettingsUpdate struct {
	DocumentID        *string `json:"docId,omitempty"`
	IncludeSourceURLs *bool   `json:"includeSourceUrls,omitempty"`
}
