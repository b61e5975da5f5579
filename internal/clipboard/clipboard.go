// Package clipboard reads the system clipboard.
package clipboard

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

// Reader returns the current clipboard text.
type Reader interface {
	ReadText(ctx context.Context) (string, error)
}

// System reads the OS clipboard through atotto/clipboard.
type System struct {
	read func() (string, error)
}

// NewSystem returns a reader bound to the OS clipboard.
func NewSystem() *System {
	return &System{read: clipboard.ReadAll}
}

// Supported reports whether a clipboard utility is available.
func Supported() bool {
	return !clipboard.Unsupported
}

// ReadText returns the clipboard content. Any failure is reported as
// domain.ErrPermissionDenied so that pollers can drop it.
func (s *System) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !Supported() {
		return "", fmt.Errorf("%w: no clipboard utility on this platform", domain.ErrPermissionDenied)
	}
	text, err := s.read()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return text, nil
}

// Static is a Reader returning fixed content. Useful for tests and for
// the manual paste path where the text is already known.
type Static struct {
	Text string
	Err  error
}

// ReadText returns the configured text or error.
func (s Static) ReadText(context.Context) (string, error) {
	return s.Text, s.Err
}
