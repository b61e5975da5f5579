// Package store defines the persisted key/value state shared by every
// clipdoc component.
//
// Keys (absent keys take the defaults in parentheses):
//
//	isAuthorized      bool   (false)
//	docId             string ("")
//	includeSourceUrls bool   (true)
//	lastCopiedText    string ("")
//	lastCopyTime      int64 unix millis (0)
package store

import (
	"context"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

// Key names, shared by every backend.
const (
	KeyIsAuthorized      = "isAuthorized"
	KeyDocID             = "docId"
	KeyIncludeSourceURLs = "includeSourceUrls"
	KeyLastCopiedText    = "lastCopiedText"
	KeyLastCopyTime      = "lastCopyTime"
)

// Store is the Settings Store.
type Store interface {
	IsAuthorized(ctx context.Context) (bool, error)
	SetAuthorized(ctx context.Context, authorized bool) error

	Settings(ctx context.Context) (domain.Settings, error)
	SaveDocumentID(ctx context.Context, documentID string) error
	SaveIncludeSourceURLs(ctx context.Context, include bool) error

	LastCopied(ctx context.Context) (domain.DedupRecord, error)
	SaveLastCopied(ctx context.Context, rec domain.DedupRecord) error

	// Ping reports backend health for readiness checks.
	Ping(ctx context.Context) error
	Close() error
}
