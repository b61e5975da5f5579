package domain

import (
	"errors"
	"strings"
)

// Settings is the user-controlled part of the persisted state.
type Settings struct {
	// DocumentID is the target Google Doc. Empty means not configured.
	DocumentID string `json:"docId"`

	// IncludeSourceURLs prefixes deliveries with the page title and URL.
	IncludeSourceURLs bool `json:"includeSourceUrls"`
}

// DefaultSettings returns the values used for absent keys.
func DefaultSettings() Settings {
	return Settings{IncludeSourceURLs: true}
}

// ErrEmptyDocumentID is returned when saving settings without a document.
var ErrEmptyDocumentID = errors.New("please enter a Google Doc ID or URL")

const docURLMarker = "docs.google.com/document/d/"

// ParseDocumentID accepts a bare document id or a full Google Docs URL
// and returns the id.
//
//	"https://docs.google.com/document/d/ABC123/edit" -> "ABC123"
//	"ABC123"                                         -> "ABC123"
func ParseDocumentID(input string) (string, error) {
	id := strings.TrimSpace(input)
	if id == "" {
		return "", ErrEmptyDocumentID
	}

	if before, _, found := strings.Cut(id, "/edit"); found {
		id = before
	}
	if _, after, found := strings.Cut(id, docURLMarker); found {
		id = after
	}
	id = strings.TrimSuffix(id, "/")

	if id == "" {
		return "", ErrEmptyDocumentID
	}
	return id, nil
}
