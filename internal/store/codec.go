package store

import (
	"strconv"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
)

// Backends store every value as a string; these helpers keep the encoding
// identical across them.

// FormatBool encodes a flag.
func FormatBool(v bool) string { return strconv.FormatBool(v) }

// ParseBool decodes a flag, returning def for absent or malformed values.
func ParseBool(raw string, ok bool, def bool) bool {
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// FormatTime encodes a timestamp as unix milliseconds.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseTime decodes unix milliseconds; 0 or garbage is the zero time.
func ParseTime(raw string) time.Time {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// DecodeSettings builds Settings from raw values.
func DecodeSettings(docID string, includeRaw string, includeSet bool) domain.Settings {
	s := domain.DefaultSettings()
	s.DocumentID = docID
	s.IncludeSourceURLs = ParseBool(includeRaw, includeSet, s.IncludeSourceURLs)
	return s
}
