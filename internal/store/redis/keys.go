package redis

import "github.com/MrSnakeDoc/clipdoc/internal/store"

// KeyPrefix namespaces every clipdoc key.
const KeyPrefix = "clipdoc:"

// Key returns the namespaced Redis key for a store key.
func Key(name string) string {
	return KeyPrefix + name
}

// Redis keys for each persisted value.
var (
	KeyIsAuthorized      = Key(store.KeyIsAuthorized)
	KeyDocID             = Key(store.KeyDocID)
	KeyIncludeSourceURLs = Key(store.KeyIncludeSourceURLs)
	KeyLastCopiedText    = Key(store.KeyLastCopiedText)
	KeyLastCopyTime      = Key(store.KeyLastCopyTime)
)
