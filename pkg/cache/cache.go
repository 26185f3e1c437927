// Package cache stores rendered artifacts keyed by the content they were
// rendered from.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: caching disabled
//
// Keys are built with [Key], which hashes its parts so arbitrary graph text
// never ends up in a file name or Redis key.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored data and true, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero keeps the entry forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key kinds.
const (
	KindSVG = "svg"
	KindPNG = "png"
	KindPDF = "pdf"
)

// DefaultTTL is how long rendered artifacts are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Key builds a cache key for an artifact of the given kind rendered from
// parts. The key format is kind:sha256(parts).
func Key(kind string, parts ...any) string {
	return hashKey(kind, parts...)
}
