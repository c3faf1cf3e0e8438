// Package cache stores derived pedigree data (layouts, risk tables and
// rendered artifacts) keyed by a content hash of the document they were
// derived from.
//
// Backends:
//   - [FileCache]: directory of JSON entries, for the CLI
//   - [RedisCache]: shared cache for `pedigree serve` deployments
//   - [NullCache]: disables caching
//
// Keys come from a [Keyer], so that every entry point (CLI, HTTP server)
// computes identical keys for identical inputs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default TTLs per entry kind. Entries are content-addressed, so TTLs only
// bound disk and memory use.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLRisk     = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
