// Package cache provides the key/value caches used by depmanifest.
//
// Three backends implement [Cache]:
//   - [FileCache] stores JSON envelopes under the user cache directory (CLI)
//   - [RedisCache] shares entries between API server replicas
//   - [NullCache] disables caching
//
// Keys are built by a [Keyer] so that CLI and server agree on key layout.
// [ScopedKeyer] prefixes keys for multi-tenant isolation.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a raw HTTP response (e.g. a fetched BOM document).
	HTTPKey(namespace, key string) string

	// BOMKey keys the version table of a platform at a version.
	BOMKey(coordinate, version string) string

	// ResolveKey keys a complete resolution result.
	ResolveKey(opts ResolveKeyOpts) string
}

// ResolveKeyOpts holds every input that influences a resolution result.
type ResolveKeyOpts struct {
	ManifestHash string   // hash of the manifest bytes
	Filename     string   // manifest filename (selects the parser)
	CatalogHash  string   // hash of the catalog bytes, empty without a catalog
	Roles        []string // role filter
	Offline      bool     // whether remote BOMs were skipped
	Overrides    map[string]string
	Dir          string   // manifest directory, names the project when the manifest does not
	Sources      []string // BOM loaders consulted, in order
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// BOMKey returns "bom:<coordinate>:<version>".
func (DefaultKeyer) BOMKey(coordinate, version string) string {
	return "bom:" + coordinate + ":" + version
}

// ResolveKey hashes all options into "resolve:<sha256>".
func (DefaultKeyer) ResolveKey(opts ResolveKeyOpts) string {
	return hashKey("resolve", opts)
}
