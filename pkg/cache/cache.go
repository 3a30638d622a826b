// Package cache stores built views and rendered artifacts so repeated
// requests for the same graph and options skip the work.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: bounded LRU, for a single server process
//   - [RedisCache], [MongoCache]: shared caches for several server replicas
//
// All backends store opaque bytes with an optional TTL. A miss is reported as
// (nil, false, nil), never as an error.
//
// # Keys
//
// A [Keyer] derives keys from a content hash of the graph plus every option
// that changes the output, so an edited graph file never serves stale views.
// [ScopedKeyer] prefixes keys, which lets several graphs or tenants share one
// Redis or Mongo instance.
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries. Keys are content-addressed, so the TTL only bounds
// how long unused entries linger.
const (
	TTLView     = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear empties c if the backend supports it and reports whether it did.
func Clear(ctx context.Context, c Cache) (bool, error) {
	cl, ok := c.(Clearer)
	if !ok {
		return false, nil
	}
	return true, cl.Clear(ctx)
}

// Keyer derives cache keys.
type Keyer interface {
	// ViewKey identifies a built view.
	ViewKey(graphHash string, opts ViewKeyOpts) string

	// ArtifactKey identifies a rendered view (DOT, SVG, PNG).
	ArtifactKey(viewHash string, opts ArtifactKeyOpts) string
}

// ViewKeyOpts lists every input of a view besides the graph itself.
type ViewKeyOpts struct {
	FocalID      string   `json:"focal_id"`
	Full         bool     `json:"full"`
	Compact      bool     `json:"compact"`
	ShowJobs     bool     `json:"show_jobs"`
	ShowDatasets bool     `json:"show_datasets"`
	Collapsed    []string `json:"collapsed,omitempty"` // sorted
	Depth        int      `json:"depth,omitempty"`
}

// ArtifactKeyOpts lists the render settings of an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ViewKey returns "view:<sha256>".
func (DefaultKeyer) ViewKey(graphHash string, opts ViewKeyOpts) string {
	return hashKey("view", graphHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", viewHash, opts)
}
