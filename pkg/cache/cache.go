// Package cache stores rendered artifacts and other derived bytes.
//
// Every backend implements [Cache]. Keys come from a [Keyer], which hashes
// the input file fingerprint together with the options that shaped the
// output, so a changed shapefile or a different view never hits a stale
// entry:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Fingerprint(stamps), cache.ArtifactKeyOpts{
//	    Site: "KOG", DateRange: "20170611-20170713", View: "quartiles", Format: "svg",
//	})
//
// Backends:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [MongoCache]: document store with a TTL index
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"slices"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and
	// unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey identifies one rendered output of a shape set.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string

	// TableKey identifies a derived table such as a correlation matrix.
	TableKey(inputHash string, opts TableKeyOpts) string

	// ResponseKey identifies a whole HTTP response body.
	ResponseKey(route, query string) string
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Site       string   `json:"site"`
	DateRange  string   `json:"date_range"`
	View       string   `json:"view"`
	Mode       string   `json:"mode,omitempty"`
	Format     string   `json:"format"`
	AngleMean  string   `json:"angle_mean,omitempty"`
	DisplayCRS string   `json:"display_crs,omitempty"`
	IDs        []string `json:"ids,omitempty"`
}

// TableKeyOpts are the options that change a derived table.
type TableKeyOpts struct {
	Kind      string `json:"kind"`
	Site      string `json:"site"`
	DateRange string `json:"date_range"`
}

// DefaultKeyer hashes options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<hash>". ID order does not matter.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	if len(opts.IDs) > 0 {
		opts.IDs = slices.Sorted(slices.Values(opts.IDs))
	}
	return hashKey("artifact", inputHash, opts)
}

// TableKey returns "table:<hash>".
func (DefaultKeyer) TableKey(inputHash string, opts TableKeyOpts) string {
	return hashKey("table", inputHash, opts)
}

// ResponseKey returns "response:<route>:<query>" unhashed so entries can
// be inspected by hand.
func (DefaultKeyer) ResponseKey(route, query string) string {
	return "response:" + route + ":" + query
}

var _ Keyer = DefaultKeyer{}
