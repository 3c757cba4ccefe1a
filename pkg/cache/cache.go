// Package cache stores encoded render artifacts between runs.
//
// A rendered image depends only on its options, so the pipeline runner keys
// each artifact by a hash of those options and skips the whole pipeline on a
// hit. Four backends implement [Cache]:
//
//   - [FileCache]: one file per entry under a local directory (CLI default)
//   - [NullCache]: stores nothing (caching disabled)
//   - [RedisCache]: a shared Redis server (go-redis)
//   - [MongoCache]: a MongoDB collection with a TTL index (mongo-driver)
//
// Use [Open] to build a backend from [Options].
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. Implementations must be safe
// for concurrent use. A miss is reported as (nil, false, nil), not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live values.
const (
	// TTLArtifact applies to encoded images. Renders are deterministic, so
	// the limit only bounds disk use.
	TTLArtifact = 7 * 24 * time.Hour
)

// ArtifactKeyOpts holds every option that changes the rendered bytes.
type ArtifactKeyOpts struct {
	Text         string  `json:"text"`
	CanvasSize   int     `json:"size"`
	Warp         bool    `json:"warp"`
	ShrinkFactor float64 `json:"shrink"`
	ScaleDivisor float64 `json:"divisor"`
	Background   string  `json:"background"`
	Format       string  `json:"format"`
	Font         string  `json:"font"`
}

// Keyer builds cache keys.
type Keyer interface {
	ArtifactKey(opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns the key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return hashKey("artifact", opts)
}
