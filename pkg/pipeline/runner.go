package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/perspectives/pkg/cache"
	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/observability"
)

// artifactKeyType labels artifact events in the cache hooks.
const artifactKeyType = "artifact"

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and the live preview all go through it.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached artifacts. Zero means cache.TTLArtifact.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute renders and encodes opts, serving the artifact from the cache
// when possible. Cache failures are logged and otherwise ignored.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	artifact, img, hit, stats, err := r.RenderWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Image:    img,
		Artifact: artifact,
		Format:   opts.Format,
		Width:    opts.CanvasSize,
		Height:   opts.CanvasSize,
		Stats:    stats,
		CacheHit: hit,
	}
	if img != nil {
		result.Width, result.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}

	r.Logger.Debug("rendered artifact",
		"format", opts.Format,
		"bytes", stats.Bytes,
		"cached", hit,
		"duration", stats.RenderTime+stats.EncodeTime)

	return result, nil
}

// RenderWithCacheInfo returns the encoded artifact for opts and whether it
// came from the cache. The decoded canvas is only returned on a miss.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, opts Options) ([]byte, *image.NRGBA, bool, Stats, error) {
	var stats Stats
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, false, stats, err
	}

	hooks := observability.Cache()
	cacheKey := r.Keyer.ArtifactKey(opts.KeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		if err == nil && hit {
			hooks.OnCacheHit(ctx, artifactKeyType)
			stats.Bytes = len(data)
			return data, nil, true, stats, nil
		}
		hooks.OnCacheMiss(ctx, artifactKeyType)
	}

	renderStart := time.Now()
	img, err := Compute(ctx, opts)
	if err != nil {
		return nil, nil, false, stats, err
	}
	stats.RenderTime = time.Since(renderStart)

	encodeStart := time.Now()
	data, err := io.EncodeBytes(img, opts.Format)
	stats.EncodeTime = time.Since(encodeStart)
	observability.PipelineFrom(ctx).OnStage(ctx, observability.StageEncode, stats.EncodeTime, err)
	if err != nil {
		return nil, nil, false, stats, err
	}
	stats.Bytes = len(data)

	if err := r.Cache.Set(ctx, cacheKey, data, r.ttl()); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, artifactKeyType, len(data))
	}

	return data, img, false, stats, nil
}

// Render is a convenience wrapper that returns only the encoded artifact.
func (r *Runner) Render(ctx context.Context, opts Options) ([]byte, error) {
	data, _, _, _, err := r.RenderWithCacheInfo(ctx, opts)
	return data, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLArtifact
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
