package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacklineage/pkg/cache"
	"github.com/matzehuels/stacklineage/pkg/errors"
	pkgio "github.com/matzehuels/stacklineage/pkg/io"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/observability"
	"github.com/matzehuels/stacklineage/pkg/render/nodelink"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// Cache key types reported to observability hooks.
const (
	keyTypeView     = "view"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger: it doesn't store
// pipeline results, so several goroutines may share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the expiry of cached views and artifacts when positive.
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

// Execute runs the complete load → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "graph path is required")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	g, graphHash, err := r.Load(ctx, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.GraphHash = graphHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	opts.Logger.Info("loaded graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	v, viewHit, err := r.BuildViewWithCacheInfo(ctx, g, graphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.View = v
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.ViewNodeCount = len(v.Nodes)
	result.Stats.ViewEdgeCount = len(v.Edges)
	result.CacheInfo.ViewHit = viewHit

	opts.Logger.Info("built view",
		"focus", v.FocalID,
		"nodes", len(v.Nodes),
		"edges", len(v.Edges),
		"cached", viewHit,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, viewHash, renderHit, err := r.render(ctx, v, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.ViewHash = viewHash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the graph at path and returns it with its content hash.
func (r *Runner) Load(ctx context.Context, path string) (*lineage.Graph, string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, "", err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLoadStart(ctx, path)

	g, err := pkgio.Import(path)
	nodes := 0
	if g != nil {
		nodes = g.NodeCount()
	}
	hooks.OnLoadComplete(ctx, path, nodes, time.Since(start), err)
	if err != nil {
		return nil, "", err
	}

	hash, err := GraphHash(g)
	if err != nil {
		return nil, "", err
	}
	r.Logger.Debug("read graph file", "path", path, "nodes", nodes, "hash", hash[:12])
	return g, hash, nil
}

// GraphHash returns the content hash of g's canonical JSON encoding.
func GraphHash(g *lineage.Graph) (string, error) {
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(g, &buf); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	return cache.Hash(buf.Bytes()), nil
}

// BuildViewWithCacheInfo builds the view for opts with caching and reports
// whether it came from the cache. When opts.Depth is set, the graph is first
// trimmed to the neighbourhood of the focal node.
func (r *Runner) BuildViewWithCacheInfo(ctx context.Context, g *lineage.Graph, graphHash string, opts Options) (view.View, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBuild(); err != nil {
		return view.View{}, false, err
	}

	if graphHash == "" {
		h, err := GraphHash(g)
		if err != nil {
			return view.View{}, false, err
		}
		graphHash = h
	}
	cacheKey := r.Keyer.ViewKey(graphHash, opts.ViewKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if v, err := pkgio.ReadView(bytes.NewReader(data)); err == nil {
				hooks.OnCacheHit(ctx, keyTypeView)
				return v, true, nil
			}
			// Undecodable entries are rebuilt and overwritten.
		} else if err != nil {
			opts.Logger.Warn("view cache read failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, keyTypeView)
	}

	v := Build(ctx, g, opts.View, opts.Depth)

	var buf bytes.Buffer
	if err := pkgio.WriteView(v, &buf); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), r.ttl(cache.TTLView)); err != nil {
			opts.Logger.Warn("view cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeView, buf.Len())
		}
	}
	return v, false, nil
}

// BuildView is a convenience wrapper that calls BuildViewWithCacheInfo and
// discards the cache hit info.
func (r *Runner) BuildView(ctx context.Context, g *lineage.Graph, graphHash string, opts Options) (view.View, error) {
	v, _, err := r.BuildViewWithCacheInfo(ctx, g, graphHash, opts)
	return v, err
}

// Build computes a view without caching. A positive depth trims the graph to
// the focal node's neighbourhood first; an unknown focal node skips the trim.
func Build(ctx context.Context, g *lineage.Graph, opts view.Options, depth int) view.View {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnBuildStart(ctx, opts.FocalID, g.NodeCount())

	work := g
	if depth > 0 {
		if ix := lineage.NewIndex(g); ix.Has(opts.FocalID) {
			work = ix.Neighbourhood(g, opts.FocalID, depth)
		}
	}
	v := view.Build(work, opts)

	hooks.OnBuildComplete(ctx, opts.FocalID, len(v.Nodes), len(v.Edges), time.Since(start))
	return v
}

// RenderWithCacheInfo renders every format in opts.Formats with caching and
// reports whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, v view.View, opts Options) (map[string][]byte, bool, error) {
	artifacts, _, hit, err := r.render(ctx, v, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Render(ctx context.Context, v view.View, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, v, opts)
	return artifacts, err
}

func (r *Runner) render(ctx context.Context, v view.View, opts Options) (map[string][]byte, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}

	var viewJSON bytes.Buffer
	if err := pkgio.WriteView(v, &viewJSON); err != nil {
		return nil, "", false, errors.Wrap(errors.ErrCodeInternal, err, "encode view")
	}
	viewHash := cache.Hash(viewJSON.Bytes())
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := !opts.Refresh
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		key := r.Keyer.ArtifactKey(viewHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
		}
		allCached = false

		data, err := renderFormat(ctx, v, viewJSON.Bytes(), format, opts)
		if err != nil {
			return nil, "", false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			opts.Logger.Warn("artifact cache write failed", "format", format, "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return artifacts, viewHash, allCached, nil
}

// renderFormat produces one artifact. viewJSON is the already encoded view.
func renderFormat(ctx context.Context, v view.View, viewJSON []byte, format string, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, format)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data = viewJSON
	case FormatDOT:
		data = []byte(nodelink.ToDOT(v, nodelink.Options{Detailed: opts.Detailed}))
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(v, nodelink.Options{Detailed: opts.Detailed}))
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, nodelink.ToDOT(v, nodelink.Options{Detailed: opts.Detailed}))
	default:
		err = errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}

	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
