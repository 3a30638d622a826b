// Package pipeline provides the load → build → render pipeline shared by the
// CLI commands and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a lineage graph from a JSON or TOML file
//  2. Build: compute the view for a focal node and view options
//  3. Render: encode the view as JSON, DOT, SVG or PNG
//
// Build and render results are cached. Keys are derived from the content hash
// of the graph, so editing the graph file invalidates every cached view.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "lineage.json",
//	    View:    view.DefaultOptions("dataset:default:orders"),
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, hash, err := runner.Load(ctx, path)
//	v, err := runner.BuildView(ctx, g, hash, opts)
//	artifacts, err := runner.Render(ctx, v, opts)
package pipeline

import (
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacklineage/pkg/cache"
	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatJSON

// Options contains all configuration for one pipeline run.
type Options struct {
	// Path is the graph file read by Execute.
	Path string `json:"path,omitempty"`

	// View selects the focal node and the view toggles.
	View view.Options `json:"-"`

	// Depth limits traversal to this many hops around the focal node before
	// the view is built. Zero means unlimited.
	Depth int `json:"depth,omitempty"`

	// Formats lists the artifacts to render.
	Formats []string `json:"formats,omitempty"`

	// Detailed lists dataset fields in DOT, SVG and PNG labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh bypasses cached views and artifacts but still stores the new
	// results.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded lineage graph.
	Graph *lineage.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// View is the built view.
	View view.View

	// ViewHash is the content hash of the encoded view.
	ViewHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	ViewNodeCount int
	ViewEdgeCount int
	LoadTime      time.Duration
	BuildTime     time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ViewHit   bool // Whether the view came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Path != "" {
		if err := errors.ValidatePath(o.Path); err != nil {
			return err
		}
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks the view inputs. An empty focal id is allowed: the
// view then has nothing on-path and is only populated when Full is set.
func (o *Options) ValidateForBuild() error {
	if o.View.FocalID != "" {
		if err := errors.ValidateNodeID(o.View.FocalID); err != nil {
			return err
		}
	}
	if err := errors.ValidateDepth(o.Depth); err != nil {
		return err
	}
	o.setLoggerDefault()
	return nil
}

// ValidateForRender normalizes and checks the requested formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for i, f := range o.Formats {
		o.Formats[i] = strings.ToLower(f)
	}
	o.setLoggerDefault()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ViewKeyOpts returns cache key options for view building.
func (o *Options) ViewKeyOpts() cache.ViewKeyOpts {
	return cache.ViewKeyOpts{
		FocalID:      o.View.FocalID,
		Full:         o.View.Full,
		Compact:      o.View.Compact,
		ShowJobs:     o.View.ShowJobs,
		ShowDatasets: o.View.ShowDatasets,
		Collapsed:    slices.Sorted(maps.Keys(o.View.Collapsed)),
		Depth:        o.Depth,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
}
