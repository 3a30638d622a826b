// Package cli implements the stacklineage command-line interface.
//
// The commands load a lineage graph (Marquez-style JSON or TOML), build the
// view around a focal node and either print it, render it with Graphviz,
// serve it over HTTP or browse it interactively. The CLI is built using cobra
// and logs through charmbracelet/log.
//
// # Commands
//
//   - view: build a view and write it as JSON, DOT, SVG or PNG
//   - lineage: list what lies upstream and downstream of a node
//   - seed: write the six-layer sample lineage
//   - serve: serve views over HTTP, reloading the graph when it changes
//   - explore: browse a view in the terminal and toggle its options
//   - cache: clear the cache or print its location
//
// # Configuration
//
// View toggles, the cache backend and server settings come from
// stacklineage.yaml, STACKLINEAGE_* environment variables (a .env file is
// honoured) and flags, in increasing order of precedence.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context, and pipeline, cache and HTTP events are
// logged through observability hooks registered at startup.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacklineage/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Built view of 12 nodes (3ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability hooks
// =============================================================================

// logHooks logs pipeline, cache and HTTP events at debug level; failures and
// server errors are logged as errors.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnLoadStart(_ context.Context, path string) {
	h.logger.Debug("loading graph", "path", path)
}

func (h *logHooks) OnLoadComplete(_ context.Context, path string, nodes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("load failed", "path", path, "error", err)
		return
	}
	h.logger.Debug("loaded graph", "path", path, "nodes", nodes, "duration", d)
}

func (h *logHooks) OnBuildStart(_ context.Context, focal string, graphNodes int) {
	h.logger.Debug("building view", "focus", focal, "graph_nodes", graphNodes)
}

func (h *logHooks) OnBuildComplete(_ context.Context, focal string, nodes, edges int, d time.Duration) {
	h.logger.Debug("built view", "focus", focal, "nodes", nodes, "edges", edges, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("rendering", "format", format)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("render failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("rendered", "format", format, "bytes", size, "duration", d)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *logHooks) OnError(_ context.Context, method, path string, err error) {
	h.logger.Error("request failed", "method", method, "path", path, "error", err)
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.HTTPHooks     = (*logHooks)(nil)
)
