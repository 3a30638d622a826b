// Package server serves lineage views over HTTP.
//
// The server holds one graph in memory and answers view requests against it.
// With Watch enabled the graph file is re-read whenever it changes on disk and
// the new graph replaces the old one atomically; in-flight requests finish
// against the snapshot they started with.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config holds configuration for the server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// GraphPath is the lineage file served.
	GraphPath string

	// Watch reloads GraphPath when it changes.
	Watch bool

	// Runner builds and renders views. It owns the cache.
	Runner *pipeline.Runner

	Logger *log.Logger
}

// snapshot is one loaded version of the graph file.
type snapshot struct {
	graph    *lineage.Graph
	index    *lineage.Index
	hash     string
	loadedAt time.Time
}

// Server answers view requests for a single graph file.
type Server struct {
	cfg    Config
	logger *log.Logger
	graph  atomic.Pointer[snapshot]
}

// New creates a server and loads the graph once. A graph that cannot be read
// is an error here; later reload failures keep the previous snapshot.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("server: runner is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Runner.Logger
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// reload reads the graph file and swaps it in.
func (s *Server) reload(ctx context.Context) error {
	g, hash, err := s.cfg.Runner.Load(ctx, s.cfg.GraphPath)
	if err != nil {
		return err
	}
	prev := s.graph.Swap(&snapshot{
		graph:    g,
		index:    lineage.NewIndex(g),
		hash:     hash,
		loadedAt: time.Now(),
	})
	if prev != nil && prev.hash != hash {
		s.logger.Info("graph reloaded", "path", s.cfg.GraphPath, "nodes", g.NodeCount())
	}
	return nil
}

func (s *Server) current() *snapshot { return s.graph.Load() }

// Serve starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.cfg.Addr, "graph", s.cfg.GraphPath, "watch", s.cfg.Watch)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if s.cfg.Watch {
		eg.Go(func() error {
			return s.watch(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
