package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stacklineage/pkg/buildinfo"
	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/observability"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		middleware.Recoverer,
		httpHooks,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/nodes", s.handleNodes)
		r.Get("/lineage", s.handleLineage)
	})
	return r
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
	Graph  graphInfo      `json:"graph"`
}

type graphInfo struct {
	Path     string    `json:"path"`
	Hash     string    `json:"hash"`
	Nodes    int       `json:"nodes"`
	Edges    int       `json:"edges"`
	LoadedAt time.Time `json:"loadedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Build:  buildinfo.Get(),
		Graph: graphInfo{
			Path:     s.cfg.GraphPath,
			Hash:     snap.hash,
			Nodes:    snap.graph.NodeCount(),
			Edges:    snap.graph.EdgeCount(),
			LoadedAt: snap.loadedAt,
		},
	})
}

type nodeSummary struct {
	ID     string       `json:"id"`
	Kind   lineage.Kind `json:"kind"`
	Name   string       `json:"name"`
	IsTask bool         `json:"isTask,omitempty"`
}

// handleNodes lists the graph's nodes, optionally filtered by ?kind=job|dataset.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	var want lineage.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := lineage.ParseKind(strings.ToUpper(raw))
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "%v", err))
			return
		}
		want = k
	}

	snap := s.current()
	out := make([]nodeSummary, 0, snap.graph.NodeCount())
	for _, n := range snap.graph.Nodes {
		if want != "" && n.Kind() != want {
			continue
		}
		out = append(out, nodeSummary{ID: n.ID, Kind: n.Kind(), Name: n.Payload.Name(), IsTask: n.IsTask()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": out})
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

// handleLineage builds the view described by the query string. ?format=
// selects json (default), dot, svg or png. A missing or unknown nodeId is
// only an error without isFull; with it the whole graph is returned off-path.
func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, depth, err := view.ParseQuery(q)
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidOptions, "%v", err))
		return
	}
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = pipeline.FormatJSON
	}

	popts := pipeline.Options{
		View:     opts,
		Depth:    depth,
		Formats:  []string{format},
		Detailed: q.Get("detailed") == "true",
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if !opts.Full && opts.FocalID == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "nodeId is required unless isFull is set"))
		return
	}

	snap := s.current()
	if !opts.Full && !snap.index.Has(opts.FocalID) {
		s.writeError(w, r, errors.New(errors.ErrCodeNodeNotFound, "node %q not in graph", opts.FocalID))
		return
	}

	ctx := r.Context()
	v, err := s.cfg.Runner.BuildView(ctx, snap.graph, snap.hash, popts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, err := s.cfg.Runner.Render(ctx, v, popts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)

	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
		msg = "internal error"
	}
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      string(code),
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
