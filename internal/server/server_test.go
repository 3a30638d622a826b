package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stacklineage/pkg/cache"
	pkgio "github.com/matzehuels/stacklineage/pkg/io"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
)

// chainGraph builds load -> orders -> report, with n extra isolated datasets.
func chainGraph(t *testing.T, extra int) *lineage.Graph {
	t.Helper()
	b := lineage.NewBuilder()
	require.NoError(t, b.Job("job:load", lineage.Job{Name: "load"}))
	require.NoError(t, b.Dataset("dataset:orders", lineage.Dataset{Name: "orders"}))
	require.NoError(t, b.Job("job:report", lineage.Job{Name: "report"}))
	require.NoError(t, b.Edge("job:load", "dataset:orders"))
	require.NoError(t, b.Edge("dataset:orders", "job:report"))
	for i := range extra {
		id := "dataset:extra" + string(rune('a'+i))
		require.NoError(t, b.Dataset(id, lineage.Dataset{Name: id}))
	}
	return b.Graph()
}

func newTestServer(t *testing.T, watch bool) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineage.json")
	require.NoError(t, pkgio.ExportJSON(chainGraph(t, 0), path))

	mem, err := cache.NewMemoryCache(16)
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(mem, nil, logger)

	s, err := New(context.Background(), Config{
		Addr:      "127.0.0.1:0",
		GraphPath: path,
		Watch:     watch,
		Runner:    runner,
		Logger:    logger,
	})
	require.NoError(t, err)
	return s, path
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewMissingGraph(t *testing.T) {
	_, err := New(context.Background(), Config{
		GraphPath: filepath.Join(t.TempDir(), "missing.json"),
		Runner:    pipeline.NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{})),
	})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	s, path := newTestServer(t, false)

	rec := get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, path, body.Graph.Path)
	assert.Equal(t, 3, body.Graph.Nodes)
	assert.Equal(t, 2, body.Graph.Edges)
	assert.NotEmpty(t, body.Build.Version)
}

func TestRequestIDPropagated(t *testing.T) {
	s, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestNodes(t *testing.T) {
	s, _ := newTestServer(t, false)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"job:load", "dataset:orders", "job:report"}},
		{"?kind=job", []string{"job:load", "job:report"}},
		{"?kind=DATASET", []string{"dataset:orders"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, s.Handler(), "/api/v1/nodes"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Nodes []nodeSummary `json:"nodes"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			var ids []string
			for _, n := range body.Nodes {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	rec := get(t, s.Handler(), "/api/v1/nodes?kind=table")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type viewBody struct {
	FocalID string `json:"focalId"`
	Nodes   []struct {
		ID     string `json:"id"`
		OnPath bool   `json:"onPath"`
	} `json:"nodes"`
	Edges []struct {
		ID        string `json:"id"`
		Synthetic bool   `json:"synthetic"`
		Relevance string `json:"relevance"`
	} `json:"edges"`
}

func TestLineage(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s.Handler(), "/api/v1/lineage?nodeId=dataset:orders")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body viewBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dataset:orders", body.FocalID)
	assert.Len(t, body.Nodes, 3)
	require.Len(t, body.Edges, 2)
	assert.Equal(t, "job:load:dataset:orders", body.Edges[0].ID)
}

func TestLineageFullWithoutFocus(t *testing.T) {
	s, _ := newTestServer(t, false)

	for _, query := range []string{
		"isFull=true",
		"isFull=true&nodeId=dataset:ghost",
		"isFull=true&nodeId=dataset:ghost&depth=1",
	} {
		t.Run(query, func(t *testing.T) {
			rec := get(t, s.Handler(), "/api/v1/lineage?"+query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body viewBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.Nodes, 3)
			for _, n := range body.Nodes {
				assert.False(t, n.OnPath, n.ID)
			}
			require.Len(t, body.Edges, 2)
			for _, e := range body.Edges {
				assert.Equal(t, "off-path", e.Relevance, e.ID)
			}
		})
	}
}

func TestLineageJobsOnly(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s.Handler(), "/api/v1/lineage?nodeId=job:load&showDatasets=false")
	require.Equal(t, http.StatusOK, rec.Code)

	var body viewBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Nodes, 2)
	require.Len(t, body.Edges, 1)
	assert.Equal(t, "job:load:job:report", body.Edges[0].ID)
	assert.True(t, body.Edges[0].Synthetic)
}

func TestLineageDepth(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s.Handler(), "/api/v1/lineage?nodeId=job:load&depth=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body viewBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Nodes, 2)
}

func TestLineageDOT(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s.Handler(), "/api/v1/lineage?nodeId=job:load&format=dot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	assert.Contains(t, rec.Body.String(), "digraph")
}

func TestLineageErrors(t *testing.T) {
	s, _ := newTestServer(t, false)

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"unknown node", "nodeId=dataset:nope", http.StatusNotFound, "NODE_NOT_FOUND"},
		{"missing node", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown node not full", "nodeId=dataset:ghost&isFull=false", http.StatusNotFound, "NODE_NOT_FOUND"},
		{"bad flag", "nodeId=job:load&isFull=maybe", http.StatusBadRequest, "INVALID_OPTIONS"},
		{"bad depth", "nodeId=job:load&depth=-2", http.StatusBadRequest, "INVALID_OPTIONS"},
		{"bad format", "nodeId=job:load&format=pdf", http.StatusBadRequest, "INVALID_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s.Handler(), "/api/v1/lineage?"+tt.query)
			require.Equal(t, tt.status, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
			assert.NotEmpty(t, body.Error.RequestID)
		})
	}
}

func TestWatchReloads(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watcher test in short mode")
	}
	s, path := newTestServer(t, true)
	before := s.current().hash

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.watch(ctx) }()

	updated := chainGraph(t, 2)
	require.Eventually(t, func() bool {
		if s.current().hash != before {
			return true
		}
		// Rewrite until the watcher has been registered and seen a write.
		tmp := path + ".tmp"
		if err := pkgio.ExportJSON(updated, tmp); err != nil {
			return false
		}
		_ = os.Rename(tmp, path)
		return false
	}, 5*time.Second, 250*time.Millisecond)

	assert.Equal(t, 5, s.current().graph.NodeCount())
	cancel()
	require.NoError(t, <-done)
}

func TestWatchKeepsGraphOnBadReload(t *testing.T) {
	s, path := newTestServer(t, false)
	before := s.current()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	require.Error(t, s.reload(context.Background()))
	assert.Same(t, before, s.current())
}
