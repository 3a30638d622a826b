package pipeline

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacklineage/pkg/cache"
	"github.com/matzehuels/stacklineage/pkg/errors"
	pkgio "github.com/matzehuels/stacklineage/pkg/io"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/observability"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// chainGraph builds j1 -> d1 -> j2 -> d2 -> j3.
func chainGraph(t *testing.T) *lineage.Graph {
	t.Helper()
	b := lineage.NewBuilder()
	steps := []error{
		b.Job("j1", lineage.Job{Name: "j1"}),
		b.Dataset("d1", lineage.Dataset{Name: "d1", Fields: []lineage.Field{{Name: "id"}}}),
		b.Job("j2", lineage.Job{Name: "j2"}),
		b.Dataset("d2", lineage.Dataset{Name: "d2"}),
		b.Job("j3", lineage.Job{Name: "j3"}),
		b.Edge("j1", "d1"),
		b.Edge("d1", "j2"),
		b.Edge("j2", "d2"),
		b.Edge("d2", "j3"),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatal(err)
		}
	}
	return b.Graph()
}

func writeGraph(t *testing.T, g *lineage.Graph) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineage.json")
	if err := pkgio.ExportJSON(g, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewMemoryCache(32)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, quietLogger())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"ok", Options{View: view.DefaultOptions("d1")}, ""},
		{"empty focus", Options{View: view.DefaultOptions("")}, ""},
		{"control char focus", Options{View: view.DefaultOptions("d\x00")}, errors.ErrCodeInvalidInput},
		{"negative depth", Options{View: view.DefaultOptions("d1"), Depth: -1}, errors.ErrCodeInvalidOptions},
		{"bad format", Options{View: view.DefaultOptions("d1"), Formats: []string{"pdf"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidateAndSetDefaults() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidateForRenderDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opts.Formats, []string{FormatJSON}) {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	opts = Options{Formats: []string{"SVG", "Dot"}}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opts.Formats, []string{"svg", "dot"}) {
		t.Errorf("Formats = %v, want lower-cased", opts.Formats)
	}
}

func TestViewKeyOpts(t *testing.T) {
	opts := Options{View: view.DefaultOptions("d1"), Depth: 2}
	opts.View.Collapsed = view.CollapsedSet([]string{"z", "a", "m"})

	k := opts.ViewKeyOpts()
	if !slices.Equal(k.Collapsed, []string{"a", "m", "z"}) {
		t.Errorf("Collapsed = %v, want sorted", k.Collapsed)
	}
	if k.FocalID != "d1" || k.Depth != 2 || !k.ShowJobs || !k.ShowDatasets {
		t.Errorf("ViewKeyOpts() = %+v", k)
	}
	if got := (&Options{}).ViewKeyOpts().Collapsed; len(got) != 0 {
		t.Errorf("empty collapsed set = %v", got)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	path := writeGraph(t, chainGraph(t))

	opts := Options{Path: path, View: view.DefaultOptions("d1"), Formats: []string{"json", "dot"}}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Stats.NodeCount != 5 || res.Stats.EdgeCount != 4 {
		t.Errorf("graph stats = %d nodes, %d edges; want 5, 4", res.Stats.NodeCount, res.Stats.EdgeCount)
	}
	if res.Stats.ViewNodeCount != 5 || res.Stats.ViewEdgeCount != 4 {
		t.Errorf("view stats = %d nodes, %d edges; want 5, 4", res.Stats.ViewNodeCount, res.Stats.ViewEdgeCount)
	}
	if res.CacheInfo.ViewHit || res.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", res.CacheInfo)
	}
	if len(res.Artifacts["json"]) == 0 || len(res.Artifacts["dot"]) == 0 {
		t.Fatalf("Artifacts = %v", keys(res.Artifacts))
	}
	if res.GraphHash == "" || res.ViewHash == "" {
		t.Error("hashes should be set")
	}

	decoded, err := pkgio.ReadView(bytes.NewReader(res.Artifacts["json"]))
	if err != nil {
		t.Fatalf("ReadView() error = %v", err)
	}
	if !slices.Equal(decoded.EdgeIDs(), res.View.EdgeIDs()) {
		t.Errorf("json artifact edges = %v, want %v", decoded.EdgeIDs(), res.View.EdgeIDs())
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.ViewHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", again.CacheInfo)
	}
	if !slices.Equal(again.View.NodeIDs(), res.View.NodeIDs()) {
		t.Errorf("cached view nodes = %v, want %v", again.View.NodeIDs(), res.View.NodeIDs())
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheInfo.ViewHit || fresh.CacheInfo.RenderHit {
		t.Errorf("refresh CacheInfo = %+v, want misses", fresh.CacheInfo)
	}
}

func TestExecuteOptionsChangeKey(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	path := writeGraph(t, chainGraph(t))

	opts := Options{Path: path, View: view.DefaultOptions("d1")}
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}

	opts.View.ShowDatasets = false
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.ViewHit {
		t.Error("changing view options should miss the cache")
	}
	if got, want := res.View.EdgeIDs(), []string{"j1:j2", "j2:j3"}; !slices.Equal(got, want) {
		t.Errorf("jobs-only edges = %v, want %v", got, want)
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	if _, err := r.Execute(ctx, Options{View: view.DefaultOptions("d1")}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing path error = %v, want INVALID_PATH", err)
	}

	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := r.Execute(ctx, Options{Path: missing, View: view.DefaultOptions("d1")}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestBuildDepth(t *testing.T) {
	g := chainGraph(t)

	tests := []struct {
		depth int
		want  []string
	}{
		{0, []string{"j1", "d1", "j2", "d2", "j3"}},
		{1, []string{"j1", "d1", "j2"}},
		{2, []string{"j1", "d1", "j2", "d2"}},
	}
	for _, tt := range tests {
		v := Build(context.Background(), g, view.DefaultOptions("d1"), tt.depth)
		if got := v.NodeIDs(); !slices.Equal(got, tt.want) {
			t.Errorf("Build(depth=%d) nodes = %v, want %v", tt.depth, got, tt.want)
		}
	}
}

func TestBuildViewFullWithoutFocus(t *testing.T) {
	ctx := context.Background()
	g := chainGraph(t)
	hash, err := GraphHash(g)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"j1", "d1", "j2", "d2", "j3"}

	for _, focal := range []string{"", "ghost"} {
		for _, depth := range []int{0, 2} {
			opts := view.DefaultOptions(focal)
			opts.Full = true
			popts := Options{View: opts, Depth: depth}
			if err := popts.ValidateAndSetDefaults(); err != nil {
				t.Fatalf("focal %q: ValidateAndSetDefaults() error = %v", focal, err)
			}

			v, err := newTestRunner(t).BuildView(ctx, g, hash, popts)
			if err != nil {
				t.Fatalf("focal %q depth %d: BuildView() error = %v", focal, depth, err)
			}
			if got := v.NodeIDs(); !slices.Equal(got, want) {
				t.Errorf("focal %q depth %d: nodes = %v, want %v", focal, depth, got, want)
			}
			for _, n := range v.Nodes {
				if n.OnPath {
					t.Errorf("focal %q: node %s on path", focal, n.ID)
				}
			}
		}
	}
}

func TestGraphHash(t *testing.T) {
	g := chainGraph(t)
	h1, err := GraphHash(g)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := GraphHash(chainGraph(t))
	if h1 != h2 {
		t.Error("GraphHash should be deterministic")
	}

	b := lineage.NewBuilder()
	_ = b.Job("j1", lineage.Job{Name: "j1"})
	h3, _ := GraphHash(b.Graph())
	if h1 == h3 {
		t.Error("different graphs should hash differently")
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	r := newTestRunner(t)
	v := view.Build(chainGraph(t), view.DefaultOptions("d1"))
	if _, err := r.Render(context.Background(), v, Options{Formats: []string{"gif"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) error = %v, want INVALID_FORMAT", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, _ string, _ int, _ time.Duration, _ error) {
	h.add("load")
}

func (h *recordingHooks) OnBuildComplete(context.Context, string, int, int, time.Duration) {
	h.add("build")
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, format string, _ int, _ time.Duration, _ error) {
	h.add("render:" + format)
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) { h.add("hit:" + keyType) }

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.add("miss:" + keyType) }

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	defer observability.Reset()

	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{Path: writeGraph(t, chainGraph(t)), View: view.DefaultOptions("d1"), Formats: []string{"dot"}}
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"load", "miss:view", "build", "miss:artifact", "render:dot",
		"load", "hit:view", "hit:artifact",
	}
	if !slices.Equal(h.events, want) {
		t.Errorf("events = %v\nwant %v", h.events, want)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
