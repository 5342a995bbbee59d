package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/prereqgraph/pkg/cache"
	"github.com/matzehuels/prereqgraph/pkg/catalog"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/observability"
)

const cs300Record = `{"type": "COURSE", "courseId": 300, "children": [
  {"type": "AND", "children": [
    {"type": "OR", "children": [
      {"type": "COURSE", "courseId": 211},
      {"type": "COURSE", "courseId": 221}
    ]},
    {"type": "COURSE", "courseId": 301}
  ]}
]}`

// =============================================================================
// Test doubles
// =============================================================================

type fakeSource struct {
	mu       sync.Mutex
	records  map[int]string
	calls    int
	failures int // transient failures before the first success
	gate     chan struct{}
}

func (s *fakeSource) Prerequisites(_ context.Context, courseID int) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if s.gate != nil {
		<-s.gate
	}
	if fail {
		return nil, cache.Retryable(perrors.New(perrors.ErrCodeNetwork, "connection reset"))
	}
	rec, ok := s.records[courseID]
	if !ok {
		return nil, perrors.MissingData(courseID)
	}
	return []byte(rec), nil
}

func (s *fakeSource) Close() error { return nil }

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.m[key]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(key string) bool {
	_, ok, _ := c.Get(context.Background(), key)
	return ok
}

func credits(v float64) *float64 { return &v }

func testCatalog() *catalog.Map {
	return catalog.NewMap(
		catalog.Course{ID: 300, Code: "CS 300", Title: "Algorithms", Credits: credits(4)},
		catalog.Course{ID: 211, Code: "MATH 211", Title: "Calculus I", Credits: credits(4)},
		catalog.Course{ID: 221, Code: "MATH 221", Title: "Linear Algebra", Credits: credits(4)},
		catalog.Course{ID: 301, Code: "ECON 301", Title: "Econometrics", Credits: credits(4)},
	)
}

func newTestRunner(t *testing.T) (*Runner, *fakeSource, *memCache) {
	t.Helper()
	src := &fakeSource{records: map[int]string{300: cs300Record, 12: "null"}}
	c := newMemCache()
	r := NewRunner(src, testCatalog(), c, nil, log.New(io.Discard))
	return r, src, c
}

// =============================================================================
// Options
// =============================================================================

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", true},
		{"SVG", true}, // normalized by SetRenderDefaults, not here
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	opts := Options{Format: " SVG "}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatalf("ValidateForRender() error: %v", err)
	}
	if opts.Format != FormatSVG {
		t.Errorf("Format = %q, want svg", opts.Format)
	}

	opts = Options{}
	if err := opts.ValidateForRender(); err != nil || opts.Format != DefaultFormat {
		t.Errorf("empty format should default to %s, got %q (%v)", DefaultFormat, opts.Format, err)
	}

	opts = Options{Direction: "diagonal"}
	if err := opts.ValidateForRender(); perrors.GetCode(err) != perrors.ErrCodeInvalidInput {
		t.Errorf("bad direction error = %v, want INVALID_INPUT", err)
	}
}

func TestOptionsLayoutOptions(t *testing.T) {
	lo, err := Options{Direction: "tb", RankSeparation: 120}.LayoutOptions()
	if err != nil {
		t.Fatalf("LayoutOptions() error: %v", err)
	}
	if lo.Direction != "TB" || lo.RankSeparation != 120 || lo.NodeSeparation == 0 || lo.Passes == 0 {
		t.Errorf("LayoutOptions() = %+v", lo)
	}

	if err := (Options{NodeSeparation: -1}).ValidateForLayout(); perrors.GetCode(err) != perrors.ErrCodeInvalidInput {
		t.Errorf("negative separation error = %v, want INVALID_INPUT", err)
	}
}

// =============================================================================
// Runner
// =============================================================================

func TestRunnerGraph(t *testing.T) {
	r, src, c := newTestRunner(t)
	ctx := context.Background()

	g, hit, err := r.GraphWithCacheInfo(ctx, 300, Options{})
	if err != nil {
		t.Fatalf("Graph() error: %v", err)
	}
	if hit {
		t.Error("first call should miss the cache")
	}
	if g.NodeCount() != 6 || g.Root() != "course:300" {
		t.Errorf("graph has %d nodes, root %q", g.NodeCount(), g.Root())
	}
	math, _ := g.Node("course:211")
	if math.Label != "MATH 211" || math.Course == nil || *math.Course.Credits != 4 {
		t.Errorf("course:211 not decorated: %+v", math)
	}
	if !c.has(r.Keyer.GraphKey(300)) || !c.has(r.Keyer.CourseKey(211)) {
		t.Error("graph and course metadata should be cached")
	}

	g2, hit, err := r.GraphWithCacheInfo(ctx, 300, Options{})
	if err != nil || !hit {
		t.Fatalf("second call hit=%v err=%v, want cache hit", hit, err)
	}
	if g2.NodeCount() != g.NodeCount() || g2.EdgeCount() != g.EdgeCount() {
		t.Error("cached graph differs from built graph")
	}
	if src.callCount() != 1 {
		t.Errorf("source called %d times, want 1", src.callCount())
	}

	if _, hit, _ := r.GraphWithCacheInfo(ctx, 300, Options{Refresh: true}); hit || src.callCount() != 2 {
		t.Errorf("refresh should bypass the cache (hit=%v, calls=%d)", hit, src.callCount())
	}
}

func TestRunnerGraph_EmptyRecord(t *testing.T) {
	r, _, _ := newTestRunner(t)
	r.Catalog = nil

	g, err := r.Graph(context.Background(), 12, Options{})
	if err != nil {
		t.Fatalf("Graph() error: %v", err)
	}
	if g.NodeCount() != 1 || g.Root() != "course:12" {
		t.Errorf("empty record should give a root-only graph, got %d nodes root %q", g.NodeCount(), g.Root())
	}
}

func TestRunnerGraph_Errors(t *testing.T) {
	r, _, c := newTestRunner(t)
	ctx := context.Background()

	_, err := r.Graph(ctx, 999, Options{})
	if perrors.GetCode(err) != perrors.ErrCodeMissingData {
		t.Errorf("missing record error = %v, want MISSING_DATA", err)
	}
	if c.has(r.Keyer.GraphKey(999)) {
		t.Error("failures must not be cached")
	}

	if _, err := r.Graph(ctx, 0, Options{}); perrors.GetCode(err) != perrors.ErrCodeInvalidInput {
		t.Errorf("course 0 error = %v, want INVALID_INPUT", err)
	}

	r.Source.(*fakeSource).records[5] = `{"nodes": [{"id": "a", "kind": "COURSE", "data": {"course_id": 5}}], "edges": [{"source": "a", "target": "a"}]}`
	if _, err := r.Graph(ctx, 5, Options{}); perrors.GetCode(err) != perrors.ErrCodeInvalidGraph {
		t.Errorf("self loop error = %v, want INVALID_GRAPH", err)
	}
}

func TestRunnerGraph_RetriesTransientFailures(t *testing.T) {
	defer func(d time.Duration) { cache.BackoffBase = d }(cache.BackoffBase)
	cache.BackoffBase = time.Millisecond

	r, src, _ := newTestRunner(t)
	src.failures = 2

	if _, err := r.Graph(context.Background(), 300, Options{}); err != nil {
		t.Fatalf("Graph() error: %v", err)
	}
	if src.callCount() != 3 {
		t.Errorf("source called %d times, want 3", src.callCount())
	}
}

func TestRunnerGraph_CoalescesConcurrentBuilds(t *testing.T) {
	r, src, _ := newTestRunner(t)
	src.gate = make(chan struct{})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Graph(context.Background(), 300, Options{})
			errs <- err
		}()
	}

	// let every caller reach the shared build before it finishes
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Graph() error: %v", err)
		}
	}
	if src.callCount() != 1 {
		t.Errorf("source called %d times, want 1", src.callCount())
	}
}

func TestRunnerEvaluate(t *testing.T) {
	r, src, c := newTestRunner(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		progress    eval.Progress
		wantCanTake bool
		wantMissing []int
	}{
		{"nothing completed", eval.Progress{}, false, []int{211, 221, 301}},
		{"one branch of the OR", eval.Progress{Completed: []int{211}}, false, []int{301}},
		{"all required", eval.Progress{Completed: []int{221, 301}}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := r.Evaluate(ctx, 300, tt.progress, Options{})
			if err != nil {
				t.Fatalf("Evaluate() error: %v", err)
			}
			if ev.CanTake != tt.wantCanTake {
				t.Errorf("CanTake = %v, want %v", ev.CanTake, tt.wantCanTake)
			}
			if len(ev.Missing) != len(tt.wantMissing) {
				t.Fatalf("Missing = %v, want %v", ev.Missing, tt.wantMissing)
			}
			for i := range tt.wantMissing {
				if ev.Missing[i] != tt.wantMissing[i] {
					t.Errorf("Missing = %v, want %v", ev.Missing, tt.wantMissing)
				}
			}
			if ev.Stats == nil || ev.Stats.MaxDepth != 3 {
				t.Errorf("Stats = %+v, want MaxDepth 3", ev.Stats)
			}
			if !c.has(r.Keyer.EvalKey(300, tt.progress.Hash())) {
				t.Error("evaluation should be cached")
			}
		})
	}

	// A repeated evaluation comes from the cache.
	ev, err := r.Evaluate(ctx, 300, eval.Progress{Completed: []int{211}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := ev.StatusMap()["course:211"]; got != eval.StatusCompleted {
		t.Errorf("cached status of course:211 = %q, want completed", got)
	}
	if src.callCount() != 1 {
		t.Errorf("source called %d times, want 1", src.callCount())
	}
}

func TestRunnerStats(t *testing.T) {
	r, _, c := newTestRunner(t)

	stats, err := r.Stats(context.Background(), 300, Options{})
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.MaxDepth != 3 || stats.TotalPrerequisites != 3 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.AverageCredits == nil || *stats.AverageCredits != 4 {
		t.Errorf("AverageCredits = %v, want 4", stats.AverageCredits)
	}
	if !c.has(r.Keyer.StatsKey(300)) {
		t.Error("stats should be cached")
	}
}

func TestRunnerLayout(t *testing.T) {
	r, _, _ := newTestRunner(t)
	ctx := context.Background()

	l, hit, err := r.LayoutWithCacheInfo(ctx, 300, Options{Direction: "TB"})
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if hit {
		t.Error("first layout should miss the cache")
	}
	if l.Direction != "TB" || len(l.Positions) != 6 {
		t.Errorf("layout direction %q with %d positions", l.Direction, len(l.Positions))
	}

	if _, hit, _ := r.LayoutWithCacheInfo(ctx, 300, Options{Direction: "TB"}); !hit {
		t.Error("same options should hit the cache")
	}
	if _, hit, _ := r.LayoutWithCacheInfo(ctx, 300, Options{Direction: "LR"}); hit {
		t.Error("different options should miss the cache")
	}

	if _, err := r.Layout(ctx, 300, Options{Direction: "up"}); perrors.GetCode(err) != perrors.ErrCodeInvalidInput {
		t.Errorf("bad direction error = %v, want INVALID_INPUT", err)
	}
}

func TestRunnerRender(t *testing.T) {
	r, _, _ := newTestRunner(t)
	progress := eval.Progress{Completed: []int{211}}

	data, err := r.Render(context.Background(), 300, &progress, Options{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	dot := string(data)
	if !strings.Contains(dot, `"course:211" [label="MATH 211"`) {
		t.Errorf("DOT missing decorated course:\n%s", dot)
	}
	if !strings.Contains(dot, `fillcolor="#b7e4c7"`) {
		t.Errorf("DOT should color completed courses:\n%s", dot)
	}

	plain, err := r.Render(context.Background(), 300, nil, Options{Format: FormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(plain), `fillcolor="#`) {
		t.Error("render without progress should not color nodes")
	}
}

// =============================================================================
// Observability
// =============================================================================

type countingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu     sync.Mutex
	builds int
	hits   map[string]int
}

func (h *countingHooks) OnBuildComplete(context.Context, int, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.builds++
}

func (h *countingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[keyType]++
}

func TestRunnerHooks(t *testing.T) {
	hooks := &countingHooks{hits: make(map[string]int)}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	r, _, _ := newTestRunner(t)
	ctx := context.Background()
	for range 3 {
		if _, err := r.Graph(ctx, 300, Options{}); err != nil {
			t.Fatal(err)
		}
	}

	if hooks.builds != 1 {
		t.Errorf("builds = %d, want 1", hooks.builds)
	}
	if hooks.hits[keyGraph] != 2 {
		t.Errorf("graph cache hits = %d, want 2", hooks.hits[keyGraph])
	}
}
