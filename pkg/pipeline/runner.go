package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/prereqgraph/pkg/build"
	"github.com/matzehuels/prereqgraph/pkg/cache"
	"github.com/matzehuels/prereqgraph/pkg/catalog"
	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/graph"
	"github.com/matzehuels/prereqgraph/pkg/layout"
	"github.com/matzehuels/prereqgraph/pkg/observability"
	"github.com/matzehuels/prereqgraph/pkg/source"
)

// Cache key types reported to observability hooks.
const (
	keyGraph  = "graph"
	keyEval   = "eval"
	keyLayout = "layout"
	keyStats  = "stats"
	keyCourse = "course"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// Concurrent Graph calls for the same course share one fetch and build.
// A Runner is safe for concurrent use.
type Runner struct {
	Source  source.Source
	Catalog catalog.Catalog
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	builds singleflight.Group
}

// NewRunner creates a runner.
// If cat is nil and src also implements catalog.Catalog, src is used as the
// catalog. If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(src source.Source, cat catalog.Catalog, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if cat == nil {
		if sc, ok := src.(catalog.Catalog); ok {
			cat = sc
		}
	}
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
		Source:  src,
		Catalog: cat,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// =============================================================================
// Graph
// =============================================================================

// GraphWithCacheInfo returns the decorated prerequisite graph of a course
// and whether it came from the cache.
//
// The returned graph may be shared with concurrent callers and must be
// treated as read-only; Clone it before mutating.
func (r *Runner) GraphWithCacheInfo(ctx context.Context, courseID int, opts Options) (*dag.DAG, bool, error) {
	if err := perrors.ValidateCourseID(courseID); err != nil {
		return nil, false, err
	}
	key := r.Keyer.GraphKey(courseID)

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, keyGraph, key); ok {
			if g, err := decodeGraph(data); err == nil {
				return g, true, nil
			}
			r.Logger.Warn("discarding corrupt cache entry", "key", key)
			_ = r.Cache.Delete(ctx, key)
		}
	}

	// The build is shared, so it must not die with the first caller's context.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.builds.Do(key, func() (any, error) {
		g, err := r.build(shared, courseID)
		if err != nil {
			return nil, err
		}
		if data, err := graph.MarshalGraph(g); err == nil {
			r.store(shared, keyGraph, key, data, cache.GraphTTL)
		}
		return g, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*dag.DAG), false, nil
}

// Graph is a convenience wrapper that calls GraphWithCacheInfo and discards the cache hit info.
func (r *Runner) Graph(ctx context.Context, courseID int, opts Options) (*dag.DAG, error) {
	g, _, err := r.GraphWithCacheInfo(ctx, courseID, opts)
	return g, err
}

func decodeGraph(data []byte) (*dag.DAG, error) {
	gj, err := graph.UnmarshalGraph(data)
	if err != nil {
		return nil, err
	}
	return graph.ToDAG(gj)
}

// build fetches the raw record, builds the graph and decorates it.
func (r *Runner) build(ctx context.Context, courseID int) (g *dag.DAG, err error) {
	start := time.Now()
	observability.Pipeline().OnBuildStart(ctx, courseID)
	defer func() {
		nodes := 0
		if g != nil {
			nodes = g.NodeCount()
		}
		observability.Pipeline().OnBuildComplete(ctx, courseID, nodes, time.Since(start), err)
	}()

	if r.Source == nil {
		return nil, perrors.New(perrors.ErrCodeInternal, "pipeline has no prerequisite source")
	}
	var data []byte
	err = cache.RetryWithBackoff(ctx, func() error {
		var ferr error
		data, ferr = r.Source.Prerequisites(ctx, courseID)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	cat := r.lookupCatalog()
	opts := []build.Option{build.WithRootCourse(r.rootCourse(ctx, courseID))}
	if cat != nil {
		opts = append(opts, build.WithCodeResolver(build.CatalogResolver(ctx, cat)))
	}
	g, err = build.Decode(data, opts...)
	if err != nil {
		r.Logger.Warn("invalid prerequisite record", "course", courseID, "error", err)
		return nil, err
	}
	if g, err = build.Decorate(ctx, g, cat); err != nil {
		if perrors.GetCode(err) == "" {
			err = perrors.Wrap(perrors.ErrCodeNetwork, err, "decorate course %d", courseID)
		}
		return nil, err
	}

	r.Logger.Debug("built prerequisite graph",
		"course", courseID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", time.Since(start))
	return g, nil
}

// rootCourse names the root from the catalog when it knows the course.
func (r *Runner) rootCourse(ctx context.Context, courseID int) build.RootCourse {
	rc := build.RootCourse{ID: courseID}
	if r.Catalog == nil {
		return rc
	}
	c, err := r.Course(ctx, courseID)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			r.Logger.Warn("catalog lookup failed", "course", courseID, "error", err)
		}
		return rc
	}
	rc.Label, rc.Title = c.Code, c.Title
	return rc
}

// =============================================================================
// Catalog
// =============================================================================

// Course returns catalog metadata for a course through the cache.
func (r *Runner) Course(ctx context.Context, courseID int) (*catalog.Course, error) {
	if r.Catalog == nil {
		return nil, catalog.ErrNotFound
	}
	key := r.Keyer.CourseKey(courseID)
	if c, ok, _ := cache.GetJSON[catalog.Course](ctx, r.Cache, key); ok {
		observability.Cache().OnCacheHit(ctx, keyCourse)
		return &c, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyCourse)

	c, err := r.Catalog.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	r.storeJSON(ctx, keyCourse, key, c, cache.CourseTTL)
	return c, nil
}

// lookupCatalog returns the catalog used for decoration, routing id lookups
// through the course cache.
func (r *Runner) lookupCatalog() catalog.Catalog {
	if r.Catalog == nil {
		return nil
	}
	return cachedCatalog{r}
}

type cachedCatalog struct{ r *Runner }

func (c cachedCatalog) Course(ctx context.Context, id int) (*catalog.Course, error) {
	return c.r.Course(ctx, id)
}

func (c cachedCatalog) CourseByCode(ctx context.Context, code string) (*catalog.Course, error) {
	return c.r.Catalog.CourseByCode(ctx, code)
}

// =============================================================================
// Evaluate & Stats
// =============================================================================

// Evaluate checks a learner's eligibility for a course. The result carries
// every node's status in topological order plus the graph statistics.
func (r *Runner) Evaluate(ctx context.Context, courseID int, p eval.Progress, opts Options) (ev graph.Evaluation, err error) {
	key := r.Keyer.EvalKey(courseID, p.Hash())
	if !opts.Refresh {
		if cached, ok, _ := cache.GetJSON[graph.Evaluation](ctx, r.Cache, key); ok {
			observability.Cache().OnCacheHit(ctx, keyEval)
			return cached, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyEval)
	}

	g, err := r.Graph(ctx, courseID, opts)
	if err != nil {
		return graph.Evaluation{}, err
	}
	stats, err := r.Stats(ctx, courseID, opts)
	if err != nil {
		return graph.Evaluation{}, err
	}

	start := time.Now()
	observability.Pipeline().OnEvaluateStart(ctx, courseID)
	res, err := eval.Evaluate(g, p)
	canTake := err == nil && res.CanTake
	observability.Pipeline().OnEvaluateComplete(ctx, courseID, canTake, time.Since(start), err)
	if err != nil {
		return graph.Evaluation{}, err
	}

	ev = graph.NewEvaluation(courseID, g, res, &stats)
	r.storeJSON(ctx, keyEval, key, ev, cache.EvalTTL)
	r.Logger.Debug("evaluated eligibility", "course", courseID, "can_take", ev.CanTake, "missing", len(ev.Missing))
	return ev, nil
}

// Stats returns learner-independent statistics for a course's graph.
func (r *Runner) Stats(ctx context.Context, courseID int, opts Options) (eval.Stats, error) {
	key := r.Keyer.StatsKey(courseID)
	if !opts.Refresh {
		if cached, ok, _ := cache.GetJSON[eval.Stats](ctx, r.Cache, key); ok {
			observability.Cache().OnCacheHit(ctx, keyStats)
			return cached, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyStats)
	}

	g, err := r.Graph(ctx, courseID, opts)
	if err != nil {
		return eval.Stats{}, err
	}
	stats, err := eval.ComputeStats(g)
	if err != nil {
		return eval.Stats{}, err
	}
	r.storeJSON(ctx, keyStats, key, stats, cache.StatsTTL)
	return stats, nil
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo computes the layout of a course's graph and reports
// whether it came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, courseID int, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	g, err := r.Graph(ctx, courseID, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}
	return r.LayoutGraphWithCacheInfo(ctx, g, opts)
}

// LayoutGraphWithCacheInfo lays out an in-memory graph. Layouts are keyed by
// graph content, so a rebuilt but unchanged graph reuses its layout.
func (r *Runner) LayoutGraphWithCacheInfo(ctx context.Context, g *dag.DAG, opts Options) (graph.Layout, bool, error) {
	lo, err := opts.LayoutOptions()
	if err != nil {
		return graph.Layout{}, false, err
	}
	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return graph.Layout{}, false, err
	}
	key := r.Keyer.LayoutKey(cache.Hash(graphData), lo.Hash())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, keyLayout, key); ok {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				return cached, true, nil
			}
		}
	}

	l, err := ComputeLayout(ctx, g, lo)
	if err != nil {
		return graph.Layout{}, false, err
	}
	if data, err := graph.MarshalLayout(l); err == nil {
		r.store(ctx, keyLayout, key, data, cache.LayoutTTL)
	}
	r.Logger.Debug("computed layout",
		"root", g.Root(),
		"direction", l.Direction,
		"crossings", l.Crossings)
	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, courseID int, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, courseID, opts)
	return l, err
}

// ComputeLayout runs the layout engine with observability hooks and
// converts the result to its wire form.
func ComputeLayout(ctx context.Context, g *dag.DAG, lo layout.Options) (l graph.Layout, err error) {
	start := time.Now()
	dir := string(lo.WithDefaults().Direction)
	observability.Pipeline().OnLayoutStart(ctx, dir, g.NodeCount())
	defer func() {
		observability.Pipeline().OnLayoutComplete(ctx, dir, time.Since(start), err)
	}()

	computed, err := layout.ComputeContext(ctx, g, lo)
	if err != nil {
		return graph.Layout{}, err
	}
	return graph.FromLayout(computed), nil
}

// =============================================================================
// Helpers
// =============================================================================

// lookup reads a cache entry. Backend failures are logged and reported as
// misses so the cache never breaks a request.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) storeJSON(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	r.store(ctx, keyType, key, data, ttl)
}

// Close releases the source and the cache.
func (r *Runner) Close() error {
	var errs []error
	if r.Source != nil {
		errs = append(errs, r.Source.Close())
	}
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	return errors.Join(errs...)
}
