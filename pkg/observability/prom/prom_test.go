package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/prereqgraph/pkg/observability"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnBuildComplete(ctx, 300, 6, 10*time.Millisecond, nil)
	m.OnBuildComplete(ctx, 301, 0, time.Millisecond, errors.New("boom"))
	m.OnEvaluateComplete(ctx, 300, true, time.Microsecond, nil)
	m.OnLayoutComplete(ctx, "LR", time.Millisecond, nil)
	m.OnCacheHit(ctx, "graph")
	m.OnCacheMiss(ctx, "graph")
	m.OnCacheMiss(ctx, "graph")
	m.OnCacheSet(ctx, "graph", 512)
	m.OnRequest(ctx, "GET", "/health")
	m.OnResponse(ctx, "GET", "/health", 200, time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"builds ok", testutil.ToFloat64(m.builds.WithLabelValues("ok")), 1},
		{"builds error", testutil.ToFloat64(m.builds.WithLabelValues("error")), 1},
		{"evaluations", testutil.ToFloat64(m.evaluations.WithLabelValues("ok", "true")), 1},
		{"layouts", testutil.ToFloat64(m.layouts.WithLabelValues("LR", "ok")), 1},
		{"cache hits", testutil.ToFloat64(m.cacheLookups.WithLabelValues("graph", "hit")), 1},
		{"cache misses", testutil.ToFloat64(m.cacheLookups.WithLabelValues("graph", "miss")), 2},
		{"cache bytes", testutil.ToFloat64(m.cacheBytes.WithLabelValues("graph")), 512},
		{"in flight", testutil.ToFloat64(m.inFlight), 0},
		{"requests", testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	m := New(prometheus.NewRegistry())
	m.Install()

	if observability.Pipeline() != m || observability.Cache() != m || observability.HTTP() != m {
		t.Error("Install should register the metrics as every hook")
	}
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("second New on the same registry should panic")
		}
	}()
	New(reg)
}
