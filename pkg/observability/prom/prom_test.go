package prom

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/pedigree/pkg/observability"
)

func TestMetricsRecordEvents(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnMutateComplete(ctx, "add_spouse", time.Millisecond, nil)
	m.OnMutateComplete(ctx, "add_spouse", time.Millisecond, errors.New("SPOUSE_EXISTS"))
	m.OnLayoutStart(ctx, 7)
	m.OnCacheHit(ctx, "layout")
	m.OnCacheSet(ctx, "risk", 512)
	m.OnSave(ctx, "sqlite", 2048, time.Millisecond, nil)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"ok mutations", testutil.ToFloat64(m.operations.WithLabelValues("add_spouse", "ok")), 1},
		{"failed mutations", testutil.ToFloat64(m.operations.WithLabelValues("add_spouse", "error")), 1},
		{"individuals", testutil.ToFloat64(m.individuals), 7},
		{"layout hits", testutil.ToFloat64(m.cacheEvents.WithLabelValues("layout", "hit")), 1},
		{"risk bytes", testutil.ToFloat64(m.cacheBytes.WithLabelValues("risk")), 512},
		{"saves", testutil.ToFloat64(m.storeOps.WithLabelValues("sqlite", "save", "ok")), 1},
		{"document bytes", testutil.ToFloat64(m.documentBytes), 2048},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(nil)
	m.OnCacheMiss(context.Background(), "artifact")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `pedigree_cache_events_total{event="miss",type="artifact"} 1`) {
		t.Errorf("metrics output missing cache miss counter:\n%s", rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	m := New(nil)
	m.Register()
	if observability.Pipeline() != m || observability.Store() != m {
		t.Error("Register should install the metrics as global hooks")
	}
}
