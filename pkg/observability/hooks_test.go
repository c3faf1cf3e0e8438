package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnMutateStart(ctx, "add_parents")
	p.OnMutateComplete(ctx, "add_parents", time.Millisecond, nil)
	p.OnLayoutStart(ctx, 12)
	p.OnLayoutComplete(ctx, time.Millisecond, nil)
	p.OnRiskStart(ctx, "autosomal_dominant", 12)
	p.OnRiskComplete(ctx, "autosomal_dominant", time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "risk")
	c.OnCacheSet(ctx, "artifact", 1024)

	s := NoopStoreHooks{}
	s.OnLoad(ctx, "file", time.Millisecond, nil)
	s.OnSave(ctx, "sqlite", 2048, time.Millisecond, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	rec := &recorder{}
	SetPipelineHooks(rec)
	SetCacheHooks(rec)
	SetStoreHooks(rec)
	if Pipeline() != rec || Cache() != rec || Store() != rec {
		t.Error("Set*Hooks should register the custom hooks")
	}

	Pipeline().OnLayoutStart(context.Background(), 3)
	if rec.layouts != 1 {
		t.Errorf("layout events = %d, want 1", rec.layouts)
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	rec := &recorder{}
	SetPipelineHooks(rec)
	SetPipelineHooks(nil)
	if Pipeline() != rec {
		t.Error("SetPipelineHooks(nil) should keep the registered hooks")
	}
}

type recorder struct {
	NoopPipelineHooks
	NoopCacheHooks
	NoopStoreHooks
	layouts int
}

func (r *recorder) OnLayoutStart(context.Context, int) { r.layouts++ }
