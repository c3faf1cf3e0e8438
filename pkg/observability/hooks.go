// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through package-level hook registries; main
// registers a backend at startup. The defaults are no-ops, so library
// packages never depend on a metrics framework. [prom] provides the
// Prometheus backend used by `pedigree serve`.
//
//	func main() {
//	    m := prom.New(prometheus.NewRegistry())
//	    observability.SetPipelineHooks(m)
//	    observability.SetCacheHooks(m)
//	    observability.SetStoreHooks(m)
//	}
//
// Libraries call:
//
//	observability.Pipeline().OnLayoutStart(ctx, p.Len())
//	// ... compute layout ...
//	observability.Pipeline().OnLayoutComplete(ctx, time.Since(start), err)
//
// [prom]: github.com/matzehuels/pedigree/pkg/observability/prom
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the mutate → layout → risk pipeline.
type PipelineHooks interface {
	OnMutateStart(ctx context.Context, op string)
	OnMutateComplete(ctx context.Context, op string, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, individuals int)
	OnLayoutComplete(ctx context.Context, duration time.Duration, err error)

	OnRiskStart(ctx context.Context, pattern string, individuals int)
	OnRiskComplete(ctx context.Context, pattern string, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups. keyType is "layout",
// "risk" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// StoreHooks receives events from document stores.
type StoreHooks interface {
	OnLoad(ctx context.Context, backend string, duration time.Duration, err error)
	OnSave(ctx context.Context, backend string, size int, duration time.Duration, err error)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnMutateStart(context.Context, string)                          {}
func (NoopPipelineHooks) OnMutateComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                             {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, time.Duration, error)         {}
func (NoopPipelineHooks) OnRiskStart(context.Context, string, int)                       {}
func (NoopPipelineHooks) OnRiskComplete(context.Context, string, time.Duration, error)   {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStoreHooks ignores every event.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, time.Duration, error)      {}
func (NoopStoreHooks) OnSave(context.Context, string, int, time.Duration, error) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStoreHooks registers store hooks. Nil is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores the no-op defaults. Tests use it.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	storeHooks = NoopStoreHooks{}
}
