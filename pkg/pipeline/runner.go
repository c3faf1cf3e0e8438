package pipeline

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/layout"
	"github.com/matzehuels/pedigree/pkg/observability"
	"github.com/matzehuels/pedigree/pkg/ops"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/render/dot"
	"github.com/matzehuels/pedigree/pkg/risk"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner on different pedigrees.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer means [cache.DefaultKeyer], a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute applies operations to a copy of p, then recomputes the layout
// and every risk map. p itself is never modified: on error the caller
// keeps the original, on success it takes [Result.Pedigree].
func (r *Runner) Execute(ctx context.Context, p *pedigree.Pedigree, operations []ops.Operation, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}

	mutateStart := time.Now()
	next, mres, err := r.Mutate(ctx, p, operations)
	if err != nil {
		return nil, err
	}
	result.Mutation = mres
	result.Stats.Operations = len(operations)
	result.Stats.MutateTime = time.Since(mutateStart)
	result.Stats.Individuals = next.Len()

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, next, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"individuals", next.Len(),
		"sibships", len(l.Sibships),
		"duration", result.Stats.LayoutTime)

	riskStart := time.Now()
	risks, riskHit, err := r.RisksWithCacheInfo(ctx, next, opts)
	if err != nil {
		return nil, err
	}
	result.Risks = risks
	result.Stats.RiskTime = time.Since(riskStart)
	result.CacheInfo.RiskHit = riskHit

	opts.Logger.Info("computed risks",
		"pattern", next.Pattern(),
		"individuals", len(risks),
		"duration", result.Stats.RiskTime)

	layout.Apply(next, l)
	risk.Apply(next, risks)
	result.Pedigree = next

	if data, err := document.Marshal(next); err == nil {
		result.DocHash = cache.Hash(data)
	}
	return result, nil
}

// Mutate applies operations in order to a clone of p and renumbers
// positions if any operation changed the structure. The first rejection
// aborts the batch and p is left untouched.
func (r *Runner) Mutate(ctx context.Context, p *pedigree.Pedigree, operations []ops.Operation) (*pedigree.Pedigree, ops.Result, error) {
	next := p.Clone()
	var total ops.Result
	structural := false

	for i, op := range operations {
		hooks := observability.Pipeline()
		hooks.OnMutateStart(ctx, string(op.Kind))
		start := time.Now()
		res, err := ops.Apply(next, op)
		hooks.OnMutateComplete(ctx, string(op.Kind), time.Since(start), err)
		if err != nil {
			r.Logger.Debug("operation rejected", "op", op.Kind, "index", i, "err", err)
			code := cmp.Or(errors.GetCode(err), errors.ErrCodeInternal)
			return nil, ops.Result{}, errors.Wrap(code, err, "operation %d (%s)", i, op.Kind)
		}

		total.Created = append(total.Created, res.Created...)
		total.Removed = append(total.Removed, res.Removed...)
		structural = structural || op.Kind.Structural()
		r.Logger.Debug("applied operation", "op", op.Kind, "created", res.Created, "removed", res.Removed)
	}

	if structural {
		next.Renumber()
	}
	return next, total, nil
}

// LayoutWithCacheInfo computes the layout of p with caching and reports
// whether it came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, p *pedigree.Pedigree, opts Options) (*layout.Layout, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	docHash, err := layoutHash(p)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(docHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached layout.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				opts.Logger.Debug("layout cache hit", "key", key)
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, p.Len())
	start := time.Now()
	l := layout.Compute(p, opts.Layout)
	hooks.OnLayoutComplete(ctx, time.Since(start), nil)

	r.store(ctx, "layout", key, l, cache.TTLLayout)
	return l, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, p *pedigree.Pedigree, opts Options) (*layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, p, opts)
	return l, err
}

// RisksWithCacheInfo infers every risk map of p with caching and reports
// whether the table came from the cache.
func (r *Runner) RisksWithCacheInfo(ctx context.Context, p *pedigree.Pedigree, opts Options) (map[string]pedigree.RiskMap, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	docHash, err := riskHash(p)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.RiskKey(docHash, cache.RiskKeyOpts{
		Pattern:          string(p.Pattern()),
		CarrierFrequency: p.CarrierFrequency(),
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached map[string]document.Risks
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "risk")
				opts.Logger.Debug("risk cache hit", "key", key)
				out := make(map[string]pedigree.RiskMap, len(cached))
				for id, rs := range cached {
					out[id] = rs.RiskMap()
				}
				return out, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "risk")
	}

	hooks := observability.Pipeline()
	hooks.OnRiskStart(ctx, string(p.Pattern()), p.Len())
	start := time.Now()
	risks := risk.ComputeAll(p)
	hooks.OnRiskComplete(ctx, string(p.Pattern()), time.Since(start), nil)

	encoded := make(map[string]document.Risks, len(risks))
	for id, m := range risks {
		encoded[id] = document.RisksFrom(m)
	}
	r.store(ctx, "risk", key, encoded, cache.TTLRisk)
	return risks, false, nil
}

// Risks is RisksWithCacheInfo without the cache hit info.
func (r *Runner) Risks(ctx context.Context, p *pedigree.Pedigree, opts Options) (map[string]pedigree.RiskMap, error) {
	risks, _, err := r.RisksWithCacheInfo(ctx, p, opts)
	return risks, err
}

// RenderWithCacheInfo renders p with layout l and reports whether the
// artifact came from the cache. Labels and risks are read from p, so the
// key covers both the document and the layout.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, p *pedigree.Pedigree, l *layout.Layout, ropts RenderOptions) ([]byte, bool, error) {
	if ropts.Format == "" {
		ropts.Format = dot.FormatSVG
	}
	docData, err := document.Marshal(p)
	if err != nil {
		return nil, false, err
	}
	layoutData, err := json.Marshal(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	key := r.Keyer.ArtifactKey(cache.Hash(bytes.Join([][]byte{docData, layoutData}, nil)), ropts.ArtifactKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	out, err := dot.Render(ctx, p, l, ropts.Format, ropts.Options)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "render %s", ropts.Format)
	}
	if err := r.Cache.Set(ctx, key, out, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(out))
	}
	return out, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, p *pedigree.Pedigree, l *layout.Layout, ropts RenderOptions) ([]byte, error) {
	out, _, err := r.RenderWithCacheInfo(ctx, p, l, ropts)
	return out, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// store caches v as JSON. Cache failures only cost a recomputation later.
func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// layoutHash hashes everything layout reads: the document without risks.
// Stored coordinates stay in because pinned individuals keep theirs.
func layoutHash(p *pedigree.Pedigree) (string, error) {
	doc := document.FromPedigree(p)
	for i := range doc.Individuals {
		doc.Individuals[i].CalculatedRisks = nil
	}
	return hashDocument(doc)
}

// riskHash hashes the document without derived fields.
func riskHash(p *pedigree.Pedigree) (string, error) {
	doc := document.FromPedigree(p)
	for i := range doc.Individuals {
		doc.Individuals[i].CalculatedRisks = nil
		doc.Individuals[i].X, doc.Individuals[i].Y = nil, nil
	}
	return hashDocument(doc)
}

func hashDocument(doc document.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash document")
	}
	return cache.Hash(data), nil
}
