// Package pipeline runs the mutate → layout → risk pipeline.
//
// Every entry point (CLI, HTTP server) goes through a [Runner], so that a
// mutation always re-derives the whole layout and every risk map from
// scratch, and so that derived results are cached identically everywhere.
//
// # Stages
//
//  1. Mutate: apply [ops.Operation] values to a clone of the pedigree and
//     renumber positions after structural changes
//  2. Layout: [layout.Compute], cached by document hash + layout config
//  3. Risks: [risk.ComputeAll], cached by document hash + pattern settings
//
// Rendering ([Runner.Render]) is an optional fourth stage over the layout.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, p, operations, pipeline.Options{})
//	if err != nil {
//	    return err // p is unchanged
//	}
//	p = res.Pedigree
//
// [Session] wraps a Runner around one owned pedigree for long-lived
// callers such as the HTTP server.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/layout"
	"github.com/matzehuels/pedigree/pkg/ops"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/render/dot"
)

// Options configures a pipeline run.
type Options struct {
	Layout layout.Config `json:"layout"`

	// Refresh skips cache lookups; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	return o.Layout.Validate()
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Spacing:         o.Layout.Spacing,
		CenterX:         o.Layout.CenterX,
		Rows:            o.Layout.Rows,
		OnlyChildOffset: o.Layout.OnlyChildOffset,
		SibshipDrop:     o.Layout.SibshipDrop,
		SymbolRadius:    o.Layout.SymbolRadius,
	}
}

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Format string
	dot.Options
}

// ArtifactKeyOpts returns cache key options for one rendered artifact.
func (o RenderOptions) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: o.Format, Labels: o.Labels, Risks: o.Risks}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Pedigree is the mutated pedigree with coordinates and risks applied.
	Pedigree *pedigree.Pedigree

	// DocHash is the content hash of the mutated document.
	DocHash string

	Layout *layout.Layout
	Risks  map[string]pedigree.RiskMap

	// Mutation lists the IDs created and removed by the operations.
	Mutation ops.Result

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Operations  int
	Individuals int
	MutateTime  time.Duration
	LayoutTime  time.Duration
	RiskTime    time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RiskHit   bool
}
