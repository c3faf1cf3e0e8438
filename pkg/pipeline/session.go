package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/layout"
	"github.com/matzehuels/pedigree/pkg/ops"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Session owns one pedigree and serializes every change to it. Each
// change runs the full pipeline on a copy and swaps it in only on
// success, so readers never observe a half-applied mutation.
type Session struct {
	runner *Runner
	opts   Options

	mu     sync.RWMutex
	p      *pedigree.Pedigree
	layout *layout.Layout
	last   *Result
}

// NewSession starts a session over an empty pedigree.
func NewSession(runner *Runner, opts Options) *Session {
	if runner == nil {
		runner = NewRunner(nil, nil, nil)
	}
	return &Session{
		runner: runner,
		opts:   opts,
		p:      pedigree.New(),
		layout: &layout.Layout{Positions: map[string]layout.Position{}},
	}
}

// Runner returns the session's runner.
func (s *Session) Runner() *Runner { return s.runner }

// Load replaces the pedigree with p after recomputing layout and risks.
// Broken references do not fail the load: the engines treat them as
// absent and each [pedigree.Issue] is logged as a warning. On error the
// current pedigree is kept.
func (s *Session) Load(ctx context.Context, p *pedigree.Pedigree) (*Result, error) {
	s.warnIssues(p)
	res, err := s.runner.Execute(ctx, p, nil, s.opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(res)
	return res, nil
}

// Read decodes a JSON document from r and loads it.
func (s *Session) Read(ctx context.Context, r io.Reader) (*Result, error) {
	p, err := document.Read(r)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, p)
}

// Apply runs operations against the current pedigree. On error the
// session is unchanged.
func (s *Session) Apply(ctx context.Context, operations ...ops.Operation) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.runner.Execute(ctx, s.p, operations, s.opts)
	if err != nil {
		return nil, err
	}
	s.swap(res)
	return res, nil
}

func (s *Session) warnIssues(p *pedigree.Pedigree) {
	opts := s.opts
	s.runner.applyLogger(&opts)
	opts.SetDefaults()
	for _, issue := range p.Validate() {
		opts.Logger.Warn("broken reference treated as absent", "id", issue.ID, "issue", issue.Message)
	}
}

func (s *Session) swap(res *Result) {
	s.p = res.Pedigree
	s.layout = res.Layout
	s.last = res
}

// Snapshot returns a deep copy of the current pedigree.
func (s *Session) Snapshot() *pedigree.Pedigree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Clone()
}

// Layout returns the layout of the current pedigree. Callers must not
// modify it.
func (s *Session) Layout() *layout.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// Risks returns a copy of every individual's risk map.
func (s *Session) Risks() map[string]pedigree.RiskMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]pedigree.RiskMap, s.p.Len())
	for _, ind := range s.p.Individuals() {
		m := make(pedigree.RiskMap, len(ind.Risks))
		for k, v := range ind.Risks {
			m[k] = v
		}
		out[ind.ID] = m
	}
	return out
}

// Last returns the result of the most recent successful Load or Apply,
// or nil.
func (s *Session) Last() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Render renders the current pedigree.
func (s *Session) Render(ctx context.Context, ropts RenderOptions) ([]byte, error) {
	s.mu.RLock()
	p, l := s.p, s.layout
	s.mu.RUnlock()
	return s.runner.Render(ctx, p, l, ropts)
}

// Write encodes the current pedigree as a JSON document.
func (s *Session) Write(w io.Writer) error {
	return document.Write(s.Snapshot(), w)
}
