package pipeline

import (
	"bytes"
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/layout"
	"github.com/matzehuels/pedigree/pkg/ops"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/render/dot"
)

func decode(t *testing.T, s string) []ops.Operation {
	t.Helper()
	list, err := ops.Decode(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return list
}

const trio = `[
	{"kind": "add_proband", "params": {"person": {"name": "Ann", "gender": "female"}}},
	{"kind": "add_parents", "target": "III-1", "params": {"first": {"gender": "male"}}},
	{"kind": "set_pattern", "params": {"pattern": "autosomal_recessive"}}
]`

func fileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	p := pedigree.New()

	res, err := r.Execute(context.Background(), p, decode(t, trio), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("input Len() = %d, want 0 (unchanged)", p.Len())
	}
	if got := res.Pedigree.Len(); got != 3 {
		t.Errorf("Pedigree.Len() = %d, want 3", got)
	}
	if res.Stats.Operations != 3 || res.Stats.Individuals != 3 {
		t.Errorf("Stats = %+v, want 3 operations, 3 individuals", res.Stats)
	}
	if got := strings.Join(res.Mutation.Created, ","); got != "III-1,II-1,II-2" {
		t.Errorf("Created = %s, want III-1,II-1,II-2", got)
	}
	if res.DocHash == "" {
		t.Error("DocHash is empty")
	}

	for _, ind := range res.Pedigree.Individuals() {
		if !ind.Placed {
			t.Errorf("%s not placed", ind.ID)
		}
		pos := res.Layout.Positions[ind.ID]
		if ind.X != pos.X || ind.Y != pos.Y {
			t.Errorf("%s at (%v,%v), layout says (%v,%v)", ind.ID, ind.X, ind.Y, pos.X, pos.Y)
		}
		if len(ind.Risks) == 0 {
			t.Errorf("%s has no risks", ind.ID)
		}
	}
}

func TestExecuteRejectionKeepsInput(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), pedigree.New(), decode(t, trio), Options{})
	if err != nil {
		t.Fatal(err)
	}
	p := res.Pedigree

	// The second operation fails: III-1 has no spouse.
	batch := decode(t, `[
		{"kind": "add_sibling", "target": "III-1", "params": {"person": {"name": "Sib"}}},
		{"kind": "add_child", "target": "III-1", "params": {"person": {}}}
	]`)
	_, err = r.Execute(context.Background(), p, batch, Options{})
	if !errors.Is(err, errors.ErrCodeSpouseRequired) {
		t.Fatalf("Execute error code = %q, want %q", errors.GetCode(err), errors.ErrCodeSpouseRequired)
	}
	if !strings.Contains(err.Error(), "operation 1 (add_child)") {
		t.Errorf("error = %q, want operation index and kind", err)
	}
	if p.Len() != 3 {
		t.Errorf("Len() after rejected batch = %d, want 3", p.Len())
	}
}

func TestMutateRenumbers(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	p, _, err := r.Mutate(context.Background(), pedigree.New(), decode(t, `[
		{"kind": "add_proband", "params": {"person": {"gender": "male"}}},
		{"kind": "add_parents", "target": "III-1", "params": {}},
		{"kind": "add_sibling", "target": "III-1", "params": {"person": {}}},
		{"kind": "add_spouse", "target": "III-2", "params": {"person": {}}}
	]`))
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int]string)
	for _, ind := range p.Generation(3) {
		if prev, ok := seen[ind.Position]; ok {
			t.Errorf("%s and %s share position %d", prev, ind.ID, ind.Position)
		}
		seen[ind.Position] = ind.ID
	}
	if len(seen) != 3 {
		t.Errorf("generation III has %d positions, want 3", len(seen))
	}
}

func TestLayoutCache(t *testing.T) {
	r := fileRunner(t)
	ctx := context.Background()
	p, _, err := r.Mutate(ctx, pedigree.New(), decode(t, trio))
	if err != nil {
		t.Fatal(err)
	}

	first, hit, err := r.LayoutWithCacheInfo(ctx, p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first LayoutWithCacheInfo hit the cache")
	}
	second, hit, err := r.LayoutWithCacheInfo(ctx, p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second LayoutWithCacheInfo missed the cache")
	}
	for id, pos := range first.Positions {
		if second.Positions[id].X != pos.X || second.Positions[id].Y != pos.Y {
			t.Errorf("cached %s = %+v, want %+v", id, second.Positions[id], pos)
		}
	}

	if _, hit, _ := r.LayoutWithCacheInfo(ctx, p, Options{Refresh: true}); hit {
		t.Error("Refresh should bypass the cache")
	}
	wide := Options{Layout: layout.Config{Spacing: 200}}
	if _, hit, _ := r.LayoutWithCacheInfo(ctx, p, wide); hit {
		t.Error("different spacing should miss the cache")
	}
}

func TestRiskCache(t *testing.T) {
	r := fileRunner(t)
	ctx := context.Background()
	p, _, err := r.Mutate(ctx, pedigree.New(), decode(t, trio))
	if err != nil {
		t.Fatal(err)
	}

	first, hit, err := r.RisksWithCacheInfo(ctx, p, Options{})
	if err != nil || hit {
		t.Fatalf("first RisksWithCacheInfo hit=%v err=%v, want miss", hit, err)
	}
	second, hit, err := r.RisksWithCacheInfo(ctx, p, Options{})
	if err != nil || !hit {
		t.Fatalf("second RisksWithCacheInfo hit=%v err=%v, want hit", hit, err)
	}
	for id, m := range first {
		for _, kind := range pedigree.RiskKinds {
			a, aok := m.Get(kind)
			b, bok := second[id].Get(kind)
			if a != b || aok != bok {
				t.Errorf("%s %s: cached %v/%v, want %v/%v", id, kind, b, bok, a, aok)
			}
		}
	}

	if err := p.SetPattern(pedigree.AutosomalDominant); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := r.RisksWithCacheInfo(ctx, p, Options{}); hit {
		t.Error("changing the pattern should miss the cache")
	}
}

func TestRender(t *testing.T) {
	r := fileRunner(t)
	ctx := context.Background()
	res, err := r.Execute(ctx, pedigree.New(), decode(t, trio), Options{})
	if err != nil {
		t.Fatal(err)
	}

	ropts := RenderOptions{Format: dot.FormatDOT, Options: dot.Options{Labels: true}}
	out, hit, err := r.RenderWithCacheInfo(ctx, res.Pedigree, res.Layout, ropts)
	if err != nil || hit {
		t.Fatalf("RenderWithCacheInfo hit=%v err=%v, want miss", hit, err)
	}
	if !bytes.Contains(out, []byte(`"III-1"`)) {
		t.Errorf("rendered DOT missing III-1:\n%s", out)
	}
	again, hit, err := r.RenderWithCacheInfo(ctx, res.Pedigree, res.Layout, ropts)
	if err != nil || !hit {
		t.Fatalf("second RenderWithCacheInfo hit=%v err=%v, want hit", hit, err)
	}
	if !bytes.Equal(out, again) {
		t.Error("cached artifact differs")
	}

	if _, err := r.Render(ctx, res.Pedigree, res.Layout, RenderOptions{Format: "gif"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render(gif) code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Layout: layout.Config{Rows: []float64{1, 2}}}
	opts.SetDefaults()
	if err := opts.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Validate() code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}
	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), pedigree.New(), nil, opts); err == nil {
		t.Error("Execute with invalid options should fail")
	}
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s := NewSession(nil, Options{})

	if _, err := s.Apply(ctx, decode(t, trio)...); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Len(); got != 3 {
		t.Errorf("Snapshot().Len() = %d, want 3", got)
	}
	if got := len(s.Layout().Positions); got != 3 {
		t.Errorf("len(Layout().Positions) = %d, want 3", got)
	}
	if got := len(s.Risks()); got != 3 {
		t.Errorf("len(Risks()) = %d, want 3", got)
	}

	before := s.Last()
	if _, err := s.Apply(ctx, decode(t, `{"kind": "delete", "target": "III-1"}`)...); !errors.Is(err, errors.ErrCodeProbandProtected) {
		t.Errorf("delete proband code = %q, want %q", errors.GetCode(err), errors.ErrCodeProbandProtected)
	}
	if s.Last() != before {
		t.Error("rejected Apply replaced the last result")
	}

	// Snapshots are independent of the session.
	snap := s.Snapshot()
	ind, _ := snap.Individual("III-1")
	ind.Name = "changed"
	if got, _ := s.Snapshot().Individual("III-1"); got.Name != "Ann" {
		t.Errorf("session name = %q after editing a snapshot, want Ann", got.Name)
	}
}

func TestSessionReadToleratesBrokenReferences(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	s := NewSession(NewRunner(nil, nil, log.New(&logs)), Options{})
	if _, err := s.Apply(ctx, decode(t, trio)...); err != nil {
		t.Fatal(err)
	}

	broken := `{"individuals": [
		{"id": "III-1", "gender": "female", "generation": 3, "position": 1,
		 "parentIds": ["II-9"], "childrenIds": [], "twinWith": "III-9", "twinType": "identical"}
	], "probandId": "III-1", "inheritancePattern": "autosomal_dominant", "carrierFrequency": 0.01}`
	if _, err := s.Read(ctx, strings.NewReader(broken)); err != nil {
		t.Fatalf("Read with dangling references: %v", err)
	}

	p := s.Snapshot()
	if got := p.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if got := p.ParentsOf("III-1"); len(got) != 0 {
		t.Errorf("ParentsOf(III-1) = %d individuals, want none", len(got))
	}
	pos, ok := s.Layout().Position("III-1")
	if !ok || math.IsNaN(pos.X) || math.IsNaN(pos.Y) {
		t.Errorf("Position(III-1) = %+v, %v; want a finite placement", pos, ok)
	}
	for _, want := range []string{"parent II-9 does not exist", "twin III-9 does not exist"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log = %q, want a warning containing %q", logs.String(), want)
		}
	}

	// Malformed documents still fail and keep the current pedigree.
	malformed := `{"individuals": [{"id": "III-1", "gender": "robot", "generation": 3, "position": 1}]}`
	if _, err := s.Read(ctx, strings.NewReader(malformed)); !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("Read code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidDocument)
	}
	if got := s.Snapshot().Len(); got != 1 {
		t.Errorf("Len() after rejected load = %d, want 1", got)
	}

	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(ctx, &buf); err != nil {
		t.Errorf("round trip Read: %v", err)
	}
	if got, _ := s.Snapshot().Individual("III-1"); got == nil || got.TwinWith != "III-9" {
		t.Errorf("round trip lost twinWith: %+v", got)
	}
}

func TestSessionConcurrentApply(t *testing.T) {
	ctx := context.Background()
	s := NewSession(nil, Options{})
	if _, err := s.Apply(ctx, decode(t, trio)...); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op := ops.Operation{Kind: ops.AddSibling, Target: "III-1", Params: ops.Params{Person: &ops.Person{}}}
			if _, err := s.Apply(ctx, op); err != nil {
				t.Errorf("Apply: %v", err)
			}
			_ = s.Risks()
		}()
	}
	wg.Wait()
	if got := len(s.Snapshot().Generation(3)); got != 9 {
		t.Errorf("generation III has %d individuals, want 9", got)
	}
}
