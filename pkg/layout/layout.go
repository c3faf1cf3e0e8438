package layout

import (
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Point is a diagram coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight connector piece.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Position is the computed placement of one individual.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// SibshipAnchor marks the first sibling of a group, which owns the
	// sibship line in renderers that draw per individual.
	SibshipAnchor bool `json:"sibshipAnchor,omitempty"`

	// TwinAnchor is the shared tether point of a twin pair, set on both twins.
	TwinAnchor *Point `json:"twinAnchor,omitempty"`
}

// Sibship is the horizontal line joining a sibling group, hung from the
// parents' marriage line.
type Sibship struct {
	Key       string   `json:"key"`
	ParentIDs []string `json:"parentIds"`
	AnchorID  string   `json:"anchorId"`
	DropX     float64  `json:"dropX"` // x of the vertical line from the parents
	Y         float64  `json:"y"`
	MinX      float64  `json:"minX"`
	MaxX      float64  `json:"maxX"`
}

// Twins describes the connectors of one twin pair.
type Twins struct {
	Left   string            `json:"left"`
	Right  string            `json:"right"`
	Type   pedigree.TwinType `json:"type"`
	Anchor Point             `json:"anchor"`
	Bar    *Segment          `json:"bar,omitempty"` // Equality bar, identical twins only
}

// Layout is the result of [Compute].
type Layout struct {
	Positions map[string]Position `json:"positions"`
	Sibships  []Sibship           `json:"sibships,omitempty"`
	Twins     []Twins             `json:"twins,omitempty"`
}

// Position returns the position of id.
func (l *Layout) Position(id string) (Position, bool) {
	pos, ok := l.Positions[id]
	return pos, ok
}

// Bounds returns the extent of all positions. It returns zero points for
// an empty layout.
func (l *Layout) Bounds() (Point, Point) {
	first := true
	var lo, hi Point
	for _, pos := range l.Positions {
		if first {
			lo, hi = Point{pos.X, pos.Y}, Point{pos.X, pos.Y}
			first = false
			continue
		}
		lo.X, lo.Y = min(lo.X, pos.X), min(lo.Y, pos.Y)
		hi.X, hi.Y = max(hi.X, pos.X), max(hi.Y, pos.Y)
	}
	return lo, hi
}

// Compute lays out every individual of p. It does not modify p; use
// [Apply] to store the coordinates on the individuals.
func Compute(p *pedigree.Pedigree, cfg Config) *Layout {
	cfg.SetDefaults()
	e := &engine{
		p:   p,
		cfg: cfg,
		xs:  make(map[string]float64, p.Len()),
	}
	for _, gen := range p.Generations() {
		e.layoutRow(gen)
	}

	out := &Layout{Positions: make(map[string]Position, p.Len())}
	for _, ind := range p.Individuals() {
		x, ok := e.xs[ind.ID]
		if !ok || !finite(x) {
			x = cfg.CenterX
		}
		out.Positions[ind.ID] = Position{X: x, Y: cfg.RowY(ind.Generation)}
	}
	addConnectors(p, cfg, out)
	return out
}

// Apply stores the layout's coordinates on the individuals of p.
func Apply(p *pedigree.Pedigree, l *Layout) {
	for _, ind := range p.Individuals() {
		pos, ok := l.Positions[ind.ID]
		if !ok {
			continue
		}
		ind.X, ind.Y, ind.Placed = pos.X, pos.Y, true
	}
}

// engine holds the working x coordinates of one Compute call.
type engine struct {
	p   *pedigree.Pedigree
	cfg Config
	xs  map[string]float64
}

func (e *engine) layoutRow(gen int) {
	row := e.p.Generation(gen)
	inRow := make(map[string]*pedigree.Individual, len(row))
	for _, ind := range row {
		inRow[ind.ID] = ind
	}
	groups, singles := pedigree.PartitionRow(row)

	grouped := make(map[string]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			grouped[m.ID] = true
		}
	}
	// Spouses that belong to a sibling group are placed with their own
	// group; the refinement pass brings the couple together.
	spouseOf := func(ind *pedigree.Individual) *pedigree.Individual {
		s, ok := inRow[ind.SpouseID]
		if !ok || grouped[s.ID] {
			return nil
		}
		return s
	}

	placements := make([]Placement, 0, len(groups))
	for _, g := range groups {
		var seq []*pedigree.Individual
		if len(g.Members) == 1 {
			seq = SingleChildSequence(g.Members[0], spouseOf)
		} else {
			seq = DisplaySequence(g, spouseOf)
		}
		placements = append(placements, CenterPlacement(g.Key, seq, e.parentMid(g.ParentIDs), e.cfg.Spacing))
	}
	placements = ResolveOverlaps(placements, e.cfg.Spacing)
	for _, pl := range placements {
		for i, m := range pl.Members {
			e.xs[m.ID] = pl.X(i, e.cfg.Spacing)
		}
	}

	for id, x := range PlaceSingles(singles, placements, e.cfg, spouseOf, e.pinned) {
		e.xs[id] = x
	}
	e.refineSpouses(row, inRow, groups)
}

// pinned keeps the previous x of a placed proband or locked individual.
func (e *engine) pinned(ind *pedigree.Individual) (float64, bool) {
	if !ind.Placed || !finite(ind.X) {
		return 0, false
	}
	if ind.Locked || e.p.IsProband(ind.ID) {
		return ind.X, true
	}
	return 0, false
}

// parentMid returns the mean x of the placed parents, or the canonical
// center when no parent is placed.
func (e *engine) parentMid(parentIDs []string) float64 {
	if mid, ok := e.placedMean(parentIDs); ok {
		return mid
	}
	return e.cfg.CenterX
}

// placedMean returns the mean x of ids. It fails if no id resolves or a
// resolved individual has no x yet.
func (e *engine) placedMean(ids []string) (float64, bool) {
	var sum float64
	n := 0
	for _, id := range ids {
		if _, ok := e.p.Individual(id); !ok {
			continue
		}
		x, ok := e.xs[id]
		if !ok {
			return 0, false
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// refineSpouses re-centers every married pair of the row whose partners
// both have placed parents on the midpoint of the two parental lines.
func (e *engine) refineSpouses(row []*pedigree.Individual, inRow map[string]*pedigree.Individual, groups []pedigree.SiblingGroup) {
	byKey := make(map[string][]*pedigree.Individual, len(groups))
	for _, g := range groups {
		byKey[g.Key] = g.Members
	}

	for _, a := range row {
		b, ok := inRow[a.SpouseID]
		if !ok || a.ID >= b.ID || b.SpouseID != a.ID {
			continue
		}
		if len(a.ParentIDs) == 0 || len(b.ParentIDs) == 0 || a.SiblingKey() == b.SiblingKey() {
			continue
		}
		aMid, okA := e.placedMean(a.ParentIDs)
		bMid, okB := e.placedMean(b.ParentIDs)
		if !okA || !okB {
			continue
		}
		pairMid := (aMid + bMid) / 2

		aSibs, bSibs := byKey[a.SiblingKey()], byKey[b.SiblingKey()]
		if len(aSibs) == 1 && len(bSibs) == 1 {
			e.xs[a.ID], e.xs[b.ID] = PairOffsets(pairMid, len(e.p.ParentsOf(a.ID)), len(e.p.ParentsOf(b.ID)), e.cfg)
			continue
		}

		seq := e.pairSequence(a, b, aSibs, bSibs, inRow)
		pl := CenterPlacement("", seq, pairMid, e.cfg.Spacing)
		for i, m := range pl.Members {
			e.xs[m.ID] = pl.X(i, e.cfg.Spacing)
		}
	}
}

// pairSequence orders a married pair with their sibships: a's siblings
// (each followed by a spouse), a, b, then b's siblings and spouses.
func (e *engine) pairSequence(a, b *pedigree.Individual, aSibs, bSibs []*pedigree.Individual, inRow map[string]*pedigree.Individual) []*pedigree.Individual {
	seen := map[string]bool{a.ID: true, b.ID: true}
	var left, right []*pedigree.Individual
	collect := func(dst *[]*pedigree.Individual, sibs []*pedigree.Individual) {
		for _, s := range sibs {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			*dst = append(*dst, s)
			if sp, ok := inRow[s.SpouseID]; ok && !seen[sp.ID] {
				seen[sp.ID] = true
				*dst = append(*dst, sp)
			}
		}
	}
	collect(&left, aSibs)
	collect(&right, bSibs)

	seq := make([]*pedigree.Individual, 0, len(left)+len(right)+2)
	seq = append(seq, left...)
	seq = append(seq, a, b)
	return append(seq, right...)
}
