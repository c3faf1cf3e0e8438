package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// SpouseFunc returns the partner to insert next to a sibling, or nil when
// the sibling has no eligible spouse in the row.
type SpouseFunc func(*pedigree.Individual) *pedigree.Individual

// DisplaySequence orders a sibling group for placement. Siblings appear by
// position. The first sibling's spouse goes before the block and every
// other sibling's spouse right after that sibling. A twin pair is kept as
// one unit and its spouses follow the pair, so nothing is inserted between
// twins. An individual appears at most once.
func DisplaySequence(g pedigree.SiblingGroup, spouseOf SpouseFunc) []*pedigree.Individual {
	var (
		seq  []*pedigree.Individual
		seen = make(map[string]bool)
	)
	push := func(ind *pedigree.Individual) {
		if ind != nil && !seen[ind.ID] {
			seen[ind.ID] = true
			seq = append(seq, ind)
		}
	}

	for ui, unit := range twinUnits(g.Members) {
		if ui == 0 {
			push(spouseOf(unit[0]))
		}
		for _, m := range unit {
			push(m)
		}
		for mi, m := range unit {
			if ui == 0 && mi == 0 {
				continue
			}
			push(spouseOf(m))
		}
	}
	return seq
}

// SingleChildSequence orders a one-member sibling group: the child, then
// its spouse, so the couple is centered as a block under the parents.
func SingleChildSequence(child *pedigree.Individual, spouseOf SpouseFunc) []*pedigree.Individual {
	if s := spouseOf(child); s != nil && s.ID != child.ID {
		return []*pedigree.Individual{child, s}
	}
	return []*pedigree.Individual{child}
}

// twinUnits groups position-ordered members into placement units. A twin
// whose partner is in the group pulls the partner next to itself.
func twinUnits(members []*pedigree.Individual) [][]*pedigree.Individual {
	byID := make(map[string]*pedigree.Individual, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	used := make(map[string]bool)
	var units [][]*pedigree.Individual
	for _, m := range members {
		if used[m.ID] {
			continue
		}
		used[m.ID] = true
		unit := []*pedigree.Individual{m}
		if t, ok := byID[m.TwinWith]; ok && !used[t.ID] && t.TwinWith == m.ID {
			used[t.ID] = true
			unit = append(unit, t)
		}
		units = append(units, unit)
	}
	return units
}

// Placement is a display sequence laid out left to right from Start.
type Placement struct {
	Key     string // Sibling-group key
	Members []*pedigree.Individual
	Start   float64
}

// End returns the x of the last member.
func (p Placement) End(spacing float64) float64 {
	if len(p.Members) == 0 {
		return p.Start
	}
	return p.Start + float64(len(p.Members)-1)*spacing
}

// X returns the x of the i-th member.
func (p Placement) X(i int, spacing float64) float64 {
	return p.Start + float64(i)*spacing
}

// CenterPlacement centers a display sequence on mid.
func CenterPlacement(key string, seq []*pedigree.Individual, mid, spacing float64) Placement {
	span := float64(max(len(seq)-1, 0)) * spacing
	return Placement{Key: key, Members: seq, Start: mid - span/2}
}

// ResolveOverlaps sorts placements by start and makes one forward pass:
// a placement starting within one spacing unit of the previous placement's
// end is shifted right to exactly one spacing unit past it. Earlier
// placements never move. Ties keep their input order. The input slice is
// not modified.
func ResolveOverlaps(ps []Placement, spacing float64) []Placement {
	out := slices.Clone(ps)
	slices.SortStableFunc(out, func(a, b Placement) int { return cmp.Compare(a.Start, b.Start) })
	for i := 1; i < len(out); i++ {
		limit := out[i-1].End(spacing) + spacing
		if out[i].Start <= limit {
			out[i].Start = limit
		}
	}
	return out
}

// PinnedFunc returns the kept x of an individual that must not be moved,
// such as a previously placed proband.
type PinnedFunc func(*pedigree.Individual) (float64, bool)

// PlaceSingles assigns x to the singles of a row that no placement
// already covers. A single and their spouse, when the spouse is also an
// uncovered single, move as one unit so the couple stays adjacent.
// Without placements, all units are centered as one row on cfg.CenterX.
// Otherwise units alternate left of the leftmost and right of the
// rightmost placement, each stepping outward past the previous unit on
// that side. A pinned single keeps its x and its spouse sits next to it
// on the outer side; the unit still uses up a turn.
func PlaceSingles(singles []*pedigree.Individual, placements []Placement, cfg Config, spouseOf SpouseFunc, pinned PinnedFunc) map[string]float64 {
	covered := make(map[string]bool)
	left, right := math.Inf(1), math.Inf(-1)
	for _, p := range placements {
		for _, m := range p.Members {
			covered[m.ID] = true
		}
		left = math.Min(left, p.Start)
		right = math.Max(right, p.End(cfg.Spacing))
	}
	units := singleUnits(singles, covered, spouseOf)

	xs := make(map[string]float64, len(singles))
	if len(placements) == 0 {
		var seq []*pedigree.Individual
		for _, u := range units {
			seq = append(seq, u...)
		}
		start := cfg.CenterX - float64(max(len(seq)-1, 0))*cfg.Spacing/2
		for i, ind := range seq {
			xs[ind.ID] = start + float64(i)*cfg.Spacing
		}
		return xs
	}

	mid := (left + right) / 2
	for turn, u := range units {
		width := float64(len(u)) * cfg.Spacing
		if x, ok := pinnedUnit(u, pinned); ok {
			xs[u[0].ID] = x
			if len(u) == 2 {
				if x < mid {
					xs[u[1].ID] = x - cfg.Spacing
				} else {
					xs[u[1].ID] = x + cfg.Spacing
				}
			}
		} else if turn%2 == 0 {
			for i, ind := range u {
				xs[ind.ID] = left - width + float64(i)*cfg.Spacing
			}
		} else {
			for i, ind := range u {
				xs[ind.ID] = right + float64(i+1)*cfg.Spacing
			}
		}
		if turn%2 == 0 {
			left -= width
		} else {
			right += width
		}
	}
	return xs
}

// singleUnits groups uncovered singles into placement units in row
// order: a single alone, or a single followed by their single spouse.
func singleUnits(singles []*pedigree.Individual, covered map[string]bool, spouseOf SpouseFunc) [][]*pedigree.Individual {
	open := make(map[string]bool, len(singles))
	for _, s := range singles {
		if !covered[s.ID] {
			open[s.ID] = true
		}
	}

	var units [][]*pedigree.Individual
	for _, s := range singles {
		if !open[s.ID] {
			continue
		}
		delete(open, s.ID)
		u := []*pedigree.Individual{s}
		if spouseOf != nil {
			if sp := spouseOf(s); sp != nil && open[sp.ID] {
				delete(open, sp.ID)
				u = append(u, sp)
			}
		}
		units = append(units, u)
	}
	return units
}

// pinnedUnit reports the kept x of a unit with a pinned member, reordering
// the unit so the pinned member comes first.
func pinnedUnit(u []*pedigree.Individual, pinned PinnedFunc) (float64, bool) {
	for i, ind := range u {
		if x, ok := pinned(ind); ok {
			u[0], u[i] = u[i], u[0]
			return x, true
		}
	}
	return 0, false
}

// PairOffsets returns the x of two married only-children centered on
// pairMid. The pair is widened by cfg.OnlyChildOffset on each side when
// both partners have two parents on record, keeping them clear of the
// grandparents' lines.
func PairOffsets(pairMid float64, aParents, bParents int, cfg Config) (float64, float64) {
	half := cfg.Spacing / 2
	if aParents == 2 && bParents == 2 {
		half += cfg.OnlyChildOffset
	}
	return pairMid - half, pairMid + half
}

// finite reports whether v is a usable coordinate.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
