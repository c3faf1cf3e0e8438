package pedigree

import (
	"cmp"
	"slices"
	"strings"
)

// SiblingGroupKey returns the canonical sibling-group key for a parent
// tuple: the sorted IDs joined by ",". The empty key means "no parents on
// record" and never forms a sibling group.
func SiblingGroupKey(parentIDs []string) string {
	if len(parentIDs) == 0 {
		return ""
	}
	if slices.IsSorted(parentIDs) {
		return strings.Join(parentIDs, ",")
	}
	sorted := slices.Clone(parentIDs)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

// SiblingsOf returns every individual sharing id's sibling-group key,
// including id itself, ordered by position. It returns nil when id is
// missing or has no parents on record.
func (p *Pedigree) SiblingsOf(id string) []*Individual {
	ind, ok := p.Individual(id)
	if !ok {
		return nil
	}
	key := ind.SiblingKey()
	if key == "" {
		return nil
	}
	var sibs []*Individual
	for _, other := range p.Individuals() {
		if other.SiblingKey() == key {
			sibs = append(sibs, other)
		}
	}
	sortByPosition(sibs)
	return sibs
}

// SpouseOf returns id's spouse. A dangling SpouseID resolves to not found.
func (p *Pedigree) SpouseOf(id string) (*Individual, bool) {
	ind, ok := p.Individual(id)
	if !ok {
		return nil, false
	}
	return p.Individual(ind.SpouseID)
}

// ParentsOf returns id's resolvable parents in ParentIDs order.
func (p *Pedigree) ParentsOf(id string) []*Individual {
	ind, ok := p.Individual(id)
	if !ok {
		return nil
	}
	return p.resolve(ind.ParentIDs)
}

// ChildrenOf returns id's resolvable children ordered by position.
func (p *Pedigree) ChildrenOf(id string) []*Individual {
	ind, ok := p.Individual(id)
	if !ok {
		return nil
	}
	children := p.resolve(ind.ChildrenIDs)
	sortByPosition(children)
	return children
}

// MotherOf returns the first female parent of id.
func (p *Pedigree) MotherOf(id string) (*Individual, bool) {
	return p.parentByGender(id, Female)
}

// FatherOf returns the first male parent of id.
func (p *Pedigree) FatherOf(id string) (*Individual, bool) {
	return p.parentByGender(id, Male)
}

func (p *Pedigree) parentByGender(id string, g Gender) (*Individual, bool) {
	for _, parent := range p.ParentsOf(id) {
		if parent.Gender == g {
			return parent, true
		}
	}
	return nil, false
}

// AncestorsUpTo returns the ancestors of id at most n generations up, in
// breadth-first order. A visited set tolerates cyclic parent references
// in corrupted data.
func (p *Pedigree) AncestorsUpTo(id string, n int) []*Individual {
	return p.walk(id, n, func(ind *Individual) []string { return ind.ParentIDs })
}

// DescendantsUpTo returns the descendants of id at most n generations
// down, in breadth-first order.
func (p *Pedigree) DescendantsUpTo(id string, n int) []*Individual {
	return p.walk(id, n, func(ind *Individual) []string { return ind.ChildrenIDs })
}

func (p *Pedigree) walk(id string, depth int, next func(*Individual) []string) []*Individual {
	start, ok := p.Individual(id)
	if !ok || depth <= 0 {
		return nil
	}
	visited := map[string]bool{id: true}
	frontier := []*Individual{start}
	var out []*Individual
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var nextFrontier []*Individual
		for _, ind := range frontier {
			for _, rel := range next(ind) {
				if visited[rel] {
					continue
				}
				visited[rel] = true
				if r, ok := p.Individual(rel); ok {
					out = append(out, r)
					nextFrontier = append(nextFrontier, r)
				}
			}
		}
		frontier = nextFrontier
	}
	return out
}

// TwinPair is two individuals that list each other in TwinWith.
type TwinPair struct {
	Left, Right *Individual // Left has the smaller position
	Type        TwinType
}

// TwinPairsWithin returns the twin pairs whose members both belong to
// group and reference each other. Pairs are ordered by the left member's
// position.
func TwinPairsWithin(group []*Individual) []TwinPair {
	byID := make(map[string]*Individual, len(group))
	for _, ind := range group {
		byID[ind.ID] = ind
	}
	seen := make(map[string]bool)
	var pairs []TwinPair
	for _, a := range group {
		if a.TwinWith == "" || seen[a.ID] {
			continue
		}
		b, ok := byID[a.TwinWith]
		if !ok || b.TwinWith != a.ID || b.ID == a.ID {
			continue
		}
		seen[a.ID], seen[b.ID] = true, true
		left, right := a, b
		if right.Position < left.Position || (right.Position == left.Position && right.ID < left.ID) {
			left, right = right, left
		}
		pairs = append(pairs, TwinPair{Left: left, Right: right, Type: a.TwinType})
	}
	slices.SortStableFunc(pairs, func(x, y TwinPair) int { return cmp.Compare(x.Left.Position, y.Left.Position) })
	return pairs
}

func (p *Pedigree) resolve(ids []string) []*Individual {
	var out []*Individual
	for _, id := range ids {
		if ind, ok := p.Individual(id); ok {
			out = append(out, ind)
		}
	}
	return out
}

func sortByPosition(inds []*Individual) {
	slices.SortStableFunc(inds, func(a, b *Individual) int { return cmp.Compare(a.Position, b.Position) })
}
