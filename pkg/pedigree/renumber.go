package pedigree

// Renumber rewrites positions in every generation into canonical order:
// each sibling group (members by position, then their spouses), then each
// single followed by its spouse. Sibling groups are taken in order of
// their first member. The proband and locked individuals keep their
// position but still consume a slot.
func (p *Pedigree) Renumber() {
	for _, gen := range p.Generations() {
		row := p.Generation(gen)
		inRow := make(map[string]*Individual, len(row))
		for _, ind := range row {
			inRow[ind.ID] = ind
		}

		var (
			order  []*Individual
			placed = make(map[string]bool)
		)
		push := func(ind *Individual) {
			if ind != nil && !placed[ind.ID] {
				placed[ind.ID] = true
				order = append(order, ind)
			}
		}

		groups, singles := PartitionRow(row)
		for _, g := range groups {
			for _, m := range g.Members {
				push(m)
			}
			for _, m := range g.Members {
				push(inRow[m.SpouseID])
			}
		}
		for _, s := range singles {
			push(s)
			push(inRow[s.SpouseID])
		}

		pos := 1
		for _, ind := range order {
			if !ind.Locked && !p.IsProband(ind.ID) {
				ind.Position = pos
			}
			pos++
		}
	}
}

// SiblingGroup is the set of individuals in one row sharing a non-empty
// sibling-group key, ordered by position.
type SiblingGroup struct {
	Key       string
	ParentIDs []string
	Members   []*Individual
}

// PartitionRow splits a position-ordered row into sibling groups, ordered
// by their first member, and singles without parents on record.
func PartitionRow(row []*Individual) ([]SiblingGroup, []*Individual) {
	var (
		groups  []SiblingGroup
		index   = make(map[string]int)
		singles []*Individual
	)
	for _, ind := range row {
		key := ind.SiblingKey()
		if key == "" {
			singles = append(singles, ind)
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SiblingGroup{Key: key, ParentIDs: ind.ParentIDs})
		}
		groups[i].Members = append(groups[i].Members, ind)
	}
	return groups, singles
}
