package pedigree

import (
	"fmt"
	"slices"
)

// Issue is one referential problem found by [Pedigree.Validate].
type Issue struct {
	ID      string // Individual the issue was found on; "" for pedigree-level issues
	Message string
}

// String formats the issue as "ID: message".
func (i Issue) String() string {
	if i.ID == "" {
		return i.Message
	}
	return i.ID + ": " + i.Message
}

// Validate reports referential inconsistencies without changing anything.
// The engines tolerate every issue listed here by treating the broken
// reference as absent; Validate exists so tools can surface them.
//
// Issues are reported in insertion order of the individuals involved.
func (p *Pedigree) Validate() []Issue {
	var issues []Issue
	report := func(id, format string, args ...any) {
		issues = append(issues, Issue{ID: id, Message: fmt.Sprintf(format, args...)})
	}

	if p.probandID != "" {
		if _, ok := p.individuals[p.probandID]; !ok {
			report("", "proband %s does not exist", p.probandID)
		}
	}

	for _, ind := range p.Individuals() {
		if ind.Generation < MinGeneration || ind.Generation > MaxGeneration {
			report(ind.ID, "generation %d outside [%d, %d]", ind.Generation, MinGeneration, MaxGeneration)
		}
		p.validateParents(ind, report)
		p.validateChildren(ind, report)
		p.validateSpouse(ind, report)
		p.validateTwin(ind, report)
	}
	return issues
}

type reporter func(id, format string, args ...any)

func (p *Pedigree) validateParents(ind *Individual, report reporter) {
	if len(ind.ParentIDs) > 2 {
		report(ind.ID, "has %d parents (max 2)", len(ind.ParentIDs))
	}
	if !slices.IsSorted(ind.ParentIDs) {
		report(ind.ID, "parentIds not sorted")
	}
	seen := make(map[string]bool)
	for _, pid := range ind.ParentIDs {
		switch {
		case pid == ind.ID:
			report(ind.ID, "lists itself as parent")
		case seen[pid]:
			report(ind.ID, "lists parent %s twice", pid)
		}
		seen[pid] = true
		parent, ok := p.individuals[pid]
		if !ok {
			report(ind.ID, "parent %s does not exist", pid)
			continue
		}
		if parent.Generation != ind.Generation-1 {
			report(ind.ID, "parent %s is in generation %d, want %d", pid, parent.Generation, ind.Generation-1)
		}
		if !slices.Contains(parent.ChildrenIDs, ind.ID) {
			report(ind.ID, "parent %s does not list it as child", pid)
		}
	}
}

func (p *Pedigree) validateChildren(ind *Individual, report reporter) {
	for _, cid := range ind.ChildrenIDs {
		child, ok := p.individuals[cid]
		if !ok {
			report(ind.ID, "child %s does not exist", cid)
			continue
		}
		if !slices.Contains(child.ParentIDs, ind.ID) {
			report(ind.ID, "child %s does not list it as parent", cid)
		}
	}
}

func (p *Pedigree) validateSpouse(ind *Individual, report reporter) {
	if ind.SpouseID == "" {
		if ind.Marriage != nil {
			report(ind.ID, "has marriage info but no spouse")
		}
		return
	}
	spouse, ok := p.individuals[ind.SpouseID]
	if !ok {
		report(ind.ID, "spouse %s does not exist", ind.SpouseID)
		return
	}
	if spouse.SpouseID != ind.ID {
		report(ind.ID, "spouse %s does not reference it back", ind.SpouseID)
		return
	}
	if ind.ID > spouse.ID {
		return
	}
	switch {
	case ind.Marriage != nil && spouse.Marriage != nil:
		report(ind.ID, "marriage info stored on both %s and %s", ind.ID, spouse.ID)
	case ind.Marriage == nil && spouse.Marriage != nil:
		report(spouse.ID, "marriage info stored on %s, want %s", spouse.ID, ind.ID)
	}
}

func (p *Pedigree) validateTwin(ind *Individual, report reporter) {
	if ind.TwinWith == "" {
		return
	}
	twin, ok := p.individuals[ind.TwinWith]
	switch {
	case !ok:
		report(ind.ID, "twin %s does not exist", ind.TwinWith)
	case twin.TwinWith != ind.ID:
		report(ind.ID, "twin %s does not reference it back", ind.TwinWith)
	case twin.TwinType != ind.TwinType:
		report(ind.ID, "twin type %q differs from %s's %q", ind.TwinType, twin.ID, twin.TwinType)
	}
}
