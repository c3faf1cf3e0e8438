package pedigree

import (
	"testing"
)

func ids(inds []*Individual) []string {
	out := make([]string, len(inds))
	for i, ind := range inds {
		out[i] = ind.ID
	}
	return out
}

func TestSiblingGroupKey(t *testing.T) {
	tests := []struct {
		parents []string
		want    string
	}{
		{nil, ""},
		{[]string{"II-1"}, "II-1"},
		{[]string{"II-1", "II-2"}, "II-1,II-2"},
		{[]string{"II-2", "II-1"}, "II-1,II-2"},
	}
	for _, tt := range tests {
		if got := SiblingGroupKey(tt.parents); got != tt.want {
			t.Errorf("SiblingGroupKey(%v) = %q, want %q", tt.parents, got, tt.want)
		}
	}
}

func TestSiblingSymmetry(t *testing.T) {
	p := family(t)
	if _, err := p.AddTwins("III-1", Fraternal, Person{}, Person{}); err != nil {
		t.Fatal(err)
	}

	for _, a := range p.Individuals() {
		for _, b := range p.SiblingsOf(a.ID) {
			found := false
			for _, c := range p.SiblingsOf(b.ID) {
				if c.ID == a.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("%s in SiblingsOf(%s) but not the reverse", b.ID, a.ID)
			}
		}
	}

	if got := ids(p.SiblingsOf("III-1")); len(got) != 2 || got[0] != "III-1" || got[1] != "III-3" {
		t.Errorf("SiblingsOf(III-1) = %v, want [III-1 III-3]", got)
	}
	if got := p.SiblingsOf("III-2"); got != nil {
		t.Errorf("SiblingsOf(III-2) = %v, want nil for no parents", ids(got))
	}
	if got := p.SiblingsOf("missing"); got != nil {
		t.Errorf("SiblingsOf(missing) = %v, want nil", ids(got))
	}
}

func TestSpouseSymmetry(t *testing.T) {
	p := family(t)
	for _, a := range p.Individuals() {
		b, ok := p.SpouseOf(a.ID)
		if !ok {
			continue
		}
		if b.SpouseID != a.ID {
			t.Errorf("%s.SpouseID = %s but %s.SpouseID = %s", a.ID, b.ID, b.ID, b.SpouseID)
		}
		if (a.Marriage == nil) == (b.Marriage == nil) {
			t.Errorf("marriage info on %s=%v and %s=%v, want exactly one", a.ID, a.Marriage, b.ID, b.Marriage)
		}
	}
}

func TestParentsByGender(t *testing.T) {
	p := family(t)
	if m, ok := p.MotherOf("III-1"); !ok || m.ID != "II-2" {
		t.Errorf("MotherOf(III-1) = %v, %v", m, ok)
	}
	if f, ok := p.FatherOf("III-1"); !ok || f.ID != "II-1" {
		t.Errorf("FatherOf(III-1) = %v, %v", f, ok)
	}
	if _, ok := p.FatherOf("II-1"); ok {
		t.Error("FatherOf(II-1) found a parent, want none")
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	p := family(t)

	if got := ids(p.AncestorsUpTo("IV-1", 1)); len(got) != 2 {
		t.Errorf("AncestorsUpTo(IV-1, 1) = %v, want 2 parents", got)
	}
	if got := ids(p.AncestorsUpTo("IV-1", 5)); len(got) != 4 {
		t.Errorf("AncestorsUpTo(IV-1, 5) = %v, want 4", got)
	}
	if got := ids(p.DescendantsUpTo("II-1", 5)); len(got) != 3 {
		t.Errorf("DescendantsUpTo(II-1, 5) = %v, want [III-1 III-3 IV-1]", got)
	}
	if got := p.AncestorsUpTo("IV-1", 0); got != nil {
		t.Errorf("AncestorsUpTo(n=0) = %v, want nil", ids(got))
	}
}

func TestAncestorsToleratesCycles(t *testing.T) {
	p := New()
	_ = p.Insert(&Individual{ID: "a", Generation: 2, ParentIDs: []string{"b"}})
	_ = p.Insert(&Individual{ID: "b", Generation: 1, ParentIDs: []string{"a", "ghost"}})

	got := ids(p.AncestorsUpTo("a", 10))
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("AncestorsUpTo(a) = %v, want [b]", got)
	}
}

func TestTwinPairsWithin(t *testing.T) {
	p := family(t)
	if _, err := p.AddTwins("III-1", Identical, Person{Gender: Female}, Person{}); err != nil {
		t.Fatal(err)
	}
	group := p.ChildrenOf("III-1")
	pairs := TwinPairsWithin(group)
	if len(pairs) != 1 {
		t.Fatalf("TwinPairsWithin = %d pairs, want 1", len(pairs))
	}
	if pairs[0].Left.ID != "IV-2" || pairs[0].Right.ID != "IV-3" || pairs[0].Type != Identical {
		t.Errorf("pair = %s/%s %s", pairs[0].Left.ID, pairs[0].Right.ID, pairs[0].Type)
	}

	if got := TwinPairsWithin(group[:2]); len(got) != 0 {
		t.Errorf("pair with one member outside group = %d pairs, want 0", len(got))
	}
}
