package pedigree

import (
	"strings"
	"testing"
)

func TestValidateClean(t *testing.T) {
	p := family(t)
	if _, err := p.AddTwins("III-1", Fraternal, Person{}, Person{}); err != nil {
		t.Fatal(err)
	}
	if issues := p.Validate(); len(issues) != 0 {
		t.Errorf("Validate() = %v, want no issues", issues)
	}
}

func TestValidateReportsBrokenReferences(t *testing.T) {
	p := New()
	inds := []*Individual{
		{ID: "II-1", Generation: 2, SpouseID: "II-9"},
		{ID: "II-2", Generation: 2, SpouseID: "II-3", Marriage: &MarriageInfo{Status: Married}},
		{ID: "II-3", Generation: 2, SpouseID: "II-2", Marriage: &MarriageInfo{Status: Married}},
		{ID: "III-1", Generation: 3, ParentIDs: []string{"II-1", "X"}, TwinWith: "III-2"},
		{ID: "VI-1", Generation: 6},
	}
	for _, ind := range inds {
		if err := p.Insert(ind); err != nil {
			t.Fatal(err)
		}
	}
	p.SetProbandRef("Z")

	want := []string{
		"proband Z does not exist",
		"II-1: spouse II-9 does not exist",
		"II-2: marriage info stored on both II-2 and II-3",
		"III-1: parent II-1 does not list it as child",
		"III-1: parent X does not exist",
		"III-1: twin III-2 does not exist",
		"VI-1: generation 6 outside [1, 5]",
	}

	var got []string
	for _, issue := range p.Validate() {
		got = append(got, issue.String())
	}
	joined := strings.Join(got, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Errorf("Validate() missing %q; got:\n%s", w, joined)
		}
	}
}

func TestInsertRejectsDuplicates(t *testing.T) {
	p := New()
	if err := p.Insert(&Individual{ID: "I-1", Generation: 1}); err != nil {
		t.Fatal(err)
	}
	if err := p.Insert(&Individual{ID: "I-1", Generation: 1}); err == nil {
		t.Error("Insert duplicate: want error")
	}
	if err := p.Insert(&Individual{}); err == nil {
		t.Error("Insert empty ID: want error")
	}
}
