package pedigree

import (
	"slices"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// Canonical placement of the first individual.
const (
	ProbandGeneration = 3
	ProbandPosition   = 1
)

// AddProband creates the proband in an empty pedigree as "III-1".
func (p *Pedigree) AddProband(person Person) (*Individual, error) {
	if p.Len() > 0 || p.probandID != "" {
		return nil, errors.New(errors.ErrCodeProbandExists, "pedigree already has individuals; set an existing individual as proband instead")
	}
	ind := p.newIndividual(person, ProbandGeneration, ProbandPosition)
	if ind.Remarks == "" {
		ind.Remarks = "Proband - central individual for pedigree analysis"
	}
	p.add(ind)
	p.probandID = ind.ID
	return ind, nil
}

// AddParents creates a couple one generation above childID and makes them
// its parents. The second parent's gender is the opposite of the first.
func (p *Pedigree) AddParents(childID string, first, second Person, status MarriageStatus) ([]*Individual, error) {
	child, err := p.mustGet(childID)
	if err != nil {
		return nil, err
	}
	switch {
	case len(child.ParentIDs) >= 2:
		return nil, errors.New(errors.ErrCodeParentsComplete, "%s already has two parents", childID)
	case len(child.ParentIDs) == 1:
		return nil, errors.New(errors.ErrCodeInvalidOperation, "%s has one parent on record; add a spouse to %s instead", childID, child.ParentIDs[0])
	case child.Generation <= MinGeneration:
		return nil, errors.New(errors.ErrCodeGenerationLimit, "%s is in generation %s; no generation above it", childID, RomanGeneration(child.Generation))
	}
	if status, err = ParseMarriageStatus(string(status)); err != nil {
		return nil, err
	}

	gen := child.Generation - 1
	pos := p.maxPosition(gen) + 1
	if first.Gender == "" {
		first.Gender = Male
	}
	second.Gender = first.Gender.Opposite()

	p1 := p.newIndividual(first, gen, pos)
	p2 := p.newIndividual(second, gen, pos+1, p1.ID)
	p1.ChildrenIDs = []string{child.ID}
	p2.ChildrenIDs = []string{child.ID}
	marry(p1, p2, status)

	p.add(p1)
	p.add(p2)
	child.ParentIDs = sortedPair(p1.ID, p2.ID)
	return []*Individual{p1, p2}, nil
}

// AddSpouse creates a spouse for id in the same generation. The spouse
// becomes co-parent of id's existing children that have a free parent slot.
func (p *Pedigree) AddSpouse(id string, person Person, status MarriageStatus) (*Individual, error) {
	ind, err := p.mustGet(id)
	if err != nil {
		return nil, err
	}
	if _, married := p.Individual(ind.SpouseID); married {
		return nil, errors.New(errors.ErrCodeSpouseExists, "%s already has a spouse (%s)", id, ind.SpouseID)
	}
	if status, err = ParseMarriageStatus(string(status)); err != nil {
		return nil, err
	}

	if ind.Gender != Unknown || person.Gender == "" {
		person.Gender = ind.Gender.Opposite()
	}
	spouse := p.newIndividual(person, ind.Generation, 0)
	marry(ind, spouse, status)

	for _, child := range p.resolve(ind.ChildrenIDs) {
		if len(child.ParentIDs) >= 2 || slices.Contains(child.ParentIDs, spouse.ID) {
			continue
		}
		child.ParentIDs = append(child.ParentIDs, spouse.ID)
		slices.Sort(child.ParentIDs)
		spouse.ChildrenIDs = append(spouse.ChildrenIDs, child.ID)
	}
	p.add(spouse)
	return spouse, nil
}

// AddChild creates a child of id and id's spouse in the next generation.
func (p *Pedigree) AddChild(id string, person Person, adoption Adoption) (*Individual, error) {
	parent, spouse, err := p.couple(id)
	if err != nil {
		return nil, err
	}
	if err := checkChildGeneration(parent); err != nil {
		return nil, err
	}
	if adoption, err = ParseAdoption(string(adoption)); err != nil {
		return nil, err
	}
	child := p.newIndividual(person, parent.Generation+1, 0)
	child.Adoption = adoption
	p.attachChild(child, parent, spouse)
	return child, nil
}

// AddSibling creates a sibling of id sharing its parents.
func (p *Pedigree) AddSibling(id string, person Person, adoption Adoption) (*Individual, error) {
	ind, err := p.mustGet(id)
	if err != nil {
		return nil, err
	}
	if len(ind.ParentIDs) == 0 {
		return nil, errors.New(errors.ErrCodeParentsRequired, "%s has no parents on record", id)
	}
	if adoption, err = ParseAdoption(string(adoption)); err != nil {
		return nil, err
	}
	sib := p.newIndividual(person, ind.Generation, 0)
	sib.Adoption = adoption
	sib.ParentIDs = slices.Clone(ind.ParentIDs)
	for _, parent := range p.resolve(ind.ParentIDs) {
		parent.ChildrenIDs = append(parent.ChildrenIDs, sib.ID)
	}
	p.add(sib)
	return sib, nil
}

// AddTwins creates a twin pair as children of id and id's spouse. The two
// IDs and positions are reserved together. Identical twins share the first
// twin's gender.
func (p *Pedigree) AddTwins(id string, twinType TwinType, a, b Person) ([]*Individual, error) {
	parent, spouse, err := p.couple(id)
	if err != nil {
		return nil, err
	}
	if err := checkChildGeneration(parent); err != nil {
		return nil, err
	}
	if twinType, err = ParseTwinType(string(twinType)); err != nil {
		return nil, err
	}
	if twinType == Identical {
		b.Gender = a.Gender
	}
	remark := "Fraternal twin"
	if twinType == Identical {
		remark = "Identical twin"
	}
	for _, person := range []*Person{&a, &b} {
		if person.Remarks == "" {
			person.Remarks = remark
		}
	}

	gen := parent.Generation + 1
	pos := p.maxPosition(gen) + 1
	t1 := p.newIndividual(a, gen, pos)
	t2 := p.newIndividual(b, gen, pos+1, t1.ID)
	t1.TwinWith, t1.TwinType = t2.ID, twinType
	t2.TwinWith, t2.TwinType = t1.ID, twinType

	p.attachChild(t1, parent, spouse)
	p.attachChild(t2, parent, spouse)
	return []*Individual{t1, t2}, nil
}

// AddPregnancy records an ongoing pregnancy of id (and id's spouse, if
// any) as a child carrying the pregnancy marker.
func (p *Pedigree) AddPregnancy(id string, gender Gender) (*Individual, error) {
	parent, spouse, err := p.singleOrCouple(id)
	if err != nil {
		return nil, err
	}
	if gender, err = ParseGender(string(gender)); err != nil {
		return nil, err
	}
	child := p.newIndividual(Person{Name: "Pregnancy", Gender: gender, Remarks: "Pregnancy"}, parent.Generation+1, 0)
	child.Marker = MarkerPregnancy
	p.attachChild(child, parent, spouse)
	return child, nil
}

// AddPregnancyLoss records a spontaneous miscarriage, or a termination when
// termination is true. The gender is always unknown.
func (p *Pedigree) AddPregnancyLoss(id string, termination bool) (*Individual, error) {
	parent, spouse, err := p.singleOrCouple(id)
	if err != nil {
		return nil, err
	}
	person := Person{Name: "Miscarriage", Gender: Unknown, Remarks: "Spontaneous miscarriage"}
	marker := MarkerPregnancyLoss
	if termination {
		person = Person{Name: "Termination", Gender: Unknown, Remarks: "Termination of pregnancy"}
		marker = MarkerTermination
	}
	child := p.newIndividual(person, parent.Generation+1, 0)
	child.Marker = marker
	p.attachChild(child, parent, spouse)
	return child, nil
}

// SetNoOffspring marks id and id's spouse as a couple without offspring.
// OffspringUnspecified clears the marker.
func (p *Pedigree) SetNoOffspring(id string, kind NoOffspring) error {
	ind, spouse, err := p.couple(id)
	if err != nil {
		return err
	}
	if kind != OffspringUnspecified {
		if kind, err = ParseNoOffspring(string(kind)); err != nil {
			return err
		}
	}
	ind.NoOffspring, spouse.NoOffspring = kind, kind
	return nil
}

// SetMarriageStatus changes the status of id's marriage. The info is kept
// on the partner with the smaller ID only.
func (p *Pedigree) SetMarriageStatus(id string, status MarriageStatus) error {
	ind, spouse, err := p.couple(id)
	if err != nil {
		return err
	}
	if status, err = ParseMarriageStatus(string(status)); err != nil {
		return err
	}
	marry(ind, spouse, status)
	return nil
}

// Patch lists the editable fields of [Pedigree.UpdateIndividual]. Nil
// fields are left unchanged.
type Patch struct {
	Name       *string
	Gender     *Gender
	Affected   *bool
	Carrier    *bool
	TestResult *TestResult
	Adoption   *Adoption
	Age        *string
	BirthYear  *string
	DeathYear  *string
	DeathAge   *string
	Deceased   *bool
	Conditions *string
	Remarks    *string
	Locked     *bool
}

// UpdateIndividual applies patch to id. Enumerated fields are validated
// before anything is written.
func (p *Pedigree) UpdateIndividual(id string, patch Patch) error {
	ind, err := p.mustGet(id)
	if err != nil {
		return err
	}
	if patch.Gender != nil {
		if _, err := ParseGender(string(*patch.Gender)); err != nil {
			return err
		}
	}
	if patch.TestResult != nil {
		if _, err := ParseTestResult(string(*patch.TestResult)); err != nil {
			return err
		}
	}
	if patch.Adoption != nil {
		if _, err := ParseAdoption(string(*patch.Adoption)); err != nil {
			return err
		}
	}

	set(&ind.Name, patch.Name)
	set(&ind.Affected, patch.Affected)
	set(&ind.Carrier, patch.Carrier)
	set(&ind.TestResult, patch.TestResult)
	set(&ind.Adoption, patch.Adoption)
	set(&ind.Age, patch.Age)
	set(&ind.BirthYear, patch.BirthYear)
	set(&ind.DeathYear, patch.DeathYear)
	set(&ind.DeathAge, patch.DeathAge)
	set(&ind.Deceased, patch.Deceased)
	set(&ind.Conditions, patch.Conditions)
	set(&ind.Remarks, patch.Remarks)
	set(&ind.Locked, patch.Locked)
	if patch.Gender != nil {
		ind.Gender = *patch.Gender
		if ind.Gender == "" {
			ind.Gender = Unknown
		}
	}
	return nil
}

// Delete removes id together with its spouse, unless the spouse is the
// proband. It returns the removed IDs.
func (p *Pedigree) Delete(id string) ([]string, error) {
	return p.DeleteMany([]string{id})
}

// DeleteMany removes every listed individual plus their spouses, skipping
// a spouse that is the proband. Every ID must exist and none may be the
// proband; otherwise nothing is removed. Every remaining reference to a
// removed individual is stripped.
func (p *Pedigree) DeleteMany(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no individuals to delete")
	}
	for _, id := range ids {
		if _, err := p.mustGet(id); err != nil {
			return nil, err
		}
		if p.IsProband(id) {
			return nil, errors.New(errors.ErrCodeProbandProtected, "cannot delete the proband %s; assign a new proband first", id)
		}
	}

	doomed := make(map[string]bool)
	var removed []string
	mark := func(id string) {
		if !doomed[id] {
			doomed[id] = true
			removed = append(removed, id)
		}
	}
	for _, id := range ids {
		mark(id)
		if spouse, ok := p.SpouseOf(id); ok && !p.IsProband(spouse.ID) {
			mark(spouse.ID)
		}
	}

	for _, id := range removed {
		delete(p.individuals, id)
	}
	p.order = slices.DeleteFunc(p.order, func(id string) bool { return doomed[id] })

	gone := func(id string) bool { return doomed[id] }
	for _, ind := range p.individuals {
		if doomed[ind.SpouseID] {
			ind.SpouseID = ""
			ind.Marriage = nil
		}
		if doomed[ind.TwinWith] {
			ind.TwinWith, ind.TwinType = "", ""
		}
		ind.ParentIDs = slices.DeleteFunc(ind.ParentIDs, gone)
		ind.ChildrenIDs = slices.DeleteFunc(ind.ChildrenIDs, gone)
	}
	return removed, nil
}

func (p *Pedigree) mustGet(id string) (*Individual, error) {
	ind, ok := p.Individual(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "individual %q not found", id)
	}
	return ind, nil
}

// couple returns id and its resolvable spouse, or SPOUSE_REQUIRED.
func (p *Pedigree) couple(id string) (*Individual, *Individual, error) {
	ind, err := p.mustGet(id)
	if err != nil {
		return nil, nil, err
	}
	spouse, ok := p.Individual(ind.SpouseID)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeSpouseRequired, "%s needs a spouse first", id)
	}
	return ind, spouse, nil
}

// singleOrCouple returns id and its spouse if any, checking that a child
// generation exists.
func (p *Pedigree) singleOrCouple(id string) (*Individual, *Individual, error) {
	ind, err := p.mustGet(id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkChildGeneration(ind); err != nil {
		return nil, nil, err
	}
	spouse, _ := p.Individual(ind.SpouseID)
	return ind, spouse, nil
}

func checkChildGeneration(ind *Individual) error {
	if ind.Generation >= MaxGeneration {
		return errors.New(errors.ErrCodeGenerationLimit, "%s is in generation %s; no generation below it", ind.ID, RomanGeneration(ind.Generation))
	}
	return nil
}

// attachChild links child to parent and, if non-nil, spouse, then inserts it.
func (p *Pedigree) attachChild(child, parent, spouse *Individual) {
	child.ParentIDs = []string{parent.ID}
	parent.ChildrenIDs = append(parent.ChildrenIDs, child.ID)
	if spouse != nil {
		child.ParentIDs = sortedPair(parent.ID, spouse.ID)
		spouse.ChildrenIDs = append(spouse.ChildrenIDs, child.ID)
	}
	p.add(child)
}

// marry links a and b as spouses and stores the marriage info on the
// member with the smaller ID.
func marry(a, b *Individual, status MarriageStatus) {
	a.SpouseID, b.SpouseID = b.ID, a.ID
	info := &MarriageInfo{Status: status}
	if a.ID < b.ID {
		a.Marriage, b.Marriage = info, nil
	} else {
		a.Marriage, b.Marriage = nil, info
	}
}

func sortedPair(a, b string) []string {
	if b < a {
		a, b = b, a
	}
	return []string{a, b}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
