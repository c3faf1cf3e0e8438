package document

import (
	"cmp"
	"slices"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Document is the persisted form of a pedigree.
type Document struct {
	Individuals        []Individual `json:"individuals" bson:"individuals"`
	ProbandID          *string      `json:"probandId" bson:"probandId"`
	InheritancePattern string       `json:"inheritancePattern" bson:"inheritancePattern"`
	CarrierFrequency   float64      `json:"carrierFrequency" bson:"carrierFrequency"`
}

// Individual is the persisted form of one individual.
type Individual struct {
	ID         string `json:"id" bson:"id"`
	Name       string `json:"name" bson:"name"`
	Gender     string `json:"gender" bson:"gender"`
	Generation int    `json:"generation" bson:"generation"`
	Position   int    `json:"position" bson:"position"`

	Affected   bool   `json:"affected" bson:"affected"`
	Carrier    bool   `json:"carrier" bson:"carrier"`
	TestResult string `json:"testResult" bson:"testResult"`

	SpouseID     string        `json:"spouseId,omitempty" bson:"spouseId,omitempty"`
	MarriageInfo *MarriageInfo `json:"marriageInfo,omitempty" bson:"marriageInfo,omitempty"`
	ParentIDs    []string      `json:"parentIds" bson:"parentIds"`
	ChildrenIDs  []string      `json:"childrenIds" bson:"childrenIds"`

	TwinWith string `json:"twinWith,omitempty" bson:"twinWith,omitempty"`
	TwinType string `json:"twinType,omitempty" bson:"twinType,omitempty"`

	IsAdopted        bool   `json:"isAdopted,omitempty" bson:"isAdopted,omitempty"`
	AdoptedDirection string `json:"adoptedDirection,omitempty" bson:"adoptedDirection,omitempty"`

	IsPregnancy     bool `json:"isPregnancy,omitempty" bson:"isPregnancy,omitempty"`
	IsPregnancyLoss bool `json:"isPregnancyLoss,omitempty" bson:"isPregnancyLoss,omitempty"`
	IsTermination   bool `json:"isTermination,omitempty" bson:"isTermination,omitempty"`

	NoOffspringInfo *NoOffspringInfo `json:"noOffspringInfo,omitempty" bson:"noOffspringInfo,omitempty"`

	Age        string `json:"age" bson:"age"`
	BirthYear  string `json:"birthYear" bson:"birthYear"`
	DeathYear  string `json:"deathYear" bson:"deathYear"`
	DeathAge   string `json:"deathAge" bson:"deathAge"`
	Deceased   bool   `json:"deceased" bson:"deceased"`
	Conditions string `json:"conditions" bson:"conditions"`
	Remarks    string `json:"remarks" bson:"remarks"`
	Locked     bool   `json:"locked,omitempty" bson:"locked,omitempty"`

	CalculatedRisks Risks    `json:"calculatedRisks" bson:"calculatedRisks"`
	X               *float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y               *float64 `json:"y,omitempty" bson:"y,omitempty"`
}

// MarriageInfo is stored on the couple member with the smaller ID.
// DoubleLine is derived from Status; it is accepted on read and
// recomputed on write.
type MarriageInfo struct {
	Status     string `json:"status" bson:"status"`
	DoubleLine bool   `json:"doubleLine" bson:"doubleLine"`
}

// NoOffspringInfo marks a couple without children.
type NoOffspringInfo struct {
	Type string `json:"type" bson:"type"`
}

// Risks maps risk kinds to percentages; nil means not applicable.
type Risks map[string]*float64

// RisksFrom converts a risk map to its persisted form.
func RisksFrom(m pedigree.RiskMap) Risks {
	out := make(Risks, len(m))
	for kind, v := range m {
		if pct, ok := v.Value(); ok {
			out[string(kind)] = &pct
		} else {
			out[string(kind)] = nil
		}
	}
	return out
}

// RiskMap converts persisted risks back, ignoring unknown kinds.
func (r Risks) RiskMap() pedigree.RiskMap {
	out := make(pedigree.RiskMap, len(r))
	for _, kind := range pedigree.RiskKinds {
		v, ok := r[string(kind)]
		switch {
		case !ok:
		case v == nil:
			out[kind] = pedigree.NotApplicable
		default:
			out[kind] = pedigree.Percent(*v)
		}
	}
	return out
}

// FromPedigree converts a pedigree to its persisted form. Individuals are
// ordered by generation, then position, then ID.
func FromPedigree(p *pedigree.Pedigree) Document {
	inds := p.Individuals()
	slices.SortStableFunc(inds, func(a, b *pedigree.Individual) int {
		return cmp.Or(
			cmp.Compare(a.Generation, b.Generation),
			cmp.Compare(a.Position, b.Position),
			cmp.Compare(a.ID, b.ID),
		)
	})

	doc := Document{
		Individuals:        make([]Individual, len(inds)),
		InheritancePattern: string(p.Pattern()),
		CarrierFrequency:   p.CarrierFrequency(),
	}
	if id := p.ProbandID(); id != "" {
		doc.ProbandID = &id
	}
	for i, ind := range inds {
		doc.Individuals[i] = individualFrom(ind)
	}
	return doc
}

// ToPedigree builds a new pedigree from a document.
func ToPedigree(doc Document) (*pedigree.Pedigree, error) {
	p := pedigree.New()
	if doc.InheritancePattern != "" {
		pattern, err := pedigree.ParsePattern(doc.InheritancePattern)
		if err != nil {
			return nil, invalid(err, "inheritancePattern")
		}
		_ = p.SetPattern(pattern)
	}
	if err := p.SetCarrierFrequency(doc.CarrierFrequency); err != nil {
		return nil, invalid(err, "carrierFrequency")
	}

	for i, wire := range doc.Individuals {
		ind, err := wire.toIndividual()
		if err != nil {
			return nil, invalid(err, "individuals[%d]", i)
		}
		if err := p.Insert(ind); err != nil {
			return nil, invalid(err, "individuals[%d]", i)
		}
	}
	if doc.ProbandID != nil {
		p.SetProbandRef(*doc.ProbandID)
	}
	return p, nil
}

func individualFrom(ind *pedigree.Individual) Individual {
	out := Individual{
		ID:          ind.ID,
		Name:        ind.Name,
		Gender:      string(ind.Gender),
		Generation:  ind.Generation,
		Position:    ind.Position,
		Affected:    ind.Affected,
		Carrier:     ind.Carrier,
		TestResult:  string(ind.TestResult),
		SpouseID:    ind.SpouseID,
		ParentIDs:   nonNil(ind.ParentIDs),
		ChildrenIDs: nonNil(ind.ChildrenIDs),
		TwinWith:    ind.TwinWith,
		TwinType:    string(ind.TwinType),
		Age:         ind.Age,
		BirthYear:   ind.BirthYear,
		DeathYear:   ind.DeathYear,
		DeathAge:    ind.DeathAge,
		Deceased:    ind.Deceased,
		Conditions:  ind.Conditions,
		Remarks:     ind.Remarks,
		Locked:      ind.Locked,

		CalculatedRisks: RisksFrom(ind.Risks),
	}
	if ind.Marriage != nil {
		out.MarriageInfo = &MarriageInfo{
			Status:     string(ind.Marriage.Status),
			DoubleLine: ind.Marriage.Status.DoubleLine(),
		}
	}
	if ind.IsAdopted() {
		out.IsAdopted = true
		out.AdoptedDirection = string(ind.Adoption)
	}
	switch ind.Marker {
	case pedigree.MarkerPregnancy:
		out.IsPregnancy = true
	case pedigree.MarkerPregnancyLoss:
		out.IsPregnancyLoss = true
	case pedigree.MarkerTermination:
		out.IsPregnancyLoss = true
		out.IsTermination = true
	}
	if ind.NoOffspring != pedigree.OffspringUnspecified {
		out.NoOffspringInfo = &NoOffspringInfo{Type: string(ind.NoOffspring)}
	}
	if ind.Placed {
		x, y := ind.X, ind.Y
		out.X, out.Y = &x, &y
	}
	return out
}

func (w Individual) toIndividual() (*pedigree.Individual, error) {
	if w.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing id")
	}
	gender, err := pedigree.ParseGender(w.Gender)
	if err != nil {
		return nil, err
	}
	test, err := pedigree.ParseTestResult(w.TestResult)
	if err != nil {
		return nil, err
	}

	ind := &pedigree.Individual{
		ID:          w.ID,
		Generation:  w.Generation,
		Position:    w.Position,
		Gender:      gender,
		Affected:    w.Affected,
		Carrier:     w.Carrier,
		TestResult:  test,
		SpouseID:    w.SpouseID,
		ParentIDs:   slices.Clone(w.ParentIDs),
		ChildrenIDs: slices.Clone(w.ChildrenIDs),
		TwinWith:    w.TwinWith,
		Name:        w.Name,
		Age:         w.Age,
		BirthYear:   w.BirthYear,
		DeathYear:   w.DeathYear,
		DeathAge:    w.DeathAge,
		Deceased:    w.Deceased,
		Conditions:  w.Conditions,
		Remarks:     w.Remarks,
		Locked:      w.Locked,
		Risks:       w.CalculatedRisks.RiskMap(),
	}
	if w.TwinType != "" {
		if ind.TwinType, err = pedigree.ParseTwinType(w.TwinType); err != nil {
			return nil, err
		}
	}
	if w.MarriageInfo != nil {
		status, err := pedigree.ParseMarriageStatus(w.MarriageInfo.Status)
		if err != nil {
			return nil, err
		}
		ind.Marriage = &pedigree.MarriageInfo{Status: status}
	}
	if w.IsAdopted || w.AdoptedDirection != "" {
		ind.Adoption = pedigree.AdoptedIn
		if w.AdoptedDirection != "" {
			if ind.Adoption, err = pedigree.ParseAdoption(w.AdoptedDirection); err != nil {
				return nil, err
			}
		}
	}
	switch {
	case w.IsTermination:
		ind.Marker = pedigree.MarkerTermination
	case w.IsPregnancyLoss:
		ind.Marker = pedigree.MarkerPregnancyLoss
	case w.IsPregnancy:
		ind.Marker = pedigree.MarkerPregnancy
	}
	if w.NoOffspringInfo != nil && w.NoOffspringInfo.Type != "" {
		if ind.NoOffspring, err = pedigree.ParseNoOffspring(w.NoOffspringInfo.Type); err != nil {
			return nil, err
		}
	}
	if w.X != nil && w.Y != nil {
		ind.X, ind.Y, ind.Placed = *w.X, *w.Y, true
	}
	return ind, nil
}

func invalid(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeInvalidDocument, err, format, args...)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
