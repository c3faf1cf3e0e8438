// Package ops turns serializable mutation requests into pedigree edits.
//
// An [Operation] names a kind, a target individual and kind-specific
// parameters. [Apply] validates and dispatches it to the matching
// [pedigree.Pedigree] method; rejected operations leave the pedigree
// unchanged and return a coded error.
//
//	[
//	  {"kind": "add_proband", "params": {"person": {"name": "Ada", "gender": "female"}}},
//	  {"kind": "add_parents", "target": "III-1", "params": {"first": {"affected": true}}},
//	  {"kind": "set_pattern", "params": {"pattern": "autosomal_recessive"}}
//	]
package ops

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Kind names an operation.
type Kind string

const (
	AddProband          Kind = "add_proband"
	AddParents          Kind = "add_parents"
	AddSpouse           Kind = "add_spouse"
	AddChild            Kind = "add_child"
	AddSibling          Kind = "add_sibling"
	AddTwins            Kind = "add_twins"
	AddPregnancy        Kind = "add_pregnancy"
	AddPregnancyLoss    Kind = "add_pregnancy_loss"
	SetNoOffspring      Kind = "set_no_offspring"
	SetMarriageStatus   Kind = "set_marriage_status"
	UpdateIndividual    Kind = "update_individual"
	SetProband          Kind = "set_proband"
	Delete              Kind = "delete"
	SetPattern          Kind = "set_pattern"
	SetCarrierFrequency Kind = "set_carrier_frequency"
)

// Kinds lists every operation kind.
var Kinds = []Kind{
	AddProband, AddParents, AddSpouse, AddChild, AddSibling, AddTwins,
	AddPregnancy, AddPregnancyLoss, SetNoOffspring, SetMarriageStatus,
	UpdateIndividual, SetProband, Delete, SetPattern, SetCarrierFrequency,
}

// Structural reports whether the kind can change who is in the pedigree
// or how they are connected, and therefore the layout.
func (k Kind) Structural() bool {
	switch k {
	case UpdateIndividual, SetProband, SetPattern, SetCarrierFrequency:
		return false
	}
	return true
}

// Operation is one mutation request.
type Operation struct {
	Kind    Kind     `json:"kind"`
	Target  string   `json:"target,omitempty"`
	Targets []string `json:"targets,omitempty"` // delete only
	Params  Params   `json:"params,omitzero"`
}

// Person describes a new individual.
type Person struct {
	Name     string `json:"name,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Affected bool   `json:"affected,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}

// Params holds the parameters of every kind; each kind reads only its own.
type Params struct {
	Person      *Person  `json:"person,omitempty"`      // add_proband, add_spouse, add_child, add_sibling
	First       *Person  `json:"first,omitempty"`       // add_parents, add_twins
	Second      *Person  `json:"second,omitempty"`      // add_parents, add_twins
	Marriage    string   `json:"marriage,omitempty"`    // add_parents, add_spouse, set_marriage_status
	Adoption    string   `json:"adoption,omitempty"`    // add_child, add_sibling
	TwinType    string   `json:"twinType,omitempty"`    // add_twins
	Gender      string   `json:"gender,omitempty"`      // add_pregnancy
	Termination bool     `json:"termination,omitempty"` // add_pregnancy_loss
	NoOffspring string   `json:"noOffspring,omitempty"` // set_no_offspring; "" clears
	Patch       *Patch   `json:"patch,omitempty"`       // update_individual
	Pattern     string   `json:"pattern,omitempty"`     // set_pattern
	Frequency   *float64 `json:"frequency,omitempty"`   // set_carrier_frequency
}

// Patch is the wire form of [pedigree.Patch].
type Patch struct {
	Name       *string `json:"name,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	Affected   *bool   `json:"affected,omitempty"`
	Carrier    *bool   `json:"carrier,omitempty"`
	TestResult *string `json:"testResult,omitempty"`
	Adoption   *string `json:"adoption,omitempty"`
	Age        *string `json:"age,omitempty"`
	BirthYear  *string `json:"birthYear,omitempty"`
	DeathYear  *string `json:"deathYear,omitempty"`
	DeathAge   *string `json:"deathAge,omitempty"`
	Deceased   *bool   `json:"deceased,omitempty"`
	Conditions *string `json:"conditions,omitempty"`
	Remarks    *string `json:"remarks,omitempty"`
	Locked     *bool   `json:"locked,omitempty"`
}

// Result reports the individuals an operation created or removed.
type Result struct {
	Created []string `json:"created,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Decode reads a single operation object or an array of operations.
func Decode(r io.Reader) ([]Operation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read operations")
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []Operation
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode operations")
		}
		return list, nil
	}
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode operation")
	}
	return []Operation{op}, nil
}

// Validate checks that the operation names a known kind and carries the
// target it needs. Parameter values are checked by [Apply].
func (op Operation) Validate() error {
	switch op.Kind {
	case AddProband, SetPattern, SetCarrierFrequency:
		return nil
	case Delete:
		if op.Target == "" && len(op.Targets) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "delete needs target or targets")
		}
		return nil
	case "":
		return errors.New(errors.ErrCodeInvalidOperation, "operation kind is required")
	}
	for _, k := range Kinds {
		if k == op.Kind {
			if op.Target == "" {
				return errors.New(errors.ErrCodeInvalidInput, "%s needs a target individual", op.Kind)
			}
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidOperation, "unknown operation kind %q", op.Kind)
}

// Apply performs op on p.
func Apply(p *pedigree.Pedigree, op Operation) (Result, error) {
	if err := op.Validate(); err != nil {
		return Result{}, err
	}
	prm := op.Params

	switch op.Kind {
	case AddProband:
		person, err := prm.Person.convert()
		if err != nil {
			return Result{}, err
		}
		return created(p.AddProband(person))

	case AddParents:
		first, err := prm.First.convert()
		if err != nil {
			return Result{}, err
		}
		second, err := prm.Second.convert()
		if err != nil {
			return Result{}, err
		}
		return createdMany(p.AddParents(op.Target, first, second, pedigree.MarriageStatus(prm.Marriage)))

	case AddSpouse:
		person, err := prm.Person.convert()
		if err != nil {
			return Result{}, err
		}
		return created(p.AddSpouse(op.Target, person, pedigree.MarriageStatus(prm.Marriage)))

	case AddChild, AddSibling:
		person, err := prm.Person.convert()
		if err != nil {
			return Result{}, err
		}
		adoption, err := pedigree.ParseAdoption(prm.Adoption)
		if err != nil {
			return Result{}, err
		}
		if op.Kind == AddChild {
			return created(p.AddChild(op.Target, person, adoption))
		}
		return created(p.AddSibling(op.Target, person, adoption))

	case AddTwins:
		twinType, err := pedigree.ParseTwinType(prm.TwinType)
		if err != nil {
			return Result{}, err
		}
		first, err := prm.First.convert()
		if err != nil {
			return Result{}, err
		}
		second, err := prm.Second.convert()
		if err != nil {
			return Result{}, err
		}
		return createdMany(p.AddTwins(op.Target, twinType, first, second))

	case AddPregnancy:
		gender, err := pedigree.ParseGender(prm.Gender)
		if err != nil {
			return Result{}, err
		}
		return created(p.AddPregnancy(op.Target, gender))

	case AddPregnancyLoss:
		return created(p.AddPregnancyLoss(op.Target, prm.Termination))

	case SetNoOffspring:
		kind := pedigree.OffspringUnspecified
		if prm.NoOffspring != "" {
			var err error
			if kind, err = pedigree.ParseNoOffspring(prm.NoOffspring); err != nil {
				return Result{}, err
			}
		}
		return Result{}, p.SetNoOffspring(op.Target, kind)

	case SetMarriageStatus:
		return Result{}, p.SetMarriageStatus(op.Target, pedigree.MarriageStatus(prm.Marriage))

	case UpdateIndividual:
		if prm.Patch == nil {
			return Result{}, errors.New(errors.ErrCodeInvalidInput, "update_individual needs a patch")
		}
		return Result{}, p.UpdateIndividual(op.Target, prm.Patch.convert())

	case SetProband:
		return Result{}, p.SetProband(op.Target)

	case Delete:
		ids := op.Targets
		if op.Target != "" {
			ids = append([]string{op.Target}, ids...)
		}
		removed, err := p.DeleteMany(ids)
		return Result{Removed: removed}, err

	case SetPattern:
		pattern, err := pedigree.ParsePattern(prm.Pattern)
		if err != nil {
			return Result{}, err
		}
		return Result{}, p.SetPattern(pattern)

	case SetCarrierFrequency:
		if prm.Frequency == nil {
			return Result{}, errors.New(errors.ErrCodeInvalidInput, "set_carrier_frequency needs a frequency")
		}
		return Result{}, p.SetCarrierFrequency(*prm.Frequency)
	}
	return Result{}, errors.New(errors.ErrCodeInvalidOperation, "unknown operation kind %q", op.Kind)
}

// ApplyAll applies ops in order and stops at the first rejection. Callers
// wanting all-or-nothing semantics apply to a [pedigree.Pedigree.Clone].
func ApplyAll(p *pedigree.Pedigree, ops []Operation) (Result, error) {
	var total Result
	for i, op := range ops {
		res, err := Apply(p, op)
		total.Created = append(total.Created, res.Created...)
		total.Removed = append(total.Removed, res.Removed...)
		if err != nil {
			return total, errors.Wrap(errors.GetCode(err), err, "operation %d (%s)", i, op.Kind)
		}
	}
	return total, nil
}

func (ps *Person) convert() (pedigree.Person, error) {
	if ps == nil {
		return pedigree.Person{}, nil
	}
	out := pedigree.Person{Name: ps.Name, Affected: ps.Affected, Remarks: ps.Remarks}
	if ps.Gender != "" {
		g, err := pedigree.ParseGender(ps.Gender)
		if err != nil {
			return pedigree.Person{}, err
		}
		out.Gender = g
	}
	return out, nil
}

func (pt *Patch) convert() pedigree.Patch {
	return pedigree.Patch{
		Name:       pt.Name,
		Gender:     (*pedigree.Gender)(pt.Gender),
		Affected:   pt.Affected,
		Carrier:    pt.Carrier,
		TestResult: (*pedigree.TestResult)(pt.TestResult),
		Adoption:   (*pedigree.Adoption)(pt.Adoption),
		Age:        pt.Age,
		BirthYear:  pt.BirthYear,
		DeathYear:  pt.DeathYear,
		DeathAge:   pt.DeathAge,
		Deceased:   pt.Deceased,
		Conditions: pt.Conditions,
		Remarks:    pt.Remarks,
		Locked:     pt.Locked,
	}
}

func created(ind *pedigree.Individual, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Created: []string{ind.ID}}, nil
}

func createdMany(inds []*pedigree.Individual, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	ids := make([]string, len(inds))
	for i, ind := range inds {
		ids[i] = ind.ID
	}
	return Result{Created: ids}, nil
}
