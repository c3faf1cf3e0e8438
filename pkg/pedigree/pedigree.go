package pedigree

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// Default settings of a new pedigree.
const (
	DefaultPattern          = AutosomalDominant
	DefaultCarrierFrequency = 0.01
)

// Individual is a node of the pedigree graph.
//
// Relationship fields hold IDs, never pointers. ParentIDs is kept sorted
// by every mutation. X, Y, Placed and Risks are derived: the layout and
// risk engines overwrite them and callers should not edit them by hand.
type Individual struct {
	ID         string
	Generation int // Row in [MinGeneration, MaxGeneration]
	Position   int // Tie-break order within the row

	Gender     Gender
	Affected   bool
	Carrier    bool // Explicitly known carrier, not inferred
	TestResult TestResult

	SpouseID    string
	Marriage    *MarriageInfo // Only on the couple member with the smaller ID
	ParentIDs   []string      // 0-2 entries, sorted ascending
	ChildrenIDs []string

	TwinWith string
	TwinType TwinType

	Adoption    Adoption
	Marker      Marker
	NoOffspring NoOffspring

	// Descriptive fields carried through persistence untouched.
	Name       string
	Age        string
	BirthYear  string
	DeathYear  string
	DeathAge   string
	Deceased   bool
	Conditions string
	Remarks    string

	// Locked individuals keep their position and coordinates like the proband.
	Locked bool

	Risks  RiskMap
	X, Y   float64
	Placed bool // X and Y hold a computed placement
}

// IsAdopted reports whether the individual was adopted in or out.
func (ind *Individual) IsAdopted() bool { return ind.Adoption != NotAdopted }

// SiblingKey returns the individual's sibling-group key.
func (ind *Individual) SiblingKey() string { return SiblingGroupKey(ind.ParentIDs) }

// clone returns a deep copy of the individual.
func (ind *Individual) clone() *Individual {
	c := *ind
	c.ParentIDs = slices.Clone(ind.ParentIDs)
	c.ChildrenIDs = slices.Clone(ind.ChildrenIDs)
	if ind.Marriage != nil {
		m := *ind.Marriage
		c.Marriage = &m
	}
	c.Risks = maps.Clone(ind.Risks)
	return &c
}

// Pedigree is the arena of individuals plus the global settings that risk
// inference reads.
//
// The zero value is not usable; use [New]. A Pedigree is not safe for
// concurrent use without external synchronization.
type Pedigree struct {
	individuals map[string]*Individual
	order       []string // insertion order, for deterministic iteration

	probandID        string
	pattern          Pattern
	carrierFrequency float64
}

// New creates an empty pedigree with the default pattern and frequency.
func New() *Pedigree {
	return &Pedigree{
		individuals:      make(map[string]*Individual),
		pattern:          DefaultPattern,
		carrierFrequency: DefaultCarrierFrequency,
	}
}

// Clone returns a deep copy. Mutating the copy never affects p.
func (p *Pedigree) Clone() *Pedigree {
	c := &Pedigree{
		individuals:      make(map[string]*Individual, len(p.individuals)),
		order:            slices.Clone(p.order),
		probandID:        p.probandID,
		pattern:          p.pattern,
		carrierFrequency: p.carrierFrequency,
	}
	for id, ind := range p.individuals {
		c.individuals[id] = ind.clone()
	}
	return c
}

// ProbandID returns the proband reference, or "" when none is set.
func (p *Pedigree) ProbandID() string { return p.probandID }

// Proband returns the proband individual, if it exists.
func (p *Pedigree) Proband() (*Individual, bool) { return p.Individual(p.probandID) }

// IsProband reports whether id is the current proband.
func (p *Pedigree) IsProband(id string) bool { return id != "" && id == p.probandID }

// Pattern returns the active inheritance pattern.
func (p *Pedigree) Pattern() Pattern { return p.pattern }

// CarrierFrequency returns the population carrier frequency.
func (p *Pedigree) CarrierFrequency() float64 { return p.carrierFrequency }

// SetPattern changes the inheritance pattern.
func (p *Pedigree) SetPattern(pattern Pattern) error {
	if _, err := ParsePattern(string(pattern)); err != nil {
		return err
	}
	p.pattern = pattern
	return nil
}

// SetCarrierFrequency changes the population carrier frequency.
func (p *Pedigree) SetCarrierFrequency(f float64) error {
	if err := errors.ValidateCarrierFrequency(f); err != nil {
		return err
	}
	p.carrierFrequency = f
	return nil
}

// SetProband makes id the proband.
func (p *Pedigree) SetProband(id string) error {
	if _, ok := p.individuals[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "individual %s not found", id)
	}
	p.probandID = id
	return nil
}

// Individual returns the individual with the given ID and true, or nil and
// false if it does not exist. The pointer refers to the stored record.
func (p *Pedigree) Individual(id string) (*Individual, bool) {
	if id == "" {
		return nil, false
	}
	ind, ok := p.individuals[id]
	return ind, ok
}

// Individuals returns every individual in insertion order.
func (p *Pedigree) Individuals() []*Individual {
	out := make([]*Individual, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.individuals[id])
	}
	return out
}

// Len returns the number of individuals.
func (p *Pedigree) Len() int { return len(p.individuals) }

// Generation returns the individuals of one row ordered by position, ties
// broken by insertion order.
func (p *Pedigree) Generation(gen int) []*Individual {
	var row []*Individual
	for _, id := range p.order {
		if ind := p.individuals[id]; ind.Generation == gen {
			row = append(row, ind)
		}
	}
	slices.SortStableFunc(row, func(a, b *Individual) int { return cmp.Compare(a.Position, b.Position) })
	return row
}

// Generations returns the distinct generation numbers in use, ascending.
func (p *Pedigree) Generations() []int {
	seen := make(map[int]bool)
	var gens []int
	for _, ind := range p.individuals {
		if !seen[ind.Generation] {
			seen[ind.Generation] = true
			gens = append(gens, ind.Generation)
		}
	}
	slices.Sort(gens)
	return gens
}

// Insert adds a fully formed individual, as when decoding a stored
// document. It validates only ID uniqueness; references are taken as-is
// and checked by [Pedigree.Validate]. ParentIDs are sorted on insert.
func (p *Pedigree) Insert(ind *Individual) error {
	if ind.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "individual ID must not be empty")
	}
	if _, exists := p.individuals[ind.ID]; exists {
		return errors.New(errors.ErrCodeDuplicateID, "duplicate individual ID %s", ind.ID)
	}
	slices.Sort(ind.ParentIDs)
	if ind.Risks == nil {
		ind.Risks = RiskMap{}
	}
	p.individuals[ind.ID] = ind
	p.order = append(p.order, ind.ID)
	return nil
}

// SetProbandRef sets the proband reference without checking that it
// resolves. Decoders use it so that Validate can report a missing proband.
func (p *Pedigree) SetProbandRef(id string) { p.probandID = id }

// maxPosition returns the largest position used in gen, or 0.
func (p *Pedigree) maxPosition(gen int) int {
	m := 0
	for _, ind := range p.individuals {
		if ind.Generation == gen && ind.Position > m {
			m = ind.Position
		}
	}
	return m
}

// nextID returns the canonical ID for (gen, pos), bumping the numeric
// suffix past any ID already taken. IDs are never renamed after renumbering,
// so a canonical ID can collide with an older individual.
func (p *Pedigree) nextID(gen, pos int, reserved ...string) string {
	for n := pos; ; n++ {
		id := FormatID(gen, n)
		if _, taken := p.individuals[id]; !taken && !slices.Contains(reserved, id) {
			return id
		}
	}
}

// newIndividual builds (but does not insert) an individual in gen at pos.
// A zero pos means "after the current last position of the row".
func (p *Pedigree) newIndividual(person Person, gen, pos int, reserved ...string) *Individual {
	if pos == 0 {
		pos = p.maxPosition(gen) + 1
	}
	gender := person.Gender
	if gender == "" {
		gender = Unknown
	}
	return &Individual{
		ID:         p.nextID(gen, pos, reserved...),
		Generation: gen,
		Position:   pos,
		Gender:     gender,
		Affected:   person.Affected,
		Name:       person.Name,
		Remarks:    person.Remarks,
		Risks:      RiskMap{},
	}
}

// add inserts an individual built by newIndividual.
func (p *Pedigree) add(ind *Individual) {
	p.individuals[ind.ID] = ind
	p.order = append(p.order, ind.ID)
}
