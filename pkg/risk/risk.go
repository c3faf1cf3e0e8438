package risk

import (
	"math"

	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Conditional probabilities for a child of two heterozygous carriers who
// is not known to be affected.
const (
	TwoCarrierChildCarrier  = 66.7
	TwoCarrierChildAffected = 25.0
)

// HardyWeinberg returns the general-population carrier probability for a
// carrier frequency f: with q = sqrt(f), 2q(1-q).
func HardyWeinberg(f float64) float64 {
	q := math.Sqrt(f)
	return 2 * q * (1 - q)
}

// RisksFunc returns the risks already inferred for an individual.
type RisksFunc func(id string) (pedigree.RiskMap, bool)

// CalculateIndividualRisk infers the risk map of ind under pattern and
// carrier frequency freq. Relatives' known-carrier status reads their
// stored Risks, as left by the previous pass.
func CalculateIndividualRisk(p *pedigree.Pedigree, ind *pedigree.Individual, pattern pedigree.Pattern, freq float64) pedigree.RiskMap {
	inf := inferrer{p: p, pattern: pattern, freq: freq, risksOf: stored(p)}
	m := inf.own(ind)
	inf.offspring(ind, m)
	return m
}

// ComputeAll infers every individual's risk map using p's pattern and
// carrier frequency. It reads no previously stored risks: generations are
// processed top-down and each generation's own risks are settled before
// any offspring risk of that generation is derived.
func ComputeAll(p *pedigree.Pedigree) map[string]pedigree.RiskMap {
	out := make(map[string]pedigree.RiskMap, p.Len())
	inf := inferrer{
		p:       p,
		pattern: p.Pattern(),
		freq:    p.CarrierFrequency(),
		risksOf: func(id string) (pedigree.RiskMap, bool) {
			m, ok := out[id]
			return m, ok
		},
	}
	for _, gen := range p.Generations() {
		row := p.Generation(gen)
		for _, ind := range row {
			out[ind.ID] = inf.own(ind)
		}
		for _, ind := range row {
			inf.offspring(ind, out[ind.ID])
		}
	}
	return out
}

// Apply overwrites the stored risks of every individual in risks.
func Apply(p *pedigree.Pedigree, risks map[string]pedigree.RiskMap) {
	for _, ind := range p.Individuals() {
		if m, ok := risks[ind.ID]; ok {
			ind.Risks = m
		} else {
			ind.Risks = pedigree.RiskMap{}
		}
	}
}

func stored(p *pedigree.Pedigree) RisksFunc {
	return func(id string) (pedigree.RiskMap, bool) {
		ind, ok := p.Individual(id)
		if !ok {
			return nil, false
		}
		return ind.Risks, ind.Risks != nil
	}
}

type inferrer struct {
	p       *pedigree.Pedigree
	pattern pedigree.Pattern
	freq    float64
	risksOf RisksFunc
}

// own infers the individual's affected and carrier risks.
func (inf inferrer) own(ind *pedigree.Individual) pedigree.RiskMap {
	m := pedigree.RiskMap{}
	if ind.IsAdopted() {
		for _, k := range pedigree.RiskKinds {
			m[k] = pedigree.NotApplicable
		}
		return m
	}
	if inf.direct(ind, m) {
		return m
	}
	switch inf.pattern {
	case pedigree.AutosomalDominant:
		inf.autosomalDominant(ind, m)
	case pedigree.AutosomalRecessive:
		inf.autosomalRecessive(ind, m)
	case pedigree.XLinkedRecessive:
		inf.xLinkedRecessive(ind, m)
	case pedigree.XLinkedDominant:
		inf.xLinkedDominant(ind, m)
	}
	return m
}

// direct applies test results and phenotype flags. It reports whether
// they settled the individual's own risks.
func (inf inferrer) direct(ind *pedigree.Individual, m pedigree.RiskMap) bool {
	recessive := inf.pattern.Recessive()
	switch {
	case ind.TestResult == pedigree.TestPositive || ind.Affected:
		m[pedigree.RiskAffected] = pedigree.Percent(100)
		if recessive {
			m[pedigree.RiskCarrier] = pedigree.Percent(100)
		}
	case ind.TestResult == pedigree.TestNegative:
		m[pedigree.RiskAffected] = pedigree.Percent(0)
		if recessive {
			m[pedigree.RiskCarrier] = pedigree.Percent(0)
		}
	case recessive && (ind.TestResult == pedigree.TestCarrier || ind.Carrier):
		m[pedigree.RiskCarrier] = pedigree.Percent(100)
		m[pedigree.RiskAffected] = pedigree.Percent(0)
	default:
		return false
	}
	return true
}

func (inf inferrer) autosomalDominant(ind *pedigree.Individual, m pedigree.RiskMap) {
	for _, parent := range inf.p.ParentsOf(ind.ID) {
		if isAffected(parent) {
			m[pedigree.RiskAffected] = pedigree.Percent(50)
			return
		}
	}
}

func (inf inferrer) autosomalRecessive(ind *pedigree.Individual, m pedigree.RiskMap) {
	parents := inf.p.ParentsOf(ind.ID)
	anyAffected, allCarriers := false, len(parents) == 2
	for _, parent := range parents {
		anyAffected = anyAffected || isAffected(parent)
		allCarriers = allCarriers && inf.knownCarrier(parent)
	}
	switch {
	case anyAffected:
		m[pedigree.RiskCarrier] = pedigree.Percent(100)
	case allCarriers:
		m[pedigree.RiskCarrier] = pedigree.Percent(TwoCarrierChildCarrier)
		m[pedigree.RiskAffected] = pedigree.Percent(TwoCarrierChildAffected)
	default:
		m[pedigree.RiskCarrier] = pedigree.Percent(HardyWeinberg(inf.freq) * 100)
	}
}

func (inf inferrer) xLinkedRecessive(ind *pedigree.Individual, m pedigree.RiskMap) {
	mother, hasMother := inf.p.MotherOf(ind.ID)
	father, hasFather := inf.p.FatherOf(ind.ID)
	motherCarries := hasMother && (inf.knownCarrier(mother) || isAffected(mother))
	switch ind.Gender {
	case pedigree.Male:
		if motherCarries {
			m[pedigree.RiskAffected] = pedigree.Percent(50)
		}
	case pedigree.Female:
		switch {
		case hasFather && isAffected(father):
			m[pedigree.RiskCarrier] = pedigree.Percent(100)
		case motherCarries:
			m[pedigree.RiskCarrier] = pedigree.Percent(50)
		}
	}
}

func (inf inferrer) xLinkedDominant(ind *pedigree.Individual, m pedigree.RiskMap) {
	mother, hasMother := inf.p.MotherOf(ind.ID)
	father, hasFather := inf.p.FatherOf(ind.ID)
	motherAffected := hasMother && isAffected(mother)
	switch ind.Gender {
	case pedigree.Male:
		if motherAffected {
			m[pedigree.RiskAffected] = pedigree.Percent(50)
		}
	case pedigree.Female:
		switch {
		case hasFather && isAffected(father):
			m[pedigree.RiskAffected] = pedigree.Percent(100)
		case motherAffected:
			m[pedigree.RiskAffected] = pedigree.Percent(50)
		}
	}
}

// offspring adds offspring risks to m, the individual's own risks.
func (inf inferrer) offspring(ind *pedigree.Individual, m pedigree.RiskMap) {
	if ind.IsAdopted() {
		return
	}
	switch inf.pattern {
	case pedigree.AutosomalDominant:
		if v, ok := m.Get(pedigree.RiskAffected); ok && v == 100 {
			m[pedigree.RiskOffspringAffected] = pedigree.Percent(50)
		}
	case pedigree.AutosomalRecessive:
		if !knownCarrierWith(ind, m) {
			return
		}
		spouse, ok := inf.p.SpouseOf(ind.ID)
		if !ok {
			return
		}
		if inf.knownCarrier(spouse) {
			m[pedigree.RiskOffspringAffected] = pedigree.Percent(25)
			m[pedigree.RiskOffspringCarrier] = pedigree.Percent(50)
			return
		}
		m[pedigree.RiskOffspringAffected] = pedigree.Percent(HardyWeinberg(inf.freq) * 0.25 * 100)
	}
}

// knownCarrier evaluates the known-carrier predicate of a relative using
// the risks inferred so far.
func (inf inferrer) knownCarrier(ind *pedigree.Individual) bool {
	m, _ := inf.risksOf(ind.ID)
	return knownCarrierWith(ind, m)
}

func knownCarrierWith(ind *pedigree.Individual, m pedigree.RiskMap) bool {
	if ind.Carrier || ind.TestResult == pedigree.TestCarrier || ind.Affected {
		return true
	}
	v, ok := m.Get(pedigree.RiskCarrier)
	return ok && v == 100
}

func isAffected(ind *pedigree.Individual) bool {
	return ind.Affected || ind.TestResult == pedigree.TestPositive
}
