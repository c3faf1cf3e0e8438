package pedigree

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// Generation bounds. Row coordinates exist for exactly these five rows.
const (
	MinGeneration = 1
	MaxGeneration = 5
)

// Gender drives X-linked risk math and the symbol shape of renderers.
type Gender string

const (
	Male    Gender = "male"
	Female  Gender = "female"
	Unknown Gender = "unknown"
)

// Opposite returns the partner gender assigned to a new spouse or second
// parent. Unknown stays unknown.
func (g Gender) Opposite() Gender {
	switch g {
	case Male:
		return Female
	case Female:
		return Male
	}
	return Unknown
}

// ParseGender parses a gender name. The empty string parses as Unknown.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case Male, Female, Unknown:
		return Gender(s), nil
	case "":
		return Unknown, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown gender %q (want male, female or unknown)", s)
}

// TestResult is a genetic test outcome. It overrides inferred risk.
type TestResult string

const (
	TestNone     TestResult = ""
	TestPositive TestResult = "positive"
	TestNegative TestResult = "negative"
	TestCarrier  TestResult = "carrier"
)

// ParseTestResult parses a test result name; "none" and "" mean no test.
func ParseTestResult(s string) (TestResult, error) {
	switch TestResult(s) {
	case TestNone, TestPositive, TestNegative, TestCarrier:
		return TestResult(s), nil
	case "none":
		return TestNone, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown test result %q", s)
}

// MarriageStatus describes a couple's relationship line.
type MarriageStatus string

const (
	Married       MarriageStatus = "married"
	Divorced      MarriageStatus = "divorced"
	Separated     MarriageStatus = "separated"
	Consanguinity MarriageStatus = "consanguinity"
)

// ParseMarriageStatus parses a status name. The empty string means Married.
func ParseMarriageStatus(s string) (MarriageStatus, error) {
	switch MarriageStatus(s) {
	case Married, Divorced, Separated, Consanguinity:
		return MarriageStatus(s), nil
	case "":
		return Married, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown marriage status %q", s)
}

// DoubleLine reports whether the marriage line is drawn doubled.
// It is derived from the status and never stored independently.
func (s MarriageStatus) DoubleLine() bool {
	return s == Divorced || s == Consanguinity
}

// MarriageInfo is stored on exactly one member of a couple: the one whose
// ID sorts first.
type MarriageInfo struct {
	Status MarriageStatus
}

// TwinType distinguishes monozygotic from dizygotic twins.
type TwinType string

const (
	Identical TwinType = "identical"
	Fraternal TwinType = "fraternal"
)

// ParseTwinType parses a twin type name.
func ParseTwinType(s string) (TwinType, error) {
	switch TwinType(s) {
	case Identical, Fraternal:
		return TwinType(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown twin type %q (want identical or fraternal)", s)
}

// Adoption records whether and in which direction an individual was
// adopted. The zero value means biological.
type Adoption string

const (
	NotAdopted Adoption = ""
	AdoptedIn  Adoption = "in"
	AdoptedOut Adoption = "out"
)

// ParseAdoption parses an adoption direction; "" and "none" mean biological.
func ParseAdoption(s string) (Adoption, error) {
	switch Adoption(s) {
	case NotAdopted, AdoptedIn, AdoptedOut:
		return Adoption(s), nil
	case "none":
		return NotAdopted, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown adoption direction %q (want in or out)", s)
}

// Marker is the special-case kind of an individual. At most one applies,
// so the legacy isPregnancy/isPregnancyLoss/isTermination flags collapse
// into this single field.
type Marker string

const (
	MarkerNone          Marker = ""
	MarkerPregnancy     Marker = "pregnancy"
	MarkerPregnancyLoss Marker = "pregnancy_loss"
	MarkerTermination   Marker = "termination"
)

// IsLoss reports whether the marker is a miscarriage or a termination.
func (m Marker) IsLoss() bool {
	return m == MarkerPregnancyLoss || m == MarkerTermination
}

// String returns "none" for the zero marker.
func (m Marker) String() string {
	if m == MarkerNone {
		return "none"
	}
	return string(m)
}

// NoOffspring marks a couple without children. It is stored on both
// partners.
type NoOffspring string

const (
	OffspringUnspecified NoOffspring = ""
	OffspringByChoice    NoOffspring = "no_offspring"
	OffspringInfertility NoOffspring = "infertility"
)

// ParseNoOffspring parses a no-offspring kind.
func ParseNoOffspring(s string) (NoOffspring, error) {
	switch NoOffspring(s) {
	case OffspringByChoice, OffspringInfertility:
		return NoOffspring(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown no-offspring kind %q (want no_offspring or infertility)", s)
}

// Pattern is the inheritance model used by risk inference.
type Pattern string

const (
	AutosomalDominant  Pattern = "autosomal_dominant"
	AutosomalRecessive Pattern = "autosomal_recessive"
	XLinkedRecessive   Pattern = "x_linked_recessive"
	XLinkedDominant    Pattern = "x_linked_dominant"
)

// Patterns lists every supported inheritance pattern.
var Patterns = []Pattern{AutosomalDominant, AutosomalRecessive, XLinkedRecessive, XLinkedDominant}

// ParsePattern parses an inheritance pattern name.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown inheritance pattern %q", s)
}

// Recessive reports whether carrier status is meaningful for the pattern.
func (p Pattern) Recessive() bool {
	return p == AutosomalRecessive || p == XLinkedRecessive
}

// Title returns a human-readable name such as "Autosomal Dominant".
func (p Pattern) Title() string {
	switch p {
	case AutosomalDominant:
		return "Autosomal Dominant"
	case AutosomalRecessive:
		return "Autosomal Recessive"
	case XLinkedRecessive:
		return "X-Linked Recessive"
	case XLinkedDominant:
		return "X-Linked Dominant"
	}
	return string(p)
}

// RiskKind names one entry of a [RiskMap].
type RiskKind string

const (
	RiskAffected          RiskKind = "affected"
	RiskCarrier           RiskKind = "carrier"
	RiskOffspringAffected RiskKind = "offspring_affected"
	RiskOffspringCarrier  RiskKind = "offspring_carrier"
)

// RiskKinds lists every risk kind in report order.
var RiskKinds = []RiskKind{RiskCarrier, RiskAffected, RiskOffspringAffected, RiskOffspringCarrier}

// Label returns the report label for the kind, e.g. "Offspring Carrier Risk".
func (k RiskKind) Label() string {
	switch k {
	case RiskAffected:
		return "Affected Risk"
	case RiskCarrier:
		return "Carrier Risk"
	case RiskOffspringAffected:
		return "Offspring Affected Risk"
	case RiskOffspringCarrier:
		return "Offspring Carrier Risk"
	}
	return string(k)
}

// RiskValue is either a percentage in [0, 100] or "not applicable".
// The zero value is not applicable.
type RiskValue struct {
	percent    float64
	applicable bool
}

// NotApplicable marks a risk that cannot be inferred, as for adopted
// individuals. It is distinct from Percent(0).
var NotApplicable = RiskValue{}

// Percent returns an applicable risk value.
func Percent(v float64) RiskValue {
	return RiskValue{percent: v, applicable: true}
}

// Value returns the percentage and whether the value is applicable.
func (v RiskValue) Value() (float64, bool) { return v.percent, v.applicable }

// Applicable reports whether the value carries a percentage.
func (v RiskValue) Applicable() bool { return v.applicable }

// String formats the value as "50.0%" or "n/a".
func (v RiskValue) String() string {
	if !v.applicable {
		return "n/a"
	}
	return strconv.FormatFloat(v.percent, 'f', 1, 64) + "%"
}

// RiskMap maps risk kinds to values. Absent keys mean "not computed".
type RiskMap map[RiskKind]RiskValue

// Get returns the percentage for kind and whether it is present and
// applicable.
func (m RiskMap) Get(kind RiskKind) (float64, bool) {
	v, ok := m[kind]
	if !ok {
		return 0, false
	}
	return v.Value()
}

// Person holds the caller-supplied details of a new individual.
type Person struct {
	Name     string
	Gender   Gender
	Affected bool
	Remarks  string
}

// RomanGeneration returns the Roman numeral for a generation (1 → "I").
// Generations outside the supported range are formatted in decimal.
func RomanGeneration(gen int) string {
	numerals := [...]string{"I", "II", "III", "IV", "V"}
	if gen < MinGeneration || gen > MaxGeneration {
		return strconv.Itoa(gen)
	}
	return numerals[gen-1]
}

// FormatID returns the canonical ID for a generation and position.
func FormatID(gen, pos int) string {
	return fmt.Sprintf("%s-%d", RomanGeneration(gen), pos)
}
