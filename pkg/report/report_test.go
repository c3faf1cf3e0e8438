package report

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pedigree/pkg/pedigree"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{66.7, "66.7"},
		{1.9799999, "1.98"},
		{25, "25"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	got := String(pedigree.New(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	for _, want := range []string{
		"Generated on: 2024-01-02\n",
		"Proband: Unknown (none)\n",
		"RECOMMENDATIONS:\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestWriteIndividualDetails(t *testing.T) {
	p := pedigree.New()
	if _, err := p.AddProband(pedigree.Person{Gender: pedigree.Male}); err != nil {
		t.Fatal(err)
	}
	ind, _ := p.Individual("III-1")
	ind.Carrier = true
	ind.TestResult = pedigree.TestCarrier
	ind.Conditions = "asthma"
	ind.Risks = pedigree.RiskMap{
		pedigree.RiskCarrier:  pedigree.Percent(100),
		pedigree.RiskAffected: pedigree.Percent(0),
	}

	got := String(p, time.Now())
	for _, want := range []string{
		"Unnamed (III-1)\n",
		"Status: Carrier\n",
		"Genetic Test: carrier\n",
		"  - Carrier Risk: 100%\n",
		"Medical Conditions: asthma\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Affected Risk") {
		t.Error("zero risks should be omitted")
	}
}
