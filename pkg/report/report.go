// Package report writes the plain-text genetic risk assessment report.
package report

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// DateFormat is the layout of the "Generated on" line.
const DateFormat = "2006-01-02"

// Recommendations close every report.
var Recommendations = []string{
	"Genetic counseling recommended for all at-risk individuals",
	"Consider genetic testing for carriers and at-risk family members",
	"Regular medical surveillance for affected individuals",
	"Family planning counseling for reproductive-age individuals",
}

// Write writes the report for p, dated date. Individuals appear in
// generation and position order; risks print from the stored risk maps,
// so run risk inference first.
func Write(w io.Writer, p *pedigree.Pedigree, date time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "GENETIC RISK ASSESSMENT REPORT")
	fmt.Fprintf(bw, "Generated on: %s\n", date.Format(DateFormat))
	fmt.Fprintf(bw, "Inheritance Pattern: %s\n", strings.ToUpper(p.Pattern().Title()))
	fmt.Fprintf(bw, "Population Carrier Frequency: %s\n", strconv.FormatFloat(p.CarrierFrequency(), 'f', -1, 64))
	name, id := "Unknown", p.ProbandID()
	if proband, ok := p.Proband(); ok && proband.Name != "" {
		name = proband.Name
	}
	if id == "" {
		id = "none"
	}
	fmt.Fprintf(bw, "Proband: %s (%s)\n\n", name, id)

	fmt.Fprintln(bw, "INDIVIDUAL RISK ASSESSMENTS:")
	fmt.Fprintf(bw, "%s\n\n", strings.Repeat("=", 50))

	for _, ind := range ordered(p) {
		writeIndividual(bw, ind)
	}

	fmt.Fprintln(bw, "\nRECOMMENDATIONS:")
	fmt.Fprintln(bw, strings.Repeat("=", 20))
	for _, rec := range Recommendations {
		fmt.Fprintf(bw, "- %s\n", rec)
	}
	return bw.Flush()
}

// String returns the report as a string.
func String(p *pedigree.Pedigree, date time.Time) string {
	var sb strings.Builder
	_ = Write(&sb, p, date)
	return sb.String()
}

func writeIndividual(w io.Writer, ind *pedigree.Individual) {
	name := ind.Name
	if name == "" {
		name = "Unnamed"
	}
	fmt.Fprintf(w, "%s (%s)\n", name, ind.ID)
	fmt.Fprintf(w, "Generation: %s\n", pedigree.RomanGeneration(ind.Generation))
	fmt.Fprintf(w, "Gender: %s\n", capitalize(string(ind.Gender)))
	fmt.Fprintf(w, "Status: %s\n", status(ind))
	if ind.TestResult != pedigree.TestNone {
		fmt.Fprintf(w, "Genetic Test: %s\n", ind.TestResult)
	}

	var lines []string
	for _, kind := range pedigree.RiskKinds {
		if v, ok := ind.Risks.Get(kind); ok && v > 0 {
			lines = append(lines, fmt.Sprintf("  - %s: %s%%", kind.Label(), FormatPercent(v)))
		}
	}
	if len(lines) > 0 {
		fmt.Fprintln(w, "Calculated Risks:")
		fmt.Fprintln(w, strings.Join(lines, "\n"))
	}

	if ind.Conditions != "" {
		fmt.Fprintf(w, "Medical Conditions: %s\n", ind.Conditions)
	}
	fmt.Fprintln(w)
}

func status(ind *pedigree.Individual) string {
	switch {
	case ind.Affected:
		return "Affected"
	case ind.Carrier:
		return "Carrier"
	}
	return "Normal"
}

// FormatPercent prints v rounded to two decimals without trailing zeros.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ordered returns individuals by generation, position and ID.
func ordered(p *pedigree.Pedigree) []*pedigree.Individual {
	inds := p.Individuals()
	slices.SortStableFunc(inds, func(a, b *pedigree.Individual) int {
		return cmp.Or(
			cmp.Compare(a.Generation, b.Generation),
			cmp.Compare(a.Position, b.Position),
			strings.Compare(a.ID, b.ID),
		)
	})
	return inds
}
