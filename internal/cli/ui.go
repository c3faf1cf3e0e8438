package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/risk"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, low risk
	colorYellow = lipgloss.Color("220") // Amber - warnings, medium risk
	colorRed    = lipgloss.Color("167") // Soft red - errors, high risk
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// riskStyles colours a risk by its [risk.Level].
var riskStyles = map[risk.Level]lipgloss.Style{
	risk.LevelNone:   lipgloss.NewStyle().Foreground(colorDim),
	risk.LevelLow:    lipgloss.NewStyle().Foreground(colorGreen),
	risk.LevelMedium: lipgloss.NewStyle().Foreground(colorYellow),
	risk.LevelHigh:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func (c *CLI) printSuccess(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printInfo(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func (c *CLI) printDetail(format string, args ...any) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func (c *CLI) printFile(path string) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func (c *CLI) printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(c.Out, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints the individual count and cache status on one line.
func (c *CLI) printStats(individuals int, cached bool) {
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(plural(individuals, "individual"))+
		StyleDim.Render(" · ")+statusStyle.Render(status))
}

// printNextStep prints a suggested next command.
func (c *CLI) printNextStep(description, cmd string) {
	fmt.Fprintln(c.Out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Pedigree Formatting
// =============================================================================

// formatRisk renders one risk value coloured by its level.
func formatRisk(v pedigree.RiskValue) string {
	return riskStyles[risk.ClassOf(v)].Render(v.String())
}

// status describes an individual's phenotype the way the report does.
func status(ind *pedigree.Individual) string {
	switch {
	case ind.Affected:
		return "affected"
	case ind.Carrier:
		return "carrier"
	}
	return "normal"
}

// label is "ID name", or just the ID for unnamed individuals.
func label(ind *pedigree.Individual) string {
	if ind.Name == "" {
		return ind.ID
	}
	return ind.ID + " " + ind.Name
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// symbol returns a one-rune chart symbol for an individual.
func symbol(ind *pedigree.Individual) string {
	if ind.Marker.IsLoss() {
		return "▲"
	}
	var s string
	switch ind.Gender {
	case pedigree.Male:
		s = "□"
		if ind.Affected {
			s = "■"
		}
	case pedigree.Female:
		s = "○"
		if ind.Affected {
			s = "●"
		}
	default:
		s = "◇"
		if ind.Affected {
			s = "◆"
		}
	}
	return s
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
