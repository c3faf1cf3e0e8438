package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1).
				MarginLeft(2)
)

// browseCommand creates the "browse" command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse individuals, their relatives and risks interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ws.Close()

			m := NewBrowseModel(ws.session.Snapshot())
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithOutput(c.Out)).Run()
			return err
		},
	}
}

// =============================================================================
// BrowseModel - Interactive individual browser
// =============================================================================

// BrowseModel is the bubbletea model for `pedigree browse`: a list of
// individuals in chart order beside the details of the selected one.
// Enter jumps to the selected individual's spouse, p to a parent and c to
// a child.
type BrowseModel struct {
	Pedigree *pedigree.Pedigree
	Order    []*pedigree.Individual
	Cursor   int
	Height   int
	Offset   int
}

// NewBrowseModel lists p's individuals by generation and position.
func NewBrowseModel(p *pedigree.Pedigree) BrowseModel {
	var order []*pedigree.Individual
	for _, gen := range p.Generations() {
		order = append(order, p.Generation(gen)...)
	}
	return BrowseModel{Pedigree: p, Order: order, Height: 15}
}

// Selected returns the individual under the cursor.
func (m BrowseModel) Selected() (*pedigree.Individual, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Order) {
		return nil, false
	}
	return m.Order[m.Cursor], true
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m = m.moveTo(m.Cursor - 1)
		case "down", "j":
			m = m.moveTo(m.Cursor + 1)
		case "enter", "s":
			if ind, ok := m.Selected(); ok {
				m = m.jumpTo(ind.SpouseID)
			}
		case "p":
			if ind, ok := m.Selected(); ok && len(ind.ParentIDs) > 0 {
				m = m.jumpTo(ind.ParentIDs[0])
			}
		case "c":
			if ind, ok := m.Selected(); ok && len(ind.ChildrenIDs) > 0 {
				m = m.jumpTo(ind.ChildrenIDs[0])
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		m = m.moveTo(m.Cursor)
	}
	return m, nil
}

func (m BrowseModel) moveTo(i int) BrowseModel {
	if i < 0 || i >= len(m.Order) {
		return m
	}
	m.Cursor = i
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m
}

func (m BrowseModel) jumpTo(id string) BrowseModel {
	for i, ind := range m.Order {
		if ind.ID == id {
			return m.moveTo(i)
		}
	}
	return m
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pedigree"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · %s",
		m.Pedigree.Pattern().Title(), plural(len(m.Order), "individual"))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ spouse  p parent  c child  q quit"))
	b.WriteString("\n\n")

	if len(m.Order) == 0 {
		b.WriteString(listDimStyle.Render("  (empty)"))
		return b.String()
	}

	var list strings.Builder
	end := min(m.Offset+m.Height, len(m.Order))
	for i := m.Offset; i < end; i++ {
		ind := m.Order[i]
		line := fmt.Sprintf("%s %-6s %s", symbol(ind), ind.ID, ind.Name)
		switch {
		case i == m.Cursor:
			list.WriteString(listSelectedStyle.Render("▸ " + line))
		case ind.Marker.IsLoss():
			list.WriteString(listDimStyle.Render("  " + line))
		default:
			list.WriteString(listNormalStyle.Render("  " + line))
		}
		list.WriteString("\n")
	}

	ind, _ := m.Selected()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), detailStyle.Render(m.details(ind))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Order))))
	return b.String()
}

// details renders the selected individual's card.
func (m BrowseModel) details(ind *pedigree.Individual) string {
	p := m.Pedigree
	var b strings.Builder

	title := label(ind)
	if p.IsProband(ind.ID) {
		title += " (proband)"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	row := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(listDimStyle.Width(12).Render(key))
		b.WriteString(StyleValue.Render(value))
		b.WriteString("\n")
	}
	ids := func(inds []*pedigree.Individual) string {
		out := make([]string, len(inds))
		for i, r := range inds {
			out[i] = r.ID
		}
		return strings.Join(out, ", ")
	}

	row("Generation", pedigree.RomanGeneration(ind.Generation))
	row("Gender", string(ind.Gender))
	row("Status", status(ind))
	row("Test", string(ind.TestResult))
	if ind.Marker != pedigree.MarkerNone {
		row("Marker", ind.Marker.String())
	}
	row("Adopted", string(ind.Adoption))
	row("Born", ind.BirthYear)
	row("Died", joinNonEmpty(" at ", ind.DeathYear, ind.DeathAge))
	row("Conditions", ind.Conditions)

	if spouse, ok := p.SpouseOf(ind.ID); ok {
		marriage := ""
		if info := marriageOf(p, ind); info != nil && info.Status != pedigree.Married {
			marriage = " (" + string(info.Status) + ")"
		}
		row("Spouse", spouse.ID+marriage)
	}
	row("Parents", ids(p.ParentsOf(ind.ID)))
	var sibs []*pedigree.Individual
	for _, sib := range p.SiblingsOf(ind.ID) {
		if sib.ID != ind.ID {
			sibs = append(sibs, sib)
		}
	}
	row("Siblings", ids(sibs))
	row("Children", ids(p.ChildrenOf(ind.ID)))
	if ind.TwinWith != "" {
		row("Twin", ind.TwinWith+" ("+string(ind.TwinType)+")")
	}

	if len(ind.Risks) > 0 {
		b.WriteString("\n")
		for _, kind := range pedigree.RiskKinds {
			if v, ok := ind.Risks[kind]; ok {
				b.WriteString(listDimStyle.Width(28).Render(kind.Label()))
				b.WriteString(formatRisk(v))
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// marriageOf returns the couple's marriage info, stored on either member.
func marriageOf(p *pedigree.Pedigree, ind *pedigree.Individual) *pedigree.MarriageInfo {
	if ind.Marriage != nil {
		return ind.Marriage
	}
	if spouse, ok := p.SpouseOf(ind.ID); ok {
		return spouse.Marriage
	}
	return nil
}
