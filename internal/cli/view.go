package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/report"
)

// layoutCommand creates the "layout" command.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the chart coordinates of every individual as JSON",
		Long: `Print the layout of the pedigree chart as JSON: the position of every
individual, the sibship lines with their drop points and the twin bars.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ws.Close()
			return c.writeOutput(cmd, output, func(w io.Writer) error {
				return writeJSON(w, ws.session.Layout())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// riskCommand creates the "risk" command.
func (c *CLI) riskCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Show the inferred genetic risks of every individual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ws.Close()

			if asJSON {
				risks := ws.session.Risks()
				out := make(map[string]document.Risks, len(risks))
				for id, m := range risks {
					out[id] = document.RisksFrom(m)
				}
				return writeJSON(c.Out, out)
			}

			p := ws.session.Snapshot()
			c.printKeyValue("Pattern", p.Pattern().Title())
			c.printKeyValue("Frequency", fmt.Sprintf("%g", p.CarrierFrequency()))
			fmt.Fprintln(c.Out, riskTable(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print risks as JSON percentages")
	return cmd
}

// riskTable lays out one row per individual in chart order with each risk
// coloured by level.
func riskTable(p *pedigree.Pedigree) string {
	headers := []string{"", "Individual", "Status"}
	for _, kind := range pedigree.RiskKinds {
		headers = append(headers, kind.Label())
	}

	var rows [][]string
	for _, gen := range p.Generations() {
		for _, ind := range p.Generation(gen) {
			name := label(ind)
			if p.IsProband(ind.ID) {
				name += " ↗"
			}
			row := []string{symbol(ind), name, status(ind)}
			for _, kind := range pedigree.RiskKinds {
				v, ok := ind.Risks[kind]
				if !ok {
					row = append(row, StyleDim.Render("-"))
					continue
				}
				row = append(row, formatRisk(v))
			}
			rows = append(rows, row)
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// reportCommand creates the "report" command.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		output string
		date   string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the plain-text genetic risk assessment report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if date != "" {
				var err error
				if when, err = time.Parse(report.DateFormat, date); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "report date")
				}
			}
			ws, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ws.Close()
			return c.writeOutput(cmd, output, func(w io.Writer) error {
				return report.Write(w, ws.session.Snapshot(), when)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&date, "date", "", "report date as YYYY-MM-DD (default: today)")
	return cmd
}

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a document for broken references",
		Long: `Check a document for broken references: missing parents, children,
spouses or twins, one-sided relationships, unsorted parent lists and
out-of-range generations. Exits non-zero when issues are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, name, err := c.readRaw(cmd.Context())
			if err != nil {
				return err
			}
			issues := p.Validate()
			if len(issues) == 0 {
				c.printSuccess("%s is consistent", name)
				c.printStats(p.Len(), false)
				return nil
			}
			for _, issue := range issues {
				c.printError("%s", issue)
			}
			return errors.New(errors.ErrCodeInvalidDocument, "%s has %s", name, plural(len(issues), "issue"))
		},
	}
}

// writeOutput runs write against the --output file, or stdout when empty.
func (c *CLI) writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(c.Out)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	c.printSuccess("Wrote %s", cmd.Name())
	c.printFile(path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
