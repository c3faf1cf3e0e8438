package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pedigree/pkg/layout"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Formats accepted by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// pointsPerInch converts layout units to the inches neato expects in pos.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Labels adds the ID and name below every symbol.
	Labels bool

	// Risks adds the non-zero risk values to the labels.
	Risks bool
}

// ToDOT converts a pedigree and its layout to Graphviz DOT. Individuals
// missing from l are skipped.
func ToDOT(p *pedigree.Pedigree, l *layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph pedigree {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [label=\"\", fixedsize=true, width=0.5, height=0.5, style=filled, fillcolor=white, penwidth=1.5, fontsize=10];\n")
	buf.WriteString("  edge [penwidth=1.5];\n")
	buf.WriteString("\n")

	inds := p.Individuals()
	for _, ind := range inds {
		pos, ok := l.Positions[ind.ID]
		if !ok {
			continue
		}
		attrs := symbolAttrs(ind, p.IsProband(ind.ID))
		attrs = append(attrs, posAttr(pos.X, pos.Y))
		if label := fmtLabel(ind, opts); label != "" {
			attrs = append(attrs, fmt.Sprintf("xlabel=%q", label))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", ind.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, ind := range inds {
		if ind.Marriage == nil || ind.SpouseID == "" {
			continue
		}
		if _, ok := l.Positions[ind.SpouseID]; !ok {
			continue
		}
		attrs := ""
		if ind.Marriage.Status.DoubleLine() {
			attrs = " [color=\"black:invis:black\"]"
		}
		fmt.Fprintf(&buf, "  %q -- %q%s;\n", ind.ID, ind.SpouseID, attrs)
	}

	for i, sib := range l.Sibships {
		writeSibship(&buf, p, l, i, sib)
	}
	for i, tw := range l.Twins {
		if tw.Bar == nil {
			continue
		}
		a, b := fmt.Sprintf("bar%d_l", i), fmt.Sprintf("bar%d_r", i)
		writePoint(&buf, a, tw.Bar.From.X, tw.Bar.From.Y)
		writePoint(&buf, b, tw.Bar.To.X, tw.Bar.To.Y)
		fmt.Fprintf(&buf, "  %q -- %q;\n", a, b)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeSibship draws the drop from the parents' line, the horizontal
// sibship line and one tether per child. Twins hang from their shared
// anchor.
func writeSibship(buf *bytes.Buffer, p *pedigree.Pedigree, l *layout.Layout, i int, sib layout.Sibship) {
	parentY, found := 0.0, false
	for _, id := range sib.ParentIDs {
		if pos, ok := l.Positions[id]; ok {
			parentY, found = pos.Y, true
			break
		}
	}
	if !found {
		return
	}

	prefix := fmt.Sprintf("sib%d", i)
	drop, top := prefix+"_drop", prefix+"_top"
	left, right := prefix+"_l", prefix+"_r"
	writePoint(buf, drop, sib.DropX, parentY)
	writePoint(buf, top, sib.DropX, sib.Y)
	writePoint(buf, left, sib.MinX, sib.Y)
	writePoint(buf, right, sib.MaxX, sib.Y)
	fmt.Fprintf(buf, "  %q -- %q;\n", drop, top)
	fmt.Fprintf(buf, "  %q -- %q;\n", left, right)

	anchors := make(map[string]string)
	for _, m := range siblings(p, sib) {
		pos, ok := l.Positions[m.ID]
		if !ok {
			continue
		}
		style := ""
		if m.Adoption != pedigree.NotAdopted {
			style = " [style=dashed]"
		}
		if pos.TwinAnchor != nil {
			key := strconv.FormatFloat(pos.TwinAnchor.X, 'f', 2, 64)
			name, ok := anchors[key]
			if !ok {
				name = fmt.Sprintf("%s_twin%d", prefix, len(anchors))
				anchors[key] = name
				writePoint(buf, name, pos.TwinAnchor.X, pos.TwinAnchor.Y)
			}
			fmt.Fprintf(buf, "  %q -- %q%s;\n", name, m.ID, style)
			continue
		}
		tether := prefix + "_" + m.ID
		writePoint(buf, tether, pos.X, sib.Y)
		fmt.Fprintf(buf, "  %q -- %q%s;\n", tether, m.ID, style)
	}
}

func siblings(p *pedigree.Pedigree, sib layout.Sibship) []*pedigree.Individual {
	var out []*pedigree.Individual
	for _, ind := range p.Individuals() {
		if ind.SiblingKey() == sib.Key && len(ind.ParentIDs) > 0 {
			out = append(out, ind)
		}
	}
	return out
}

func writePoint(buf *bytes.Buffer, name string, x, y float64) {
	fmt.Fprintf(buf, "  %q [shape=point, width=0.01, height=0.01, %s];\n", name, posAttr(x, y))
}

// posAttr pins a node. Graphviz y grows upwards, layout y downwards.
func posAttr(x, y float64) string {
	return fmt.Sprintf("pos=\"%.3f,%.3f!\"", x/pointsPerInch, -y/pointsPerInch)
}

func symbolAttrs(ind *pedigree.Individual, proband bool) []string {
	var attrs []string
	switch {
	case ind.Marker.IsLoss():
		attrs = append(attrs, "shape=triangle", "width=0.3", "height=0.3")
	case ind.Gender == pedigree.Male:
		attrs = append(attrs, "shape=box")
	case ind.Gender == pedigree.Female:
		attrs = append(attrs, "shape=circle")
	default:
		attrs = append(attrs, "shape=diamond")
	}

	switch {
	case ind.Affected:
		attrs = append(attrs, "fillcolor=black")
	case ind.Carrier:
		attrs = append(attrs, "fillcolor=grey60")
	}

	styles := []string{"filled"}
	if ind.Marker == pedigree.MarkerPregnancy {
		styles = append(styles, "dashed")
	}
	if proband {
		styles = append(styles, "bold")
		attrs = append(attrs, "penwidth=3")
	}
	if ind.Deceased {
		styles = append(styles, "diagonals")
	}
	if len(styles) > 1 {
		attrs = append(attrs, fmt.Sprintf("style=%q", strings.Join(styles, ",")))
	}
	return attrs
}

func fmtLabel(ind *pedigree.Individual, opts Options) string {
	var lines []string
	if opts.Labels {
		lines = append(lines, ind.ID)
		if ind.Name != "" {
			lines = append(lines, ind.Name)
		}
	}
	if opts.Risks {
		for _, kind := range pedigree.RiskKinds {
			if v, ok := ind.Risks.Get(kind); ok && v > 0 {
				lines = append(lines, fmt.Sprintf("%s %.1f%%", shortKind[kind], v))
			}
		}
	}
	return strings.Join(lines, "\n")
}

var shortKind = map[pedigree.RiskKind]string{
	pedigree.RiskCarrier:           "C",
	pedigree.RiskAffected:          "A",
	pedigree.RiskOffspringAffected: "OA",
	pedigree.RiskOffspringCarrier:  "OC",
}

// Render produces the named format from a pedigree and its layout.
func Render(ctx context.Context, p *pedigree.Pedigree, l *layout.Layout, format string, opts Options) ([]byte, error) {
	src := ToDOT(p, l, opts)
	switch format {
	case FormatDOT:
		return []byte(src), nil
	case FormatSVG:
		return RenderSVG(ctx, src)
	}
	return nil, fmt.Errorf("unknown render format %q (want dot or svg)", format)
}

// RenderSVG renders DOT source to SVG with the neato engine, which keeps
// pinned positions.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed-size svg tag with a
// scalable one.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
