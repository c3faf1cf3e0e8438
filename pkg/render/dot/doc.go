// Package dot exports a laid-out pedigree as Graphviz DOT and renders it
// to SVG.
//
// Coordinates come from [layout.Compute]; Graphviz only draws. Every
// individual is pinned at its computed position (pos="x,y!") and the
// graph is rendered with the neato engine, so the picture matches the
// layout exactly:
//
//	l := layout.Compute(p, layout.DefaultConfig())
//	src := dot.ToDOT(p, l, dot.Options{Labels: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Symbols follow pedigree conventions: squares for males, circles for
// females, diamonds for unknown gender and small triangles for pregnancy
// losses. Affected individuals are filled, known carriers are grey.
// Divorced and consanguineous couples get a doubled marriage line.
//
// [layout.Compute]: github.com/matzehuels/pedigree/pkg/layout.Compute
package dot
