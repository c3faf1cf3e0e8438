package layout

import (
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// addConnectors derives sibship lines and twin anchors from final positions.
func addConnectors(p *pedigree.Pedigree, cfg Config, out *Layout) {
	for _, gen := range p.Generations() {
		groups, _ := pedigree.PartitionRow(p.Generation(gen))
		for _, g := range groups {
			addSibship(p, cfg, out, gen, g)
		}
	}
}

func addSibship(p *pedigree.Pedigree, cfg Config, out *Layout, gen int, g pedigree.SiblingGroup) {
	var (
		sum float64
		n   int
	)
	for _, id := range g.ParentIDs {
		if _, ok := p.Individual(id); !ok {
			continue
		}
		sum += out.Positions[id].X
		n++
	}
	if n == 0 {
		return
	}

	childY := cfg.RowY(gen)
	sib := Sibship{
		Key:       g.Key,
		ParentIDs: g.ParentIDs,
		AnchorID:  g.Members[0].ID,
		DropX:     sum / float64(n),
		Y:         childY - cfg.SibshipDrop,
	}
	sib.MinX, sib.MaxX = sib.DropX, sib.DropX

	anchor := out.Positions[sib.AnchorID]
	anchor.SibshipAnchor = true
	out.Positions[sib.AnchorID] = anchor

	twinOf := make(map[string]float64)
	for _, pair := range pedigree.TwinPairsWithin(g.Members) {
		l, r := out.Positions[pair.Left.ID], out.Positions[pair.Right.ID]
		tw := Twins{
			Left:   pair.Left.ID,
			Right:  pair.Right.ID,
			Type:   pair.Type,
			Anchor: Point{X: (l.X + r.X) / 2, Y: sib.Y},
		}
		if pair.Type == pedigree.Identical {
			tw.Bar = equalityBar(tw.Anchor, l.X, r.X, childY-cfg.SymbolRadius)
		}
		out.Twins = append(out.Twins, tw)

		pt := tw.Anchor
		l.TwinAnchor, r.TwinAnchor = &pt, &pt
		out.Positions[pair.Left.ID], out.Positions[pair.Right.ID] = l, r
		twinOf[pair.Left.ID], twinOf[pair.Right.ID] = tw.Anchor.X, tw.Anchor.X
	}

	for _, m := range g.Members {
		x := out.Positions[m.ID].X
		if ax, ok := twinOf[m.ID]; ok {
			x = ax
		}
		sib.MinX, sib.MaxX = min(sib.MinX, x), max(sib.MaxX, x)
	}
	out.Sibships = append(out.Sibships, sib)
}

// equalityBar spans the two diagonal twin lines halfway between the
// anchor and the symbol tops at topY.
func equalityBar(anchor Point, leftX, rightX, topY float64) *Segment {
	y := (anchor.Y + topY) / 2
	return &Segment{
		From: Point{X: anchor.X + (leftX-anchor.X)/2, Y: y},
		To:   Point{X: anchor.X + (rightX-anchor.X)/2, Y: y},
	}
}
