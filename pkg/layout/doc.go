// Package layout computes deterministic 2-D coordinates for a pedigree.
//
// # Pipeline
//
// [Compute] lays out one generation at a time, top-down, so that every
// parent's x is final before its children are placed. Each row goes
// through independent stages, each exported as a pure function:
//
//  1. Partition into sibling groups and singles ([pedigree.PartitionRow]).
//  2. Build each group's display sequence with spouses ([DisplaySequence]).
//  3. Center the sequence under the parents' marriage line
//     ([CenterPlacement]); a lone child is placed as a child+spouse block.
//  4. Shift overlapping groups apart in one forward pass ([ResolveOverlaps]).
//  5. Place singles around the groups ([PlaceSingles]).
//  6. Re-center married pairs whose partners both have parents
//     ([PairOffsets] and the spouse refinement pass).
//
// A final pass places anything still without a finite coordinate at the
// canonical center of its row, so the result never contains NaN.
//
// # Connectors
//
// Besides positions, the [Layout] carries what a renderer needs to draw
// connectors: one [Sibship] per sibling group (with the anchor sibling
// flagged on its [Position]) and a [Twins] record per twin pair, with a
// shared tether point and, for identical twins, an equality bar.
//
// # Determinism
//
// Compute reads only structural fields plus the previous coordinates of
// pinned individuals (the proband and locked individuals), so two calls on
// an unmutated pedigree return identical layouts.
package layout
