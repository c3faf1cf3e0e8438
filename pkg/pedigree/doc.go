// Package pedigree provides the family pedigree graph used by the layout
// and risk engines.
//
// # Overview
//
// A [Pedigree] is an arena of [Individual] records indexed by ID. All
// relationships are ID references: SpouseID, ParentIDs, ChildrenIDs and
// TwinWith. Nothing embeds pointers to other individuals, so a pedigree
// serializes cheaply and deleting a record never leaves a dangling Go
// pointer, only a dangling ID that every query treats as "no relationship".
//
// Individuals live on one of five generational rows ([MinGeneration] to
// [MaxGeneration]) and are ordered within a row by Position. IDs take the
// canonical form "<RomanGeneration>-<position>", for example "III-1".
//
// # Sibling Groups
//
// ParentIDs are always stored sorted. The joined, sorted tuple is the
// sibling-group key returned by [SiblingGroupKey]: two individuals are
// siblings exactly when their keys are equal and non-empty.
//
// # Mutations
//
// Individuals are created only through the relationship operations
// ([Pedigree.AddProband], [Pedigree.AddParents], [Pedigree.AddSpouse],
// [Pedigree.AddChild], [Pedigree.AddSibling], [Pedigree.AddTwins],
// [Pedigree.AddPregnancy], [Pedigree.AddPregnancyLoss]). Each one checks
// every precondition before writing anything, so a rejected operation
// returns a coded [errors.Error] and leaves the pedigree unchanged.
//
// Deletion cascades to the spouse and strips every reference to the
// removed individuals from the rest of the graph. The proband cannot be
// deleted while it is the proband.
//
// # Derived Fields
//
// X, Y and Risks are owned by the layout and risk packages and are
// overwritten on every recompute. [Pedigree.Renumber] rewrites positions
// into the canonical sibling-group order after structural changes.
//
// A Pedigree is not safe for concurrent use; see pipeline.Session for a
// serialized owner.
//
// [errors.Error]: github.com/matzehuels/pedigree/pkg/errors.Error
package pedigree
