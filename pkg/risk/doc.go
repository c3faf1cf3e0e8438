// Package risk infers per-individual genetic risk from a pedigree.
//
// Every individual gets a [pedigree.RiskMap] keyed by risk kind (affected,
// carrier, offspring_affected, offspring_carrier). Absent keys mean "not
// computed"; adopted individuals get [pedigree.NotApplicable] for every
// kind because their biological family is not on record.
//
// # Precedence
//
// Direct evidence wins over inference, per pattern:
//
//  1. A positive test or the affected flag: 100% affected (and 100%
//     carrier for recessive patterns).
//  2. A negative test: 0% affected (0% carrier for recessive patterns).
//  3. A carrier test or the carrier flag, recessive patterns only: 100%
//     carrier, 0% affected.
//  4. Otherwise the parents' status, then the Hardy–Weinberg prior.
//
// # Known Carriers
//
// "Known carrier" is derived on every pass: the carrier flag, a carrier
// test, the affected flag, or an inferred 100% carrier risk. [ComputeAll]
// walks generations top-down so that children see their parents' freshly
// inferred risks, never stale ones from a previous pass.
package risk
