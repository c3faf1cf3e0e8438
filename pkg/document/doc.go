// Package document defines the persisted JSON form of a pedigree.
//
// The format keeps the field names of the legacy browser application so
// that existing saved files load unchanged:
//
//	{
//	  "individuals": [
//	    {"id": "III-1", "gender": "female", "generation": 3, "position": 1,
//	     "parentIds": ["II-1", "II-2"], "calculatedRisks": {"affected": 50}}
//	  ],
//	  "probandId": "III-1",
//	  "inheritancePattern": "autosomal_dominant",
//	  "carrierFrequency": 0.01
//	}
//
// Derived fields (x, y, calculatedRisks) are written and read back, but
// callers normally recompute them after loading. A "not applicable" risk
// is encoded as null.
//
// # Strictness
//
// Decoding fails with an INVALID_DOCUMENT error on malformed JSON, unknown
// enumeration values, empty or duplicate IDs. Dangling references are not
// decoding errors: they are reported by [pedigree.Pedigree.Validate] and
// treated as absent by the resolver. Use [Check] to reject documents with
// any referential issue.
//
// Decoding never touches a caller's existing pedigree: it always builds a
// new one, so a failed load leaves the previous state in place.
package document
