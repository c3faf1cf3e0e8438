package risk

import "github.com/matzehuels/pedigree/pkg/pedigree"

// Level buckets a risk percentage for display.
type Level string

const (
	LevelNone   Level = "n/a"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Class returns the level of a percentage: high from 50, medium from 25.
func Class(percent float64) Level {
	switch {
	case percent >= 50:
		return LevelHigh
	case percent >= 25:
		return LevelMedium
	}
	return LevelLow
}

// ClassOf returns the level of a risk value; not-applicable values have
// LevelNone.
func ClassOf(v pedigree.RiskValue) Level {
	pct, ok := v.Value()
	if !ok {
		return LevelNone
	}
	return Class(pct)
}
