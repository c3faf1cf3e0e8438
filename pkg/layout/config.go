package layout

import (
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Default geometry, in diagram units.
const (
	DefaultSpacing         = 140.0
	DefaultCenterX         = 700.0
	DefaultOnlyChildOffset = 70.0
	DefaultSibshipDrop     = 50.0
	DefaultSymbolRadius    = 20.0
)

// DefaultRows returns the y coordinate of each generation row.
func DefaultRows() []float64 {
	return []float64{150, 300, 450, 600, 750}
}

// Config controls layout geometry. Zero fields take defaults in
// [Config.SetDefaults].
type Config struct {
	Spacing         float64   `toml:"spacing" json:"spacing"`                     // Horizontal distance between neighbours
	CenterX         float64   `toml:"center_x" json:"center_x"`                   // Canonical center of every row
	Rows            []float64 `toml:"rows" json:"rows"`                           // y per generation, index 0 = generation I
	OnlyChildOffset float64   `toml:"only_child_offset" json:"only_child_offset"` // Extra gap for spouse pairs of only-children
	SibshipDrop     float64   `toml:"sibship_drop" json:"sibship_drop"`           // Sibship line height above the child row
	SymbolRadius    float64   `toml:"symbol_radius" json:"symbol_radius"`         // Half the symbol size, for connector ends
}

// DefaultConfig returns a config with every field defaulted.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	if c.Spacing == 0 {
		c.Spacing = DefaultSpacing
	}
	if c.CenterX == 0 {
		c.CenterX = DefaultCenterX
	}
	if len(c.Rows) == 0 {
		c.Rows = DefaultRows()
	}
	if c.OnlyChildOffset == 0 {
		c.OnlyChildOffset = DefaultOnlyChildOffset
	}
	if c.SibshipDrop == 0 {
		c.SibshipDrop = DefaultSibshipDrop
	}
	if c.SymbolRadius == 0 {
		c.SymbolRadius = DefaultSymbolRadius
	}
}

// Validate checks that the geometry can produce a readable diagram.
func (c Config) Validate() error {
	if c.Spacing <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout spacing must be positive, got %g", c.Spacing)
	}
	if len(c.Rows) != pedigree.MaxGeneration {
		return errors.New(errors.ErrCodeInvalidConfig, "layout needs %d row coordinates, got %d", pedigree.MaxGeneration, len(c.Rows))
	}
	for i := 1; i < len(c.Rows); i++ {
		if c.Rows[i] <= c.Rows[i-1] {
			return errors.New(errors.ErrCodeInvalidConfig, "layout rows must increase, row %d (%g) <= row %d (%g)", i+1, c.Rows[i], i, c.Rows[i-1])
		}
	}
	if c.SibshipDrop < 0 || c.SymbolRadius < 0 || c.OnlyChildOffset < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout offsets must not be negative")
	}
	return nil
}

// RowY returns the y coordinate of a generation. Generations outside the
// table are clamped to the nearest row.
func (c Config) RowY(gen int) float64 {
	i := min(max(gen, pedigree.MinGeneration), len(c.Rows)) - 1
	if i < 0 {
		return 0
	}
	return c.Rows[i]
}
