package cache

// LayoutKeyOpts lists the layout settings that change the result.
type LayoutKeyOpts struct {
	Spacing         float64   `json:"spacing"`
	CenterX         float64   `json:"center_x"`
	Rows            []float64 `json:"rows"`
	OnlyChildOffset float64   `json:"only_child_offset"`
	SibshipDrop     float64   `json:"sibship_drop"`
	SymbolRadius    float64   `json:"symbol_radius"`
}

// RiskKeyOpts lists the settings risk inference depends on besides the
// document itself.
type RiskKeyOpts struct {
	Pattern          string  `json:"pattern"`
	CarrierFrequency float64 `json:"carrier_frequency"`
}

// ArtifactKeyOpts identifies one rendered output of a layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Labels bool   `json:"labels"`
	Risks  bool   `json:"risks"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(docHash string, opts LayoutKeyOpts) string
	RiskKey(docHash string, opts RiskKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the inputs into "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns the key of a layout computed from docHash.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// RiskKey returns the key of a risk table computed from docHash.
func (DefaultKeyer) RiskKey(docHash string, opts RiskKeyOpts) string {
	return hashKey("risk", docHash, opts)
}

// ArtifactKey returns the key of a rendered artifact of a layout.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
