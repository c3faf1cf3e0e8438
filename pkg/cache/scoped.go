package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// pedigree documents or tenants can share one Redis instance without
// clearing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "family:smith:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey returns the prefixed layout key.
func (k *ScopedKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(docHash, opts)
}

// RiskKey returns the prefixed risk key.
func (k *ScopedKeyer) RiskKey(docHash string, opts RiskKeyOpts) string {
	return k.prefix + k.inner.RiskKey(docHash, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
