package cache

// ScopedKeyer wraps a Keyer with a prefix so several graphs or deployments
// can share one Redis or Mongo cache without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "marquez-prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer falls back
// to the default one; an empty prefix returns inner unchanged.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if prefix == "" {
		return inner
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ViewKey generates a prefixed view key.
func (k *ScopedKeyer) ViewKey(graphHash string, opts ViewKeyOpts) string {
	return k.prefix + k.inner.ViewKey(graphHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(viewHash, opts)
}
