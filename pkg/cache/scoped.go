package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The API server scopes keys per deployment so that several servers can
// share one Redis instance.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// BOMKey generates a prefixed key for BOM version tables.
func (k *ScopedKeyer) BOMKey(coordinate, version string) string {
	return k.prefix + k.inner.BOMKey(coordinate, version)
}

// ResolveKey generates a prefixed key for resolution results.
func (k *ScopedKeyer) ResolveKey(opts ResolveKeyOpts) string {
	return k.prefix + k.inner.ResolveKey(opts)
}
