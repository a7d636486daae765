package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server scopes its
// keys by data root so two deployments can share one Redis or Mongo
// instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "icebergviz:"+Hash([]byte(root))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(inputHash, opts)
}

// TableKey generates a prefixed table key.
func (k *ScopedKeyer) TableKey(inputHash string, opts TableKeyOpts) string {
	return k.prefix + k.inner.TableKey(inputHash, opts)
}

// ResponseKey generates a prefixed response key.
func (k *ScopedKeyer) ResponseKey(route, query string) string {
	return k.prefix + k.inner.ResponseKey(route, query)
}
