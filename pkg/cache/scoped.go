package cache

import "strings"

// ScopedKeyer namespaces the layout and artifact keys of an inner Keyer,
// so entries written by one build of the layout engines are not served to
// another. Topology keys are left alone: the last-known topology stays
// usable offline across upgrades.
//
// The scope goes after the stage segment ("layout:<scope>:<hash>"), which
// keeps stage-prefixed scans such as RedisCache.Clear working.
//
//	keyer := cache.NewScopedKeyer(nil, buildinfo.Version)
type ScopedKeyer struct {
	inner Keyer
	scope string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with scope.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, scope: scope}
}

func (k *ScopedKeyer) TopologyKey(source string) string {
	return k.inner.TopologyKey(source)
}

func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.scoped(k.inner.LayoutKey(graphHash, opts))
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.scoped(k.inner.ArtifactKey(layoutHash, opts))
}

func (k *ScopedKeyer) scoped(key string) string {
	if k.scope == "" {
		return key
	}
	stage, rest, ok := strings.Cut(key, ":")
	if !ok {
		return k.scope + ":" + key
	}
	return stage + ":" + k.scope + ":" + rest
}
