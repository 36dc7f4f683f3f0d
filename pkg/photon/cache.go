package photon

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// HeaderCache memoises persisted-photon-map headers keyed by file path.
// SPPM's NextPass probes for a previously saved pass's diffuse/caustic maps
// on every call before deciding whether to reshoot (spec.md §4.3
// "Persistence"); across a multi-pass render that's a header read per path
// per pass, so caching avoids re-opening and re-parsing a file whose header
// this process already saw (SPEC_FULL.md §3).
type HeaderCache struct {
	cache *lru.Cache[string, Header]
}

// NewHeaderCache builds a cache holding up to size entries.
func NewHeaderCache(size int) (*HeaderCache, error) {
	c, err := lru.New[string, Header](size)
	if err != nil {
		return nil, err
	}
	return &HeaderCache{cache: c}, nil
}

// HeaderOf returns the cached header for path, reading and caching it from
// disk on a miss.
func (hc *HeaderCache) HeaderOf(path string) (Header, error) {
	if h, ok := hc.cache.Get(path); ok {
		return h, nil
	}
	h, err := readHeader(path)
	if err != nil {
		return Header{}, err
	}
	hc.cache.Add(path, h)
	return h, nil
}

// Invalidate drops path's cached header, e.g. after it has been
// regenerated following a failed Load.
func (hc *HeaderCache) Invalidate(path string) {
	hc.cache.Remove(path)
}
