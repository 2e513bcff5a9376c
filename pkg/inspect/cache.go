package inspect

import "sync"

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is an unbounded ProgramCache safe for concurrent use.
type MapCache struct {
	entries sync.Map
}

// NewProgramCache returns an empty MapCache.
func NewProgramCache() *MapCache {
	return &MapCache{}
}

func (c *MapCache) Get(key string) (any, bool) {
	return c.entries.Load(key)
}

func (c *MapCache) Set(key string, value any) {
	c.entries.Store(key, value)
}

// engineCache keeps engines from reading each other's programs when they
// share one cache.
type engineCache struct {
	engine string
	cache  ProgramCache
}

func (c engineCache) Get(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(c.engine + ":" + key)
}

func (c engineCache) Set(key string, value any) {
	if c.cache != nil {
		c.cache.Set(c.engine+":"+key, value)
	}
}
