package compose

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies one composition.
type Key struct {
	Domain string
	Role   string
	Level  string
	Tier   string
}

func (k Key) String() string {
	return k.Domain + "/" + k.Role + "/" + k.Level + "/" + k.Tier
}

type cached struct {
	tree   Tree
	report Report
}

// Cache memoizes composed trees. Compose is pure and total, so an entry
// never goes stale for the life of the registries it was built from.
// Concurrent misses on the same key build once.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]cached
	group   singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]cached)}
}

// Get returns the tree for k, calling build on a miss. The returned tree is
// a private copy the caller may modify. A failed build is not cached; every
// caller sharing it gets the build error.
func (c *Cache) Get(k Key, build func() (Tree, Report, error)) (Tree, Report, error) {
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		return Copy(e.tree), e.report, nil
	}

	v, err, _ := c.group.Do(k.String(), func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[k]
		c.mu.RUnlock()
		if ok {
			return e, nil
		}

		tree, rep, err := build()
		if err != nil {
			return nil, err
		}
		e = cached{tree: tree, report: rep}
		c.mu.Lock()
		c.entries[k] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, Report{}, err
	}
	e = v.(cached)
	return Copy(e.tree), e.report, nil
}

// Len reports the number of cached compositions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry, e.g. after registries are reloaded.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[Key]cached)
	c.mu.Unlock()
}
