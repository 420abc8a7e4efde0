package similarity

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"career-matching/internal/common/metrics"
)

// Fitted is a vectorizer together with the catalog rows it was fit on, in catalog order.
type Fitted struct {
	Vectorizer *Vectorizer
	Rows       []Vector
}

// FitCache keeps fitted catalogs keyed by catalog version token. Concurrent misses for the same
// version share one fit. Entries are evicted least recently used first.
type FitCache struct {
	mu      sync.Mutex
	size    int
	order   []string
	entries map[string]*Fitted
	group   singleflight.Group
}

// NewFitCache returns nil when size < 1; a nil cache fits on every call.
func NewFitCache(size int) *FitCache {
	if size < 1 {
		return nil
	}
	return &FitCache{size: size, entries: make(map[string]*Fitted, size)}
}

// Get returns the cached fit for version, calling fit on a miss. An empty version is never cached.
func (c *FitCache) Get(version string, fit func() *Fitted) *Fitted {
	if c == nil || version == "" {
		metrics.FitCacheLookups.WithLabelValues("bypass").Inc()
		return fit()
	}

	c.mu.Lock()
	if f, ok := c.entries[version]; ok {
		c.touch(version)
		c.mu.Unlock()
		metrics.FitCacheLookups.WithLabelValues("hit").Inc()
		return f
	}
	c.mu.Unlock()

	metrics.FitCacheLookups.WithLabelValues("miss").Inc()
	v, _, _ := c.group.Do(version, func() (interface{}, error) {
		f := fit()
		c.mu.Lock()
		c.put(version, f)
		c.mu.Unlock()
		return f, nil
	})
	return v.(*Fitted)
}

// Len reports the number of cached versions.
func (c *FitCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *FitCache) touch(version string) {
	for i, v := range c.order {
		if v == version {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, version)
}

func (c *FitCache) put(version string, f *Fitted) {
	if _, ok := c.entries[version]; !ok && len(c.entries) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[version] = f
	c.touch(version)
}
