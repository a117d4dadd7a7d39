// Package cache implements the result cache mapping normalized passage
// text to a prior verdict.
//
// The cache is unbounded for the lifetime of a document session and is
// cleared wholesale on navigation. Entries are immutable once inserted:
// a verdict is never updated in place, so a late asynchronous completion
// can never overwrite an earlier result with a race-dependent value.
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pageguard/pageguard/internal/model"
)

// Cache stores verdicts keyed by normalized passage text.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.Verdict
	group   singleflight.Group
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]model.Verdict),
	}
}

// Get returns the cached verdict for key, if any.
func (c *Cache) Get(key string) (model.Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a verdict under key. The first write wins: an existing
// entry is never replaced.
func (c *Cache) Set(key string, v model.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return
	}
	c.entries[key] = v
}

// Do returns the verdict for key, computing it at most once across
// concurrent callers. Identical passages in flight at the same time share
// a single computation; the result is stored before Do returns.
//
// On compute error nothing is cached and the error is returned to every
// waiting caller.
func (c *Cache) Do(key string, compute func() (model.Verdict, error)) (model.Verdict, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have completed between the lookup and
		// the singleflight admission.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return model.Verdict{}, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		return model.Verdict{}, err
	}
	return result.(model.Verdict), nil
}

// Len returns the number of cached verdicts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry. Called on navigation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.Verdict)
}
