// Package cache keeps counter metadata across pipeline runs. Descriptors
// are server-authoritative and immutable once fetched, so a hit never goes
// stale within a session.
package cache

import (
	"sync"

	"github.com/vtelemetry/vsphere_sdk/common"
)

// DescriptorCache is a concurrency-safe counterId -> descriptor cache
type DescriptorCache struct {
	mu    sync.RWMutex
	items map[int32]*common.MetricDescriptor
}

// NewDescriptorCache creates an empty descriptor cache
func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{
		items: make(map[int32]*common.MetricDescriptor),
	}
}

// Get retrieves a cached descriptor
func (c *DescriptorCache) Get(id int32) (*common.MetricDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.items[id]
	return d, ok
}

// Put stores one descriptor. An existing entry is kept: descriptors are
// immutable, the first fetch wins.
func (c *DescriptorCache) Put(d *common.MetricDescriptor) {
	if d == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[d.CounterID]; !ok {
		c.items[d.CounterID] = d
	}
}

// PutAll stores every descriptor of a fetched batch
func (c *DescriptorCache) PutAll(batch map[int32]*common.MetricDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, d := range batch {
		if _, ok := c.items[id]; !ok && d != nil {
			c.items[id] = d
		}
	}
}

// Missing returns the subset of ids with no cached descriptor, preserving
// the input order
func (c *DescriptorCache) Missing(ids []int32) []int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var missing []int32
	for _, id := range ids {
		if _, ok := c.items[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Count returns the number of cached descriptors
func (c *DescriptorCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
