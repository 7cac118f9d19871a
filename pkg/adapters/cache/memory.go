// Package cache holds the in-process read cache for columns.
package cache

import (
	"sync"
	"time"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

type entry struct {
	column   *domain.Column
	storedAt time.Time
}

type listEntry struct {
	columns  []domain.Column
	storedAt time.Time
}

// AliasCache stores column snapshots under every identifier alias. Each slot
// is last-writer-wins; there is no isolation across slots.
type AliasCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	slots map[string]entry
	lists map[string]listEntry
}

// NewAliasCache returns a cache whose entries expire after ttl. A zero ttl
// keeps entries until overwritten or invalidated.
func NewAliasCache(ttl time.Duration) *AliasCache {
	return &AliasCache{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[string]entry),
		lists: make(map[string]listEntry),
	}
}

func (c *AliasCache) Get(alias string) (*domain.Column, bool) {
	c.mu.RLock()
	e, ok := c.slots[alias]
	c.mu.RUnlock()
	if !ok || c.expired(e.storedAt) {
		return nil, false
	}
	return e.column.Clone(), true
}

// WriteAll stores one snapshot under each alias.
func (c *AliasCache) WriteAll(aliases []string, column *domain.Column) {
	if column == nil {
		return
	}
	snap := column.Clone()
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range aliases {
		if a == "" {
			continue
		}
		c.slots[a] = entry{column: snap, storedAt: now}
	}
}

func (c *AliasCache) Invalidate(aliases ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range aliases {
		delete(c.slots, a)
	}
}

func (c *AliasCache) InvalidateLists() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = make(map[string]listEntry)
}

func (c *AliasCache) GetList(key string) ([]domain.Column, bool) {
	c.mu.RLock()
	e, ok := c.lists[key]
	c.mu.RUnlock()
	if !ok || c.expired(e.storedAt) {
		return nil, false
	}
	out := make([]domain.Column, len(e.columns))
	for i := range e.columns {
		out[i] = *e.columns[i].Clone()
	}
	return out, true
}

func (c *AliasCache) PutList(key string, columns []domain.Column) {
	stored := make([]domain.Column, len(columns))
	for i := range columns {
		stored[i] = *columns[i].Clone()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = listEntry{columns: stored, storedAt: c.now()}
}

func (c *AliasCache) expired(at time.Time) bool {
	return c.ttl > 0 && c.now().Sub(at) > c.ttl
}

// Ensure interface compliance
var _ ports.ColumnCache = (*AliasCache)(nil)
