package store

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

type cache interface {
	get(runID string) (domain.RunRecord, bool)
	put(record domain.RunRecord)
}

// mapCache never evicts; it is the system of record when no tier exists.
type mapCache struct {
	mu      sync.RWMutex
	records map[string]domain.RunRecord
}

func newMapCache() *mapCache {
	return &mapCache{records: make(map[string]domain.RunRecord)}
}

func (c *mapCache) get(runID string) (domain.RunRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[runID]
	return record, ok
}

func (c *mapCache) put(record domain.RunRecord) {
	c.mu.Lock()
	c.records[record.RunID] = record
	c.mu.Unlock()
}

// lruCache bounds memory when an external tier holds the full history.
type lruCache struct {
	records *lru.Cache[string, domain.RunRecord]
}

func newLRUCache(size int) (*lruCache, error) {
	records, err := lru.New[string, domain.RunRecord](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{records: records}, nil
}

func (c *lruCache) get(runID string) (domain.RunRecord, bool) {
	return c.records.Get(runID)
}

func (c *lruCache) put(record domain.RunRecord) {
	c.records.Add(record.RunID, record)
}
