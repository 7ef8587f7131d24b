package utilities

import (
	"sync"
	"sync/atomic"

	"github.com/antonio-alexander/go-hrms-lite/internal/data"
)

type counter struct {
	hit  atomic.Int64
	miss atomic.Int64
}

type cacheCounter struct {
	sync.RWMutex
	counters map[string]*counter
}

// Counter tracks cache hits and misses per key, where a key is the
// operation being cached (e.g. employee_read).
type Counter interface {
	Read(key string) (hitCount, missCount int)
	ReadAll() *data.CacheCounters
	IncrementHit(key string) (hitCount int)
	IncrementMiss(key string) (missCount int)
	Reset()
}

func NewCounter(parameters ...any) Counter {
	return &cacheCounter{
		counters: make(map[string]*counter),
	}
}

// lookup returns the counter for key, creating it if create is true; once
// created a counter is only written atomically.
func (c *cacheCounter) lookup(key string, create bool) *counter {
	c.RLock()
	cntr, found := c.counters[key]
	c.RUnlock()
	if found || !create {
		return cntr
	}

	c.Lock()
	defer c.Unlock()

	if cntr, found = c.counters[key]; !found {
		cntr = &counter{}
		c.counters[key] = cntr
	}
	return cntr
}

func (c *cacheCounter) Read(key string) (int, int) {
	cntr := c.lookup(key, false)
	if cntr == nil {
		return -1, -1
	}
	return int(cntr.hit.Load()), int(cntr.miss.Load())
}

func (c *cacheCounter) ReadAll() *data.CacheCounters {
	c.RLock()
	defer c.RUnlock()

	counterHits := make(map[string]int, len(c.counters))
	counterMisses := make(map[string]int, len(c.counters))
	for key, cntr := range c.counters {
		counterHits[key] = int(cntr.hit.Load())
		counterMisses[key] = int(cntr.miss.Load())
	}
	return &data.CacheCounters{
		CounterHits:   counterHits,
		CounterMisses: counterMisses,
	}
}

func (c *cacheCounter) Reset() {
	c.Lock()
	defer c.Unlock()

	c.counters = make(map[string]*counter)
}

func (c *cacheCounter) IncrementHit(key string) int {
	return int(c.lookup(key, true).hit.Add(1))
}

func (c *cacheCounter) IncrementMiss(key string) int {
	return int(c.lookup(key, true).miss.Add(1))
}
