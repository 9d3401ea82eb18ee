// Package collector holds the capped, ordered list of pages matched during a
// crawl session.
package collector

import (
	"sync"

	"github.com/nao1215/wikicrawl/internal/model"
)

// Collector is an append-only, capped sequence of results shared by every
// branch of a crawl session. Insertion order is discovery order.
type Collector struct {
	mu       sync.Mutex
	results  []model.PageResult
	capacity int
	rejected int
}

// New returns a Collector that accepts at most capacity results.
// A non-positive capacity accepts nothing.
func New(capacity int) *Collector {
	if capacity < 0 {
		capacity = 0
	}
	return &Collector{
		results:  make([]model.PageResult, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// TryAppend appends r and returns true, or returns false once the cap is
// reached. Checking the cap and appending happen under one lock, so when
// several branches race for the last slot exactly one of them wins.
func (c *Collector) TryAppend(r model.PageResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.results) >= c.capacity {
		c.rejected++
		return false
	}
	c.results = append(c.results, r)
	return true
}

// Full reports whether the cap has been reached.
func (c *Collector) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results) >= c.capacity
}

// Len returns the number of collected results.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Cap returns the maximum number of results.
func (c *Collector) Cap() int {
	return c.capacity
}

// Rejected returns how many appends were refused because the cap was reached.
func (c *Collector) Rejected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejected
}

// Results returns a copy of the collected results in insertion order.
func (c *Collector) Results() []model.PageResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.PageResult, len(c.results))
	copy(out, c.results)
	return out
}
