package visited

import (
	"context"
	"sync"
)

// Memory is an in-process Tracker.
type Memory struct {
	mu      sync.Mutex
	visited map[string]struct{}
}

// NewMemory returns an empty in-process Tracker.
func NewMemory() *Memory {
	return &Memory{visited: make(map[string]struct{})}
}

// TryClaim implements Tracker.
func (m *Memory) TryClaim(_ context.Context, pageURL string) (bool, error) {
	key := Canonical(pageURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.visited[key]; ok {
		return false, nil
	}
	m.visited[key] = struct{}{}
	return true, nil
}

// Seen implements Tracker.
func (m *Memory) Seen(_ context.Context, pageURL string) (bool, error) {
	key := Canonical(pageURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.visited[key]
	return ok, nil
}

// Reset implements Tracker.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited = make(map[string]struct{})
	return nil
}

// Len implements Tracker.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visited), nil
}
