package cache

import (
	"context"
	"sync"

	"fpstab/internal/result"
)

// MemoryStore is an in-process Store with the same semantics as
// SQLiteStore: first insert wins, NaN results are not stored, and debug
// info for an uncached input is dropped.
type MemoryStore struct {
	mu      sync.Mutex
	results map[string]result.StabilizerResult[string]
	debug   map[string][]result.DbgInfo
	dropped int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]result.StabilizerResult[string]),
		debug:   make(map[string][]result.DbgInfo),
	}
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(_ context.Context, cmdin string) (result.StabilizerResult[string], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[cmdin]
	return r, ok
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, r result.StabilizerResult[string]) {
	if r.Unknown() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.results[r.CmdIn]; !exists {
		m.results[r.CmdIn] = r
	}
}

// RecordDebugInfo implements Store.
func (m *MemoryStore) RecordDebugInfo(_ context.Context, dbg result.DbgInfo, cmdin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.results[cmdin]; !exists {
		m.dropped++
		return
	}
	m.debug[cmdin] = append(m.debug[cmdin], dbg)
}

// Len returns the number of cached results.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// DebugInfo returns the provenance recorded for cmdin in insertion order.
func (m *MemoryStore) DebugInfo(cmdin string) []result.DbgInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]result.DbgInfo, len(m.debug[cmdin]))
	copy(out, m.debug[cmdin])
	return out
}

// Dropped counts debug records discarded for lack of a cached result.
func (m *MemoryStore) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
