// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"sort"
	"sync"
)

// RecordMap aggregates resolution records as they trickle in from a Digger's
// news channel, keyed by hostname. It turns the nondeterministic completion
// order of the dispatcher into deterministic, diffable report views: records
// sorted by hostname and the derived list of valid hostnames.
type RecordMap struct {
	mu sync.Mutex
	m  map[string]ResolutionRecord
}

// NewRecordMap returns a new and properly initialized RecordMap.
func NewRecordMap() *RecordMap {
	return &RecordMap{
		m: map[string]ResolutionRecord{},
	}
}

// Update the map with a resolution record. A record received again for the
// same hostname replaces the previous one.
func (m *RecordMap) Update(rec ResolutionRecord) {
	if rec.Hostname == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[rec.Hostname] = rec
}

// Track resolution records received from the specified news channel until the
// channel is closed or the context done. Track only returns after processing
// all records or when the context is done.
func (m *RecordMap) Track(ctx context.Context, news <-chan ResolutionRecord) error {
	for {
		select {
		case rec, ok := <-news:
			if !ok {
				return nil
			}
			m.Update(rec)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len returns the number of aggregated records.
func (m *RecordMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

// Records returns all aggregated resolution records, sorted lexicographically
// by hostname.
func (m *RecordMap) Records() []ResolutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]ResolutionRecord, 0, len(m.m))
	for _, rec := range m.m {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(a, b int) bool { return recs[a].Hostname < recs[b].Hostname })
	return recs
}

// ValidHostnames returns the hostnames with at least one resolved address,
// sorted lexicographically.
func (m *RecordMap) ValidHostnames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.m))
	for name, rec := range m.m {
		if rec.Valid() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
