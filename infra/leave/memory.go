// Package leave provides an in-memory approved-leave provider.
package leave

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryProvider keeps approved leave dates in memory keyed by person.
// Safe for concurrent use.
type MemoryProvider struct {
	mu     sync.RWMutex
	leaves map[string][]time.Time
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{leaves: make(map[string][]time.Time)}
}

// Grant records leave dates for a person. Duplicate dates are kept once.
func (p *MemoryProvider) Grant(personID string, dates ...time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[string]bool, len(p.leaves[personID]))
	for _, d := range p.leaves[personID] {
		seen[d.Format("2006-01-02")] = true
	}
	for _, d := range dates {
		d = d.UTC().Truncate(24 * time.Hour)
		key := d.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		p.leaves[personID] = append(p.leaves[personID], d)
	}
	sort.Slice(p.leaves[personID], func(i, j int) bool {
		return p.leaves[personID][i].Before(p.leaves[personID][j])
	})
}

// Revoke removes a leave date for a person. Unknown dates are ignored.
func (p *MemoryProvider) Revoke(personID string, date time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := date.UTC().Format("2006-01-02")
	days := p.leaves[personID]
	for i, d := range days {
		if d.Format("2006-01-02") == key {
			p.leaves[personID] = append(days[:i], days[i+1:]...)
			return
		}
	}
}

// LeavesFor returns the blocked dates of the person within [from, to],
// ordered by date.
func (p *MemoryProvider) LeavesFor(_ context.Context, personID string, from, to time.Time) ([]time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var res []time.Time
	for _, d := range p.leaves[personID] {
		if d.Before(from) || d.After(to) {
			continue
		}
		res = append(res, d)
	}
	return res, nil
}
