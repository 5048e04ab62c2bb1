// Package calendar provides holiday provider implementations backed by
// memory and SQLite.
package calendar

import (
	"context"
	"sort"
	"sync"

	"github.com/medrota/rosterd/core/model"
)

// Seeder produces the holidays of a year on demand. Implementations
// typically wrap a national holiday table or an external API.
type Seeder func(ctx context.Context, year int) ([]model.Holiday, error)

// MemoryProvider keeps holidays in memory keyed by year. Generate fills a
// missing year through the optional seeder. Safe for concurrent use.
type MemoryProvider struct {
	mu    sync.RWMutex
	years map[int][]model.Holiday
	seed  Seeder
}

// NewMemoryProvider creates an empty MemoryProvider. The seeder may be nil,
// in which case Generate produces empty years.
func NewMemoryProvider(seed Seeder) *MemoryProvider {
	return &MemoryProvider{years: make(map[int][]model.Holiday), seed: seed}
}

// Put replaces the holidays stored for a year.
func (p *MemoryProvider) Put(year int, holidays []model.Holiday) {
	sorted := append([]model.Holiday(nil), holidays...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	p.mu.Lock()
	p.years[year] = sorted
	p.mu.Unlock()
}

// HolidaysFor returns the holidays of the year ordered by date. A year
// that was never generated yields an empty slice.
func (p *MemoryProvider) HolidaysFor(_ context.Context, year int) ([]model.Holiday, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.Holiday(nil), p.years[year]...), nil
}

// Generate ingests the year through the seeder if it is not stored yet.
func (p *MemoryProvider) Generate(ctx context.Context, year int) error {
	p.mu.RLock()
	_, ok := p.years[year]
	p.mu.RUnlock()
	if ok {
		return nil
	}
	var holidays []model.Holiday
	if p.seed != nil {
		var err error
		holidays, err = p.seed(ctx, year)
		if err != nil {
			return err
		}
	}
	p.Put(year, holidays)
	return nil
}
