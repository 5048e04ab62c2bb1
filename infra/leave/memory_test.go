package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGrantDeduplicates(t *testing.T) {
	p := NewMemoryProvider()
	p.Grant("a1", date(2026, time.March, 5), date(2026, time.March, 5))
	p.Grant("a1", date(2026, time.March, 5))

	got, err := p.LeavesFor(context.Background(), "a1",
		date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGrantSortsAcrossCalls(t *testing.T) {
	p := NewMemoryProvider()
	p.Grant("a1", date(2026, time.March, 20))
	p.Grant("a1", date(2026, time.March, 3), date(2026, time.March, 11))

	got, err := p.LeavesFor(context.Background(), "a1",
		date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Day())
	assert.Equal(t, 11, got[1].Day())
	assert.Equal(t, 20, got[2].Day())
}

func TestGrantNormalizesTime(t *testing.T) {
	p := NewMemoryProvider()
	// Same calendar date at different hours collapses to one entry.
	p.Grant("a1", time.Date(2026, time.March, 5, 9, 30, 0, 0, time.UTC))
	p.Grant("a1", time.Date(2026, time.March, 5, 17, 0, 0, 0, time.UTC))

	got, err := p.LeavesFor(context.Background(), "a1",
		date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRevoke(t *testing.T) {
	p := NewMemoryProvider()
	p.Grant("a1", date(2026, time.March, 5), date(2026, time.March, 6))
	p.Revoke("a1", date(2026, time.March, 5))
	p.Revoke("a1", date(2026, time.March, 9)) // unknown date is a no-op
	p.Revoke("zz", date(2026, time.March, 5)) // unknown person too

	got, err := p.LeavesFor(context.Background(), "a1",
		date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].Day())
}

func TestLeavesForRangeIsInclusive(t *testing.T) {
	p := NewMemoryProvider()
	p.Grant("a1",
		date(2026, time.February, 28),
		date(2026, time.March, 1),
		date(2026, time.March, 31),
		date(2026, time.April, 1),
	)

	got, err := p.LeavesFor(context.Background(), "a1",
		date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.March, got[0].Month())
	assert.Equal(t, time.March, got[1].Month())
}

func TestLeavesForUnknownPerson(t *testing.T) {
	p := NewMemoryProvider()
	got, err := p.LeavesFor(context.Background(), "ghost",
		date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
}
