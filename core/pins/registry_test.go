package pins

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrota/rosterd/core/model"
)

func testRoster() Roster {
	return Roster{
		Year:  2026,
		Month: time.March,
		Staff: []model.Person{
			{ID: "p1", Name: "One", Role: "nurse"},
			{ID: "p2", Name: "Two", Role: "nurse"},
		},
		Rows: []model.ShiftRow{
			{ID: "day", Code: "D", StartHour: 8, EndHour: 16, MinHeadcount: 1},
			{ID: "night", Code: "N", StartHour: 16, EndHour: 8, MinHeadcount: 1, Night: true},
		},
	}
}

func TestAddAssignsID(t *testing.T) {
	r := NewRegistry(testRoster())
	p, err := r.Add(model.Pin{Day: 3, PersonID: "p1", RowID: "day"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, r.Len())
}

func TestAddUpsertsBySlot(t *testing.T) {
	r := NewRegistry(testRoster())
	first, err := r.Add(model.Pin{Day: 3, PersonID: "p1", RowID: "day"})
	require.NoError(t, err)
	second, err := r.Add(model.Pin{Day: 3, PersonID: "p2", RowID: "day"})
	require.NoError(t, err)

	require.Equal(t, 1, r.Len())
	got := r.List()[0]
	assert.Equal(t, "p2", got.PersonID)
	assert.Equal(t, second.ID, got.ID)
	assert.NotEqual(t, first.ID, got.ID)
}

func TestAddValidation(t *testing.T) {
	r := NewRegistry(testRoster())
	cases := []struct {
		name string
		pin  model.Pin
	}{
		{"day too small", model.Pin{Day: 0, PersonID: "p1", RowID: "day"}},
		{"day past month end", model.Pin{Day: 32, PersonID: "p1", RowID: "day"}},
		{"missing person", model.Pin{Day: 1, RowID: "day"}},
		{"missing row", model.Pin{Day: 1, PersonID: "p1"}},
		{"unknown person", model.Pin{Day: 1, PersonID: "ghost", RowID: "day"}},
		{"unknown row", model.Pin{Day: 1, PersonID: "p1", RowID: "ghost"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := r.Add(c.pin)
			var verr model.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
	assert.Equal(t, 0, r.Len())
}

func TestRemoveIdempotent(t *testing.T) {
	r := NewRegistry(testRoster())
	p, err := r.Add(model.Pin{Day: 5, PersonID: "p1", RowID: "night"})
	require.NoError(t, err)

	r.Remove(p.ID)
	assert.Equal(t, 0, r.Len())
	r.Remove(p.ID)
	r.Remove("never-existed")
	assert.Equal(t, 0, r.Len())
}

func TestListOrdered(t *testing.T) {
	r := NewRegistry(testRoster())
	_, err := r.Add(model.Pin{Day: 10, PersonID: "p1", RowID: "night"})
	require.NoError(t, err)
	_, err = r.Add(model.Pin{Day: 2, PersonID: "p2", RowID: "day"})
	require.NoError(t, err)
	_, err = r.Add(model.Pin{Day: 10, PersonID: "p2", RowID: "day"})
	require.NoError(t, err)

	got := r.List()
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Day)
	assert.Equal(t, "day", got[1].RowID)
	assert.Equal(t, "night", got[2].RowID)
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry(testRoster())
	_, err := r.Add(model.Pin{Day: 1, PersonID: "p1", RowID: "day"})
	require.NoError(t, err)

	snap := r.Snapshot()
	_, err = r.Add(model.Pin{Day: 2, PersonID: "p2", RowID: "day"})
	require.NoError(t, err)

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, r.Len())
}

func TestConcurrentAddRemove(t *testing.T) {
	r := NewRegistry(testRoster())
	var wg sync.WaitGroup
	for day := 1; day <= 28; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			p, err := r.Add(model.Pin{Day: day, PersonID: "p1", RowID: "day"})
			if err != nil {
				t.Errorf("add day %d: %v", day, err)
				return
			}
			if day%2 == 0 {
				r.Remove(p.ID)
			}
		}(day)
	}
	wg.Wait()
	assert.Equal(t, 14, r.Len())
}
