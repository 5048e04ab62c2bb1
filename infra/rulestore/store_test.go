package rulestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

var storeScope = model.Scope{SectionID: "icu", ServiceID: "surgery", Role: "nurse"}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, found, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	assert.False(t, found)

	rs := rules.Default(storeScope)
	rs.Basic.MaxConsecutiveDays = 4
	require.NoError(t, store.Save(ctx, storeScope, rs))

	got, found, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 4, got.Basic.MaxConsecutiveDays)
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	store := NewMemoryStore()
	err := store.Save(context.Background(), storeScope, rules.RuleSet{Scope: storeScope})
	require.Error(t, err)
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rs := rules.Default(storeScope)
	require.NoError(t, store.Save(ctx, storeScope, rs))

	// Mutating the caller's copy must not leak into the store.
	rs.Basic.MaxConsecutiveDays = 1

	got, _, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	assert.NotEqual(t, 1, got.Basic.MaxConsecutiveDays)

	got.Basic.MaxConsecutiveDays = 2
	again, _, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	assert.NotEqual(t, 2, again.Basic.MaxConsecutiveDays)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	assert.False(t, found)

	rs := rules.Default(storeScope)
	rs.Version = 3
	require.NoError(t, store.Save(ctx, storeScope, rs))

	got, found, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, rs.Basic, got.Basic)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	defer store.Close()

	rs := rules.Default(storeScope)
	require.NoError(t, store.Save(ctx, storeScope, rs))

	rs.Version = 2
	rs.Basic.MaxConsecutiveDays = 5
	require.NoError(t, store.Save(ctx, storeScope, rs))

	got, found, err := store.Fetch(ctx, storeScope)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 5, got.Basic.MaxConsecutiveDays)
}

func TestSQLiteStoreScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	defer store.Close()

	other := model.Scope{SectionID: "er", ServiceID: "triage", Role: "doctor"}
	require.NoError(t, store.Save(ctx, storeScope, rules.Default(storeScope)))

	_, found, err := store.Fetch(ctx, other)
	require.NoError(t, err)
	assert.False(t, found)
}
