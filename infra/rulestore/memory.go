// Package rulestore provides rule set store implementations backed by
// memory and SQLite.
package rulestore

import (
	"context"
	"sync"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// MemoryStore keeps rule sets in memory keyed by scope. Safe for
// concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]rules.RuleSet
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]rules.RuleSet)}
}

// Fetch returns the rule set for the scope. The boolean reports whether a
// rule set was found.
func (s *MemoryStore) Fetch(_ context.Context, scope model.Scope) (rules.RuleSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.sets[scope.Key()]
	if !ok {
		return rules.RuleSet{}, false, nil
	}
	return rs.Clone(), true, nil
}

// Save stores a copy of the rule set under its scope, replacing any
// previous version.
func (s *MemoryStore) Save(_ context.Context, scope model.Scope, rs rules.RuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[scope.Key()] = rs.Clone()
	return nil
}
