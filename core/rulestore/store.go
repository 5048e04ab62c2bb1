// Package rulestore defines the contract of the external rule store
// collaborator. Implementations live under infra.
package rulestore

import (
	"context"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// Store persists one RuleSet per scope.
type Store interface {
	// Fetch returns the rule set for the scope. The boolean is false when
	// no document exists for the scope.
	Fetch(ctx context.Context, scope model.Scope) (rules.RuleSet, bool, error)
	// Save persists the rule set under its scope, replacing any previous
	// version.
	Save(ctx context.Context, scope model.Scope, rs rules.RuleSet) error
}
