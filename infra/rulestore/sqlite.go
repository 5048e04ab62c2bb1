package rulestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// SQLiteStore persists rule sets in a SQLite database, one JSON document
// per scope.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS rule_sets (
        scope TEXT PRIMARY KEY,
        version INTEGER,
        payload TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Fetch loads the rule set stored for the scope.
func (s *SQLiteStore) Fetch(ctx context.Context, scope model.Scope) (rules.RuleSet, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM rule_sets WHERE scope = ?`, scope.Key()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return rules.RuleSet{}, false, nil
	}
	if err != nil {
		return rules.RuleSet{}, false, err
	}
	var rs rules.RuleSet
	if err := json.Unmarshal([]byte(payload), &rs); err != nil {
		return rules.RuleSet{}, false, err
	}
	return rs, true, nil
}

// Save writes the rule set as JSON, replacing any previous version for
// the scope.
func (s *SQLiteStore) Save(ctx context.Context, scope model.Scope, rs rules.RuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(rs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rule_sets (scope, version, payload) VALUES (?, ?, ?)
        ON CONFLICT(scope) DO UPDATE SET version = excluded.version, payload = excluded.payload`,
		scope.Key(), rs.Version, string(payload))
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
