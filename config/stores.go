package config

import (
	"fmt"
)

// StoresConfig defines settings for rule set and holiday persistence.
type StoresConfig struct {
	// Backend selects the store type: "memory" or "sqlite".
	Backend string `json:"backend"`
	// RulesPath is the file location of the SQLite rule set store.
	RulesPath string `json:"rules_path"`
	// CalendarPath is the file location of the SQLite holiday store.
	CalendarPath string `json:"calendar_path"`
}

// SetDefaults applies sane defaults.
func (c *StoresConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.RulesPath == "" {
		c.RulesPath = "rules.db"
	}
	if c.CalendarPath == "" {
		c.CalendarPath = "calendar.db"
	}
}

// Validate checks mandatory fields.
func (c StoresConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && (c.RulesPath == "" || c.CalendarPath == "") {
		return fmt.Errorf("sqlite backend requires rules_path and calendar_path")
	}
	return nil
}
