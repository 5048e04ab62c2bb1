package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `solver:
  max_iterations: 250
  leave_policy: "soft"
  require_eligibility: true
  target_hours: 160
metrics:
  prometheus_enabled: true
  prometheus_port: ":2112"
stores:
  backend: "sqlite"
  rules_path: "rules.db"
  calendar_path: "calendar.db"
retry:
  attempts: 4
  backoff_ms: 100
  timeout_ms: 2000
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"max_iterations", cfg.Solver.MaxIterations, 250},
		{"leave_policy", cfg.Solver.LeavePolicy, "soft"},
		{"require_eligibility", cfg.Solver.RequireEligibility, true},
		{"target_hours", cfg.Solver.TargetHours, 160.0},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":2112"},
		{"backend", cfg.Stores.Backend, "sqlite"},
		{"attempts", cfg.Retry.Attempts, 4},
		{"backoff_ms", cfg.Retry.BackoffMS, 100},
		{"level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Solver.MaxIterations == 0 {
		t.Errorf("max_iterations default missing")
	}
	if cfg.Solver.LeavePolicy != "hard" {
		t.Errorf("leave_policy default mismatch: %s", cfg.Solver.LeavePolicy)
	}
	if cfg.Stores.Backend != "memory" {
		t.Errorf("backend default mismatch: %s", cfg.Stores.Backend)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("attempts default mismatch: %d", cfg.Retry.Attempts)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("level default mismatch: %s", cfg.Logging.Level)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
