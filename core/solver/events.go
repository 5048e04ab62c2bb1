package solver

// StageEvent reports progress of a solve stage on the event bus.
type StageEvent struct {
	RunID  string
	Stage  string
	Action string // "start", "finish", "cancelled"
	Score  float64
	Err    error
}

// UpstreamEvent reports a collaborator call outcome, including degraded
// cache-served fetches.
type UpstreamEvent struct {
	Upstream string // "rulestore", "calendar", "leave"
	Action   string // "retry", "exhausted", "cache_hit"
	Err      error
}
