package solver

import "fmt"

// UpstreamError reports that a collaborator stayed unavailable through the
// retry budget. CacheUsed tells the caller the operation went on with the
// last-known snapshot instead of failing outright.
type UpstreamError struct {
	Upstream  string
	CacheUsed bool
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.CacheUsed {
		return fmt.Sprintf("%s unavailable, served from cache: %v", e.Upstream, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Upstream, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
