// Package leave defines the approved-leave collaborator contract.
package leave

import (
	"context"
	"time"
)

// Provider reports approved leave dates per person.
type Provider interface {
	// LeavesFor returns the blocked dates of the person within [from, to].
	LeavesFor(ctx context.Context, personID string, from, to time.Time) ([]time.Time, error)
}
