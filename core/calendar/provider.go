// Package calendar defines the holiday calendar collaborator contract. The
// engine only consumes the classification; Gregorian/Hijri conversion and
// external ingestion live behind the provider.
package calendar

import (
	"context"

	"github.com/medrota/rosterd/core/model"
)

// Provider supplies per-date holiday classification.
type Provider interface {
	// HolidaysFor returns the holidays of the given year ordered by date.
	HolidaysFor(ctx context.Context, year int) ([]model.Holiday, error)
	// Generate triggers ingestion for a year whose holidays are absent.
	Generate(ctx context.Context, year int) error
}
