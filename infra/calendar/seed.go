package calendar

import (
	"context"
	"time"

	"github.com/medrota/rosterd/core/model"
)

// FixedNationalSeeder returns the fixed-date Turkish national holidays of a
// year. Religious holidays follow the lunar calendar and must be ingested
// from an external source; they are not covered here.
func FixedNationalSeeder(_ context.Context, year int) ([]model.Holiday, error) {
	day := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []model.Holiday{
		{Date: day(time.January, 1), Kind: model.HolidayFull},
		{Date: day(time.April, 23), Kind: model.HolidayFull},
		{Date: day(time.May, 1), Kind: model.HolidayFull},
		{Date: day(time.May, 19), Kind: model.HolidayFull},
		{Date: day(time.July, 15), Kind: model.HolidayFull},
		{Date: day(time.August, 30), Kind: model.HolidayFull},
		{Date: day(time.October, 28), Kind: model.HolidayHalf},
		{Date: day(time.October, 29), Kind: model.HolidayFull},
	}, nil
}
