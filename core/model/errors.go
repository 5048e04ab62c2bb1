package model

import (
	"fmt"
	"time"
)

// Year bounds accepted by the solvers. Inputs outside this range are rejected
// with a ValidationError before any work happens.
const (
	MinYear = 2000
	MaxYear = 2100
)

// ValidationError reports malformed input. It is returned before any state is
// touched, so a failed call is never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateYearMonth checks the common year/month bounds shared by all solve
// entry points. Month is 1-based.
func ValidateYearMonth(year int, month time.Month) error {
	if year < MinYear || year > MaxYear {
		return ValidationError{Field: "year", Reason: fmt.Sprintf("must be within [%d,%d]", MinYear, MaxYear)}
	}
	if month < time.January || month > time.December {
		return ValidationError{Field: "month", Reason: "must be within [1,12]"}
	}
	return nil
}

// DaysIn returns the number of calendar days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
