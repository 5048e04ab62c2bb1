package model

import "fmt"

// Severity distinguishes constraints that must hold from those that only cost
// score.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Violation describes one broken scheduling constraint over a day range.
// PersonID and RowID are filled when the violation concerns a specific person
// or row.
type Violation struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	FromDay  int      `json:"from_day"`
	ToDay    int      `json:"to_day"`
	PersonID string   `json:"person_id,omitempty"`
	RowID    string   `json:"row_id,omitempty"`
	// Count is the magnitude of the violation where one applies, such as
	// the missing headcount of a coverage violation.
	Count   int    `json:"count,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%s] days %d-%d: %s", v.RuleID, v.Severity, v.FromDay, v.ToDay, v.Message)
}

// HasHard reports whether the list contains at least one hard violation.
func HasHard(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityHard {
			return true
		}
	}
	return false
}
