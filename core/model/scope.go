package model

import "fmt"

// Scope identifies which RuleSet applies: a (section, service, role) tuple.
type Scope struct {
	SectionID string `json:"section_id"`
	ServiceID string `json:"service_id"`
	Role      string `json:"role"`
}

// Key returns a stable string representation usable as a storage key.
func (s Scope) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.SectionID, s.ServiceID, s.Role)
}
