package model

// Person represents a staff member that can be assigned to duty rows.
type Person struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Can reports whether the person holds the given capability.
func (p Person) Can(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Validate checks that the person carries the mandatory identity fields.
func (p Person) Validate() error {
	if p.ID == "" {
		return ValidationError{Field: "personId", Reason: "missing"}
	}
	return nil
}
