package model

// Pin is a forced assignment registered by a planner. Solvers must reproduce
// every pin unchanged; a pin is unique per (day, row) slot.
type Pin struct {
	ID       string `json:"id"`
	Day      int    `json:"day"`
	PersonID string `json:"person_id"`
	RowID    string `json:"row_id"`
}

// Slot returns the roster slot the pin occupies.
func (p Pin) Slot() SlotKey { return SlotKey{Day: p.Day, RowID: p.RowID} }

// Assignment converts the pin into the assignment it forces.
func (p Pin) Assignment() Assignment {
	return Assignment{Day: p.Day, PersonID: p.PersonID, RowID: p.RowID}
}
