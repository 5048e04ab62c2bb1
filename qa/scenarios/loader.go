// Package scenarios runs declarative end-to-end solves described in YAML.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/medrota/rosterd/core/model"
)

type ScopeDef struct {
	SectionID string `yaml:"section_id"`
	ServiceID string `yaml:"service_id"`
	Role      string `yaml:"role"`
}

func (s ScopeDef) ToModel() model.Scope {
	return model.Scope{SectionID: s.SectionID, ServiceID: s.ServiceID, Role: s.Role}
}

type RowDef struct {
	ID           string `yaml:"id"`
	Code         string `yaml:"code"`
	Label        string `yaml:"label,omitempty"`
	StartHour    int    `yaml:"start_hour"`
	EndHour      int    `yaml:"end_hour"`
	MinHeadcount int    `yaml:"min_headcount"`
	Night        bool   `yaml:"night,omitempty"`
}

func (r RowDef) ToModel() model.ShiftRow {
	return model.ShiftRow{
		ID:           r.ID,
		Code:         r.Code,
		Label:        r.Label,
		StartHour:    r.StartHour,
		EndHour:      r.EndHour,
		MinHeadcount: r.MinHeadcount,
		Night:        r.Night,
	}
}

type PersonDef struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Capabilities []string `yaml:"capabilities,omitempty"`
}

func (p PersonDef) ToModel() model.Person {
	return model.Person{ID: p.ID, Name: p.Name, Role: p.Role, Capabilities: p.Capabilities}
}

type PinDef struct {
	Day      int    `yaml:"day"`
	PersonID string `yaml:"person_id"`
	RowID    string `yaml:"row_id"`
}

func (p PinDef) ToModel() model.Pin {
	return model.Pin{Day: p.Day, PersonID: p.PersonID, RowID: p.RowID}
}

type Expected struct {
	MaxOpenSlots      int  `yaml:"max_open_slots"`
	MaxHardViolations int  `yaml:"max_hard_violations"`
	PinsKept          bool `yaml:"pins_kept"`
}

type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Scope       ScopeDef            `yaml:"scope"`
	Year        int                 `yaml:"year"`
	Month       int                 `yaml:"month"`
	Rows        []RowDef            `yaml:"rows"`
	Staff       []PersonDef         `yaml:"staff"`
	Pins        []PinDef            `yaml:"pins,omitempty"`
	Leaves      map[string][]string `yaml:"leaves,omitempty"`
	Expected    Expected            `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
