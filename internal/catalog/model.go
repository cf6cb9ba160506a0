package catalog

import "slices"

// Service is a bookable treatment with a fixed template of slot labels.
type Service struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Slots []string `json:"slots"`
}

// ServiceName is the projection served by /appointmentSpecialty.
type ServiceName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HasSlot reports whether label is part of the service's slot template.
func (s Service) HasSlot(label string) bool {
	return slices.Contains(s.Slots, label)
}

// Clone returns a deep copy so callers can mutate the slot list.
func (s Service) Clone() Service {
	s.Slots = slices.Clone(s.Slots)
	if s.Slots == nil {
		s.Slots = []string{}
	}
	return s
}
