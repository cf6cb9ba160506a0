package doctors

import (
	"strings"
	"time"
)

// Doctor is a display-only registry entry. It has no link to bookings.
type Doctor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Specialty string    `json:"specialty"`
	Services  []string  `json:"services"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateDoctorRequest is the POST /doctors body.
type CreateDoctorRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Specialty string   `json:"specialty"`
	Services  []string `json:"services"`
	Image     string   `json:"image"`
}

// Validate trims the request and checks required fields.
func (r *CreateDoctorRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Specialty = strings.TrimSpace(r.Specialty)
	r.Image = strings.TrimSpace(r.Image)

	if r.Name == "" {
		return ErrNameRequired
	}
	if r.Specialty == "" {
		return ErrSpecialtyRequired
	}

	services := make([]string, 0, len(r.Services))
	for _, s := range r.Services {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	r.Services = services
	return nil
}
