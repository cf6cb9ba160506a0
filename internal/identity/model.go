package identity

import (
	"strings"
	"time"
)

// Role is the single capability bit attached to a user.
type Role string

const (
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
)

// User is a known clinic account, keyed by email.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate normalizes the email and checks required fields.
func (r *CreateUserRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address so lookups are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
