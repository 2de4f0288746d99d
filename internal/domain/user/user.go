package user

import (
	"strings"
	"time"
)

// User is a marketplace account.
type User struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	IsAdmin    bool       `json:"isAdmin"`
	IsDisabled bool       `json:"isDisabled"`
	Verified   bool       `json:"verified"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Role is "admin" or "user".
func (u User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}

// Status is "disabled" or "active".
func (u User) Status() string {
	if u.IsDisabled {
		return "disabled"
	}
	return "active"
}
