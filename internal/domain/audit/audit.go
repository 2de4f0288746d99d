package audit

import "time"

// Entry is one admin action recorded by the marketplace.
type Entry struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"adminId"`
	AdminEmail string    `json:"adminEmail,omitempty"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
