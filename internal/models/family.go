package models

import (
	"time"

	"github.com/google/uuid"
)

// FamilyRole represents a member's role within a family
type FamilyRole string

const (
	FamilyRoleOwner  FamilyRole = "owner"
	FamilyRoleMember FamilyRole = "member"
)

// Family is the tenant boundary: every meal and recipe belongs to
// exactly one family, and every query is scoped to one.
type Family struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FamilyMembership binds a user to a family with a role.
type FamilyMembership struct {
	FamilyID  uuid.UUID  `json:"family_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      FamilyRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// FamilyPreferences holds a family's dietary preferences used by the
// meal suggestion service.
type FamilyPreferences struct {
	ID          uuid.UUID `json:"id"`
	FamilyID    uuid.UUID `json:"family_id"`
	Diet        *string   `json:"diet,omitempty"`         // e.g. "vegetarian"
	Allergies   []string  `json:"allergies,omitempty"`
	Dislikes    []string  `json:"dislikes,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
