package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a member account. FamilyID is the user's currently
// selected family; nil until they create or join one.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	ProviderID    *string    `json:"provider_id,omitempty"`
	Name          *string    `json:"name,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	FamilyID      *uuid.UUID `json:"family_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MemberActivity tracks when a member last touched the API. The
// refresher worker uses it to decide which families are worth
// keeping warm.
type MemberActivity struct {
	UserID             uuid.UUID `json:"user_id"`
	LastAPIInteraction time.Time `json:"last_api_interaction"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
