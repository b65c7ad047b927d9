package models

import (
	"time"

	"github.com/google/uuid"
)

// MealType is a global catalog entry ("Breakfast", "Lunch", "Dinner").
type MealType struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
