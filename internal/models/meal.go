package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates. Scheduled dates are
// calendar values, not instants; they are never timezone-converted.
const DateLayout = "2006-01-02"

// Meal is one planned meal on a family's calendar. The recipe and meal
// type are references; they are resolved at display time.
type Meal struct {
	ID            uuid.UUID  `json:"id"`
	FamilyID      uuid.UUID  `json:"family_id"`
	RecipeID      uuid.UUID  `json:"recipe_id"`
	MealTypeID    uuid.UUID  `json:"meal_type_id"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Servings      *int       `json:"servings,omitempty"` // overrides the recipe default when set
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ScheduledDay renders the scheduled date in calendar form.
func (m *Meal) ScheduledDay() string {
	return m.ScheduledDate.Format(DateLayout)
}
