package suggest

import (
	"context"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// Request carries everything a provider needs to propose meals for a
// family: the recipe catalog, the family's dietary preferences, and
// the calendar days that still have no planned meal.
type Request struct {
	Recipes     []models.Recipe
	Preferences *models.FamilyPreferences
	Days        []string // ISO-8601 calendar dates needing a suggestion
	Count       int      // maximum number of suggestions to return
}

// Suggestion is one proposed meal. RecipeID is set when the suggestion
// matched a recipe in the family's catalog; otherwise only the name is
// filled in and the family can add the recipe themselves.
type Suggestion struct {
	Date       string     `json:"date"`
	MealType   string     `json:"meal_type,omitempty"`
	RecipeID   *uuid.UUID `json:"recipe_id,omitempty"`
	RecipeName string     `json:"recipe_name"`
	Reason     string     `json:"reason,omitempty"`
}

// Provider is the interface for meal suggestion providers
type Provider interface {
	// SuggestMeals proposes meals for the unplanned days in the request
	SuggestMeals(ctx context.Context, req Request) ([]Suggestion, error)
}
