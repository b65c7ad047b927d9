package dashboard

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

// DefaultUpcomingLimit is how many upcoming meals the dashboard card shows.
const DefaultUpcomingLimit = 3

// shortDateLayout renders the card's secondary date line, e.g. "Jun 10".
const shortDateLayout = "Jan 2"

// DisplayMeal is the projection of one enriched meal that the dashboard
// card needs. Optional fields are omitted rather than zeroed.
type DisplayMeal struct {
	ID            uuid.UUID `json:"id"`
	DayLabel      string    `json:"day_label"`
	Date          string    `json:"date"`
	ScheduledDate string    `json:"scheduled_date"`
	RecipeName    string    `json:"recipe_name"`
	ImageURL      *string   `json:"image_url,omitempty"`
	MealType      string    `json:"meal_type,omitempty"`
	Servings      int       `json:"servings"`
	TotalMinutes  *int      `json:"total_minutes,omitempty"`
	Tag           *string   `json:"tag,omitempty"`
}

// enrichedMeal is a meal joined with its resolved references. It only
// lives for the duration of one BuildUpcomingMeals call.
type enrichedMeal struct {
	meal     models.Meal
	recipe   *models.Recipe
	mealType *models.MealType
}

// BuildUpcomingMeals joins meals to recipes and meal types, drops meals
// whose recipe reference does not resolve, sorts ascending by calendar
// date (stable, ties keep input order) and returns at most limit
// entries, each projected for display.
//
// It is a pure function of its inputs: no clock reads, no mutation, no
// error paths. A malformed record (nil ID, zero date) or an orphaned
// recipe reference degrades to omission rather than failing the whole
// dashboard.
func BuildUpcomingMeals(meals []models.Meal, recipes []models.Recipe, mealTypes []models.MealType, now time.Time, limit int) []DisplayMeal {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	enriched := enrich(meals, recipes, mealTypes)

	// Lexical order on the ISO-8601 rendering matches calendar order
	// exactly, with no timezone conversion involved.
	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].meal.ScheduledDay() < enriched[j].meal.ScheduledDay()
	})

	if len(enriched) > limit {
		enriched = enriched[:limit]
	}

	today := now.Format(models.DateLayout)
	display := make([]DisplayMeal, 0, len(enriched))
	for _, e := range enriched {
		display = append(display, project(e, today))
	}
	return display
}

// enrich indexes the reference collections once and joins each
// displayable meal to them. Meals missing a required field or whose
// recipe does not resolve are excluded here; an unresolved meal type is
// cosmetic only and kept.
func enrich(meals []models.Meal, recipes []models.Recipe, mealTypes []models.MealType) []enrichedMeal {
	recipesByID := make(map[uuid.UUID]*models.Recipe, len(recipes))
	for i := range recipes {
		recipesByID[recipes[i].ID] = &recipes[i]
	}
	typesByID := make(map[uuid.UUID]*models.MealType, len(mealTypes))
	for i := range mealTypes {
		typesByID[mealTypes[i].ID] = &mealTypes[i]
	}

	enriched := make([]enrichedMeal, 0, len(meals))
	for _, m := range meals {
		if m.ID == uuid.Nil || m.ScheduledDate.IsZero() {
			continue
		}
		recipe, ok := recipesByID[m.RecipeID]
		if !ok {
			continue
		}
		enriched = append(enriched, enrichedMeal{
			meal:     m,
			recipe:   recipe,
			mealType: typesByID[m.MealTypeID],
		})
	}
	return enriched
}

func project(e enrichedMeal, today string) DisplayMeal {
	d := DisplayMeal{
		ID:            e.meal.ID,
		DayLabel:      dayLabel(e.meal.ScheduledDate, today),
		Date:          e.meal.ScheduledDate.Format(shortDateLayout),
		ScheduledDate: e.meal.ScheduledDay(),
		RecipeName:    e.recipe.Name,
		ImageURL:      e.recipe.ImageURL,
		Servings:      effectiveServings(e.meal, e.recipe),
		TotalMinutes:  e.recipe.TotalMinutes(),
		Tag:           e.recipe.FirstTag(),
	}
	if e.mealType != nil {
		d.MealType = e.mealType.Name
	}
	return d
}

// dayLabel compares calendar dates, not instants, so a label can never
// disagree with the single now reference of the invocation.
func dayLabel(scheduled time.Time, today string) string {
	if scheduled.Format(models.DateLayout) == today {
		return "Today"
	}
	return scheduled.Weekday().String()
}

func effectiveServings(m models.Meal, r *models.Recipe) int {
	if m.Servings != nil {
		return *m.Servings
	}
	return r.Servings
}
