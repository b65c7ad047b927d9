package dashboard

import (
	"sort"
	"time"

	"github.com/plateful/plateful-api/internal/models"
)

// WeekDay is one day of the weekly overview widget.
type WeekDay struct {
	Date     string        `json:"date"`
	DayLabel string        `json:"day_label"`
	Meals    []DisplayMeal `json:"meals"`
}

// BuildWeekOverview projects one week of meals, starting at start,
// into seven day buckets. The same enrichment and drop rules as
// BuildUpcomingMeals apply; within a day meals are ordered by meal-type
// sort order, ties by input order.
func BuildWeekOverview(meals []models.Meal, recipes []models.Recipe, mealTypes []models.MealType, now, start time.Time) []WeekDay {
	enriched := enrich(meals, recipes, mealTypes)

	sort.SliceStable(enriched, func(i, j int) bool {
		return sortOrder(enriched[i]) < sortOrder(enriched[j])
	})

	byDay := make(map[string][]enrichedMeal, 7)
	for _, e := range enriched {
		day := e.meal.ScheduledDay()
		byDay[day] = append(byDay[day], e)
	}

	today := now.Format(models.DateLayout)
	week := make([]WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		key := date.Format(models.DateLayout)
		day := WeekDay{
			Date:     key,
			DayLabel: dayLabel(date, today),
			Meals:    []DisplayMeal{},
		}
		for _, e := range byDay[key] {
			day.Meals = append(day.Meals, project(e, today))
		}
		week = append(week, day)
	}
	return week
}

func sortOrder(e enrichedMeal) int {
	if e.mealType == nil {
		// unresolved types sort after the catalog
		return 1 << 30
	}
	return e.mealType.SortOrder
}
