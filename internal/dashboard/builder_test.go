package dashboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
)

func date(t *testing.T, day string) time.Time {
	t.Helper()
	parsed, err := time.Parse(models.DateLayout, day)
	if err != nil {
		t.Fatalf("bad test date %q: %v", day, err)
	}
	return parsed
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func meal(id, recipeID uuid.UUID, day time.Time) models.Meal {
	return models.Meal{ID: id, RecipeID: recipeID, ScheduledDate: day}
}

func recipe(id uuid.UUID, name string, servings int) models.Recipe {
	return models.Recipe{ID: id, Name: name, Servings: servings}
}

func TestBuildUpcomingMeals_SortsAndLabels(t *testing.T) {
	t.Parallel()

	pastaID, soupID := uuid.New(), uuid.New()
	recipes := []models.Recipe{
		recipe(pastaID, "Pasta", 4),
		recipe(soupID, "Soup", 2),
	}
	meals := []models.Meal{
		meal(uuid.New(), pastaID, date(t, "2024-06-10")),
		meal(uuid.New(), soupID, date(t, "2024-06-08")),
	}

	got := BuildUpcomingMeals(meals, recipes, nil, date(t, "2024-06-08"), 3)

	if len(got) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(got))
	}
	if got[0].RecipeName != "Soup" || got[1].RecipeName != "Pasta" {
		t.Errorf("expected [Soup, Pasta] order, got [%s, %s]", got[0].RecipeName, got[1].RecipeName)
	}
	if got[0].DayLabel != "Today" {
		t.Errorf("expected first meal labeled Today, got %q", got[0].DayLabel)
	}
	// 2024-06-10 is a Monday
	if got[1].DayLabel != "Monday" {
		t.Errorf("expected weekday label Monday, got %q", got[1].DayLabel)
	}
	if got[0].Date != "Jun 8" {
		t.Errorf("expected short date 'Jun 8', got %q", got[0].Date)
	}
}

func TestBuildUpcomingMeals_DropsUnresolvedRecipes(t *testing.T) {
	t.Parallel()

	knownID := uuid.New()
	recipes := []models.Recipe{recipe(knownID, "Tacos", 4)}
	meals := []models.Meal{
		meal(uuid.New(), knownID, date(t, "2024-06-08")),
		meal(uuid.New(), uuid.New(), date(t, "2024-06-07")), // recipe deleted
	}

	got := BuildUpcomingMeals(meals, recipes, nil, date(t, "2024-06-07"), 3)

	if len(got) != 1 {
		t.Fatalf("expected orphaned meal to be dropped, got %d meals", len(got))
	}
	if got[0].RecipeName != "Tacos" {
		t.Errorf("expected Tacos, got %q", got[0].RecipeName)
	}
}

func TestBuildUpcomingMeals_TruncatesToLimit(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Stew", 4)}

	days := []string{"2024-06-12", "2024-06-09", "2024-06-11", "2024-06-08", "2024-06-10"}
	meals := make([]models.Meal, 0, len(days))
	for _, d := range days {
		meals = append(meals, meal(uuid.New(), recipeID, date(t, d)))
	}

	got := BuildUpcomingMeals(meals, recipes, nil, date(t, "2024-06-08"), 3)

	if len(got) != 3 {
		t.Fatalf("expected exactly 3 meals, got %d", len(got))
	}
	want := []string{"2024-06-08", "2024-06-09", "2024-06-10"}
	for i, day := range want {
		if got[i].ScheduledDate != day {
			t.Errorf("position %d: expected %s, got %s", i, day, got[i].ScheduledDate)
		}
	}
}

func TestBuildUpcomingMeals_EmptyInput(t *testing.T) {
	t.Parallel()

	got := BuildUpcomingMeals(nil, nil, nil, time.Now(), 3)
	if len(got) != 0 {
		t.Errorf("expected empty output for empty input, got %d entries", len(got))
	}
}

func TestBuildUpcomingMeals_ServingsOverride(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Curry", 4)}

	overridden := meal(uuid.New(), recipeID, date(t, "2024-06-08"))
	overridden.Servings = intPtr(6)
	defaulted := meal(uuid.New(), recipeID, date(t, "2024-06-09"))

	got := BuildUpcomingMeals([]models.Meal{overridden, defaulted}, recipes, nil, date(t, "2024-06-08"), 3)

	if len(got) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(got))
	}
	if got[0].Servings != 6 {
		t.Errorf("expected override servings 6, got %d", got[0].Servings)
	}
	if got[1].Servings != 4 {
		t.Errorf("expected recipe default servings 4, got %d", got[1].Servings)
	}
}

func TestBuildUpcomingMeals_OptionalFields(t *testing.T) {
	t.Parallel()

	fullID, bareID := uuid.New(), uuid.New()
	full := models.Recipe{
		ID:          fullID,
		Name:        "Lasagna",
		ImageURL:    strPtr("https://img.example/lasagna.jpg"),
		PrepMinutes: intPtr(20),
		CookMinutes: intPtr(40),
		Tags:        []string{"italian", "baked"},
		Servings:    6,
	}
	// prep time known, cook time not: no duration line
	bare := models.Recipe{ID: bareID, Name: "Salad", PrepMinutes: intPtr(10), Servings: 2}

	typeID := uuid.New()
	mealTypes := []models.MealType{{ID: typeID, Name: "Dinner"}}

	withType := meal(uuid.New(), fullID, date(t, "2024-06-08"))
	withType.MealTypeID = typeID
	withoutType := meal(uuid.New(), bareID, date(t, "2024-06-09"))

	got := BuildUpcomingMeals([]models.Meal{withType, withoutType}, []models.Recipe{full, bare}, mealTypes, date(t, "2024-06-08"), 3)

	if len(got) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(got))
	}
	if got[0].TotalMinutes == nil || *got[0].TotalMinutes != 60 {
		t.Errorf("expected total 60 minutes, got %v", got[0].TotalMinutes)
	}
	if got[0].Tag == nil || *got[0].Tag != "italian" {
		t.Errorf("expected first tag 'italian', got %v", got[0].Tag)
	}
	if got[0].MealType != "Dinner" {
		t.Errorf("expected meal type Dinner, got %q", got[0].MealType)
	}
	if got[1].TotalMinutes != nil {
		t.Errorf("expected no duration when cook time missing, got %v", got[1].TotalMinutes)
	}
	if got[1].ImageURL != nil {
		t.Errorf("expected no image, got %v", got[1].ImageURL)
	}
	// unresolved meal type is cosmetic only: meal stays, field stays blank
	if got[1].MealType != "" {
		t.Errorf("expected blank meal type, got %q", got[1].MealType)
	}
}

func TestBuildUpcomingMeals_DropsMalformedRecords(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Chili", 4)}

	noID := models.Meal{RecipeID: recipeID, ScheduledDate: date(t, "2024-06-08")}
	noDate := models.Meal{ID: uuid.New(), RecipeID: recipeID}
	valid := meal(uuid.New(), recipeID, date(t, "2024-06-09"))

	got := BuildUpcomingMeals([]models.Meal{noID, noDate, valid}, recipes, nil, date(t, "2024-06-08"), 3)

	if len(got) != 1 {
		t.Fatalf("expected only the well-formed meal, got %d", len(got))
	}
	if got[0].ScheduledDate != "2024-06-09" {
		t.Errorf("unexpected survivor: %+v", got[0])
	}
}

func TestBuildUpcomingMeals_StableOnDateTies(t *testing.T) {
	t.Parallel()

	firstID, secondID := uuid.New(), uuid.New()
	recipes := []models.Recipe{
		recipe(firstID, "First", 2),
		recipe(secondID, "Second", 2),
	}
	day := date(t, "2024-06-08")
	meals := []models.Meal{
		meal(uuid.New(), firstID, day),
		meal(uuid.New(), secondID, day),
	}

	got := BuildUpcomingMeals(meals, recipes, nil, day, 3)

	if len(got) != 2 || got[0].RecipeName != "First" || got[1].RecipeName != "Second" {
		t.Errorf("expected input order preserved on ties, got %+v", got)
	}
}

func TestBuildUpcomingMeals_Idempotent(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Risotto", 3)}
	meals := []models.Meal{
		meal(uuid.New(), recipeID, date(t, "2024-06-10")),
		meal(uuid.New(), recipeID, date(t, "2024-06-09")),
	}
	now := date(t, "2024-06-09")

	first := BuildUpcomingMeals(meals, recipes, nil, now, 3)
	second := BuildUpcomingMeals(meals, recipes, nil, now, 3)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical output on identical input:\n%+v\n%+v", first, second)
	}
}

func TestBuildUpcomingMeals_EarlierMealDisplacesLast(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Soup", 2)}
	meals := []models.Meal{
		meal(uuid.New(), recipeID, date(t, "2024-06-10")),
		meal(uuid.New(), recipeID, date(t, "2024-06-11")),
		meal(uuid.New(), recipeID, date(t, "2024-06-12")),
	}
	now := date(t, "2024-06-08")

	before := BuildUpcomingMeals(meals, recipes, nil, now, 3)

	earliest := meal(uuid.New(), recipeID, date(t, "2024-06-09"))
	after := BuildUpcomingMeals(append(meals, earliest), recipes, nil, now, 3)

	if len(after) != 3 {
		t.Fatalf("expected limit respected, got %d", len(after))
	}
	if after[0].ID != earliest.ID {
		t.Errorf("expected the new earliest meal first, got %s", after[0].ScheduledDate)
	}
	if after[1].ID != before[0].ID || after[2].ID != before[1].ID {
		t.Errorf("expected remaining entries shifted, got %+v", after)
	}
}

func TestBuildUpcomingMeals_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Paella", 4)}
	meals := []models.Meal{
		meal(uuid.New(), recipeID, date(t, "2024-06-10")),
		meal(uuid.New(), recipeID, date(t, "2024-06-08")),
	}
	original := make([]models.Meal, len(meals))
	copy(original, meals)

	BuildUpcomingMeals(meals, recipes, nil, date(t, "2024-06-08"), 1)

	if !reflect.DeepEqual(meals, original) {
		t.Errorf("input slice mutated:\nbefore %+v\nafter  %+v", original, meals)
	}
}

func TestBuildUpcomingMeals_DefaultLimit(t *testing.T) {
	t.Parallel()

	recipeID := uuid.New()
	recipes := []models.Recipe{recipe(recipeID, "Ramen", 2)}
	meals := make([]models.Meal, 0, 5)
	for i := 0; i < 5; i++ {
		meals = append(meals, meal(uuid.New(), recipeID, date(t, "2024-06-08").AddDate(0, 0, i)))
	}

	got := BuildUpcomingMeals(meals, recipes, nil, date(t, "2024-06-08"), 0)
	if len(got) != DefaultUpcomingLimit {
		t.Errorf("expected default limit %d, got %d", DefaultUpcomingLimit, len(got))
	}
}
