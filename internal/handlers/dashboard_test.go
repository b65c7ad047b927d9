package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/models"
	"go.uber.org/zap"
)

func seedDashboardData(familyID uuid.UUID, dates ...string) (*fakeMealRepo, *fakeRecipeRepo, *fakeMealTypeRepo) {
	mealRepo := newFakeMealRepo()
	recipeRepo := newFakeRecipeRepo()

	recipe := &models.Recipe{
		ID:       uuid.New(),
		FamilyID: familyID,
		Name:     "Spaghetti Bolognese",
		Servings: 4,
	}
	recipeRepo.recipes[recipe.ID] = recipe

	mealType := models.MealType{ID: uuid.New(), Name: "Dinner", SortOrder: 3}

	for _, d := range dates {
		scheduled, _ := time.Parse(models.DateLayout, d)
		meal := &models.Meal{
			ID:            uuid.New(),
			FamilyID:      familyID,
			RecipeID:      recipe.ID,
			MealTypeID:    mealType.ID,
			ScheduledDate: scheduled,
		}
		mealRepo.meals[meal.ID] = meal
	}

	return mealRepo, recipeRepo, &fakeMealTypeRepo{mealTypes: []models.MealType{mealType}}
}

func TestDashboardHandler_GetUpcoming(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	today := time.Now().UTC().Format(models.DateLayout)

	tests := []struct {
		name       string
		query      string
		dates      []string
		wantStatus int
		wantMeals  int
	}{
		{
			name:       "default limit of three",
			query:      "?date=" + today,
			dates:      []string{today, today, today, today},
			wantStatus: http.StatusOK,
			wantMeals:  3,
		},
		{
			name:       "fewer meals than limit",
			query:      "?date=" + today,
			dates:      []string{today},
			wantStatus: http.StatusOK,
			wantMeals:  1,
		},
		{
			name:       "explicit limit",
			query:      "?date=" + today + "&limit=2",
			dates:      []string{today, today, today},
			wantStatus: http.StatusOK,
			wantMeals:  2,
		},
		{
			name:       "limit clamped to maximum",
			query:      "?date=" + today + "&limit=500",
			dates:      []string{today},
			wantStatus: http.StatusOK,
			wantMeals:  1,
		},
		{
			name:       "invalid limit",
			query:      "?limit=zero",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid date",
			query:      "?date=June-10",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty calendar",
			query:      "?date=" + today,
			wantStatus: http.StatusOK,
			wantMeals:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mealRepo, recipeRepo, mealTypeRepo := seedDashboardData(familyID, tt.dates...)
			h := NewDashboardHandler(mealRepo, recipeRepo, mealTypeRepo, 30, zap.NewNop())

			req := authedRequest("GET", "/api/v1/dashboard/upcoming"+tt.query, nil, familyID)
			rec := httptest.NewRecorder()
			h.GetUpcoming(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var envelope struct {
				Data UpcomingResponse `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(envelope.Data.Meals) != tt.wantMeals {
				t.Errorf("meals = %d, want %d", len(envelope.Data.Meals), tt.wantMeals)
			}
			for _, meal := range envelope.Data.Meals {
				if meal.DayLabel != "Today" {
					t.Errorf("day_label = %q, want Today", meal.DayLabel)
				}
				if meal.RecipeName != "Spaghetti Bolognese" {
					t.Errorf("recipe_name = %q", meal.RecipeName)
				}
			}
		})
	}
}

func TestDashboardHandler_GetUpcoming_NoFamily(t *testing.T) {
	t.Parallel()

	mealRepo, recipeRepo, mealTypeRepo := seedDashboardData(uuid.New())
	h := NewDashboardHandler(mealRepo, recipeRepo, mealTypeRepo, 30, zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/dashboard/upcoming", nil)
	rec := httptest.NewRecorder()
	h.GetUpcoming(rec, req)

	if rec.Code != http.StatusPreconditionRequired {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusPreconditionRequired)
	}
}

func TestDashboardHandler_GetUpcoming_RepoError(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	mealRepo, recipeRepo, mealTypeRepo := seedDashboardData(familyID)
	mealRepo.listErr = errRepo

	h := NewDashboardHandler(mealRepo, recipeRepo, mealTypeRepo, 30, zap.NewNop())

	req := authedRequest("GET", "/api/v1/dashboard/upcoming", nil, familyID)
	rec := httptest.NewRecorder()
	h.GetUpcoming(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestDashboardHandler_GetWeek(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	start := time.Now().UTC()
	startDay := start.Format(models.DateLayout)
	midweek := start.AddDate(0, 0, 3).Format(models.DateLayout)
	outside := start.AddDate(0, 0, 10).Format(models.DateLayout)

	mealRepo, recipeRepo, mealTypeRepo := seedDashboardData(familyID, startDay, midweek, outside)
	h := NewDashboardHandler(mealRepo, recipeRepo, mealTypeRepo, 30, zap.NewNop())

	req := authedRequest("GET", fmt.Sprintf("/api/v1/dashboard/week?start=%s", startDay), nil, familyID)
	rec := httptest.NewRecorder()
	h.GetWeek(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data WeekResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(envelope.Data.Days))
	}
	if envelope.Data.Days[0].Date != startDay {
		t.Errorf("first day = %s, want %s", envelope.Data.Days[0].Date, startDay)
	}

	total := 0
	for _, day := range envelope.Data.Days {
		total += len(day.Meals)
	}
	if total != 2 {
		t.Errorf("meals in week = %d, want 2 (meal outside the window must be excluded)", total)
	}
}

func TestDashboardHandler_GetWeek_InvalidStart(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	mealRepo, recipeRepo, mealTypeRepo := seedDashboardData(familyID)
	h := NewDashboardHandler(mealRepo, recipeRepo, mealTypeRepo, 30, zap.NewNop())

	req := authedRequest("GET", "/api/v1/dashboard/week?start=notadate", nil, familyID)
	rec := httptest.NewRecorder()
	h.GetWeek(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
