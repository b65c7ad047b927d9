package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/models"
	"go.uber.org/zap"
)

func TestRecipeHandler_CreateRecipe(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"name":"Shakshuka","servings":4}`, http.StatusCreated},
		{"full", `{"name":"Shakshuka","servings":2,"image_url":"https://img.example.com/s.jpg","prep_minutes":10,"cook_minutes":20,"tags":["vegetarian","quick"]}`, http.StatusCreated},
		{"missing name", `{"servings":4}`, http.StatusBadRequest},
		{"missing servings", `{"name":"Shakshuka"}`, http.StatusBadRequest},
		{"bad image url", `{"name":"Shakshuka","servings":4,"image_url":"not a url"}`, http.StatusBadRequest},
		{"negative prep", `{"name":"Shakshuka","servings":4,"prep_minutes":-5}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recipeRepo := newFakeRecipeRepo()
			jobQueue := &fakeJobQueue{}
			h := NewRecipeHandler(recipeRepo, zap.NewNop(), WithRecipeJobQueue(jobQueue))

			req := authedRequest("POST", "/api/v1/recipes", bytes.NewReader([]byte(tt.body)), familyID)
			rec := httptest.NewRecorder()
			h.CreateRecipe(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				if len(recipeRepo.recipes) != 1 {
					t.Errorf("stored recipes = %d, want 1", len(recipeRepo.recipes))
				}
				if len(jobQueue.enqueued) != 1 {
					t.Errorf("enqueued jobs = %d, want 1", len(jobQueue.enqueued))
				}
			}
		})
	}
}

func TestRecipeHandler_UpdateRecipe(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	recipeRepo := newFakeRecipeRepo()
	recipe := seedRecipe(recipeRepo, familyID)

	h := NewRecipeHandler(recipeRepo, zap.NewNop())

	router := mux.NewRouter()
	h.RegisterRoutes(router.PathPrefix("/api/v1/recipes").Subrouter())

	payload, _ := json.Marshal(map[string]any{
		"name":         "Red Lentil Soup",
		"prep_minutes": 15,
		"tags":         []string{"soup", "weeknight"},
	})

	req := authedRequest("PATCH", fmt.Sprintf("/api/v1/recipes/%s", recipe.ID), bytes.NewReader(payload), familyID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	updated := recipeRepo.recipes[recipe.ID]
	if updated.Name != "Red Lentil Soup" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.PrepMinutes == nil || *updated.PrepMinutes != 15 {
		t.Errorf("prep_minutes = %v, want 15", updated.PrepMinutes)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("tags = %v", updated.Tags)
	}
}

func TestRecipeHandler_FamilyScoping(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	otherFamily := uuid.New()
	recipeRepo := newFakeRecipeRepo()
	recipe := seedRecipe(recipeRepo, otherFamily)

	h := NewRecipeHandler(recipeRepo, zap.NewNop())

	router := mux.NewRouter()
	h.RegisterRoutes(router.PathPrefix("/api/v1/recipes").Subrouter())

	for _, method := range []string{"GET", "PATCH", "DELETE"} {
		var body *bytes.Reader
		if method == "PATCH" {
			body = bytes.NewReader([]byte(`{"name":"Stolen"}`))
		} else {
			body = bytes.NewReader(nil)
		}

		req := authedRequest(method, fmt.Sprintf("/api/v1/recipes/%s", recipe.ID), body, familyID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%s status = %d, want %d", method, rec.Code, http.StatusForbidden)
		}
	}
}

func TestRecipeHandler_ListRecipes(t *testing.T) {
	t.Parallel()

	familyID := uuid.New()
	recipeRepo := newFakeRecipeRepo()
	seedRecipe(recipeRepo, familyID)
	seedRecipe(recipeRepo, uuid.New())

	h := NewRecipeHandler(recipeRepo, zap.NewNop())

	req := authedRequest("GET", "/api/v1/recipes", nil, familyID)
	rec := httptest.NewRecorder()
	h.ListRecipes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data ListRecipesResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != 1 {
		t.Errorf("total = %d, want 1", envelope.Data.Total)
	}
}

func TestMealTypeHandler_List(t *testing.T) {
	t.Parallel()

	mealTypes := []models.MealType{
		{ID: uuid.New(), Name: "Breakfast", SortOrder: 1},
		{ID: uuid.New(), Name: "Lunch", SortOrder: 2},
		{ID: uuid.New(), Name: "Dinner", SortOrder: 3},
	}
	h := NewMealTypeHandler(&fakeMealTypeRepo{mealTypes: mealTypes})

	req := httptest.NewRequest("GET", "/api/v1/meal-types", nil)
	rec := httptest.NewRecorder()
	h.ListMealTypes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data ListMealTypesResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.MealTypes) != 3 {
		t.Errorf("meal types = %d, want 3", len(envelope.Data.MealTypes))
	}
}
