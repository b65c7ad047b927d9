package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/models"
)

// MealTypeHandler serves the global meal-type catalog
type MealTypeHandler struct {
	mealTypeRepo database.MealTypeRepositoryInterface
}

// NewMealTypeHandler creates a new meal type handler
func NewMealTypeHandler(mealTypeRepo database.MealTypeRepositoryInterface) *MealTypeHandler {
	return &MealTypeHandler{mealTypeRepo: mealTypeRepo}
}

// RegisterRoutes registers meal type routes on the given router
// The router should already have the /meal-types prefix
func (h *MealTypeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListMealTypes).Methods("GET")
}

// ListMealTypesResponse represents the meal type catalog response
type ListMealTypesResponse struct {
	MealTypes []models.MealType `json:"meal_types"`
}

// ListMealTypes lists the catalog in sort order
func (h *MealTypeHandler) ListMealTypes(w http.ResponseWriter, r *http.Request) {
	mealTypes, err := h.mealTypeRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve meal types")
		return
	}

	respondJSON(w, http.StatusOK, ListMealTypesResponse{MealTypes: mealTypes})
}
