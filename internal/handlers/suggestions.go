package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/request"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"go.uber.org/zap"
)

// SuggestionHorizonDays mirrors the precompute worker's horizon so a
// live fallback answers the same question the snapshot does.
const SuggestionHorizonDays = 7

// SuggestionSnapshotReader reads precomputed suggestion snapshots
type SuggestionSnapshotReader interface {
	GetSuggestions(ctx context.Context, familyID uuid.UUID) ([]suggest.Suggestion, bool, error)
}

// SuggestionHandler serves AI meal suggestions. It prefers the
// precomputed snapshot and falls back to a live computation; when the
// suggestion plane is down the response degrades to an empty list.
type SuggestionHandler struct {
	snapshots  SuggestionSnapshotReader
	service    *suggest.Service
	mealRepo   database.MealRepositoryInterface
	recipeRepo database.RecipeRepositoryInterface
	prefsRepo  database.PreferencesRepositoryInterface
	logger     *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler. snapshots and
// service may each be nil when the corresponding plane is not
// configured.
func NewSuggestionHandler(
	snapshots SuggestionSnapshotReader,
	service *suggest.Service,
	mealRepo database.MealRepositoryInterface,
	recipeRepo database.RecipeRepositoryInterface,
	prefsRepo database.PreferencesRepositoryInterface,
	logger *zap.Logger,
) *SuggestionHandler {
	return &SuggestionHandler{
		snapshots:  snapshots,
		service:    service,
		mealRepo:   mealRepo,
		recipeRepo: recipeRepo,
		prefsRepo:  prefsRepo,
		logger:     logger,
	}
}

// RegisterRoutes registers suggestion routes on the given router
// The router should already have the /suggestions prefix
func (h *SuggestionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/meals", h.GetMealSuggestions).Methods("GET")
}

// SuggestionsResponse represents the meal suggestions payload. Source
// reports where the suggestions came from: "snapshot", "live" or
// "none".
type SuggestionsResponse struct {
	Suggestions []suggest.Suggestion `json:"suggestions"`
	Source      string               `json:"source"`
}

// GetMealSuggestions returns meal proposals for the family's
// unplanned days over the coming week
func (h *SuggestionHandler) GetMealSuggestions(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()

	if h.snapshots != nil {
		suggestions, found, err := h.snapshots.GetSuggestions(ctx, familyID)
		if err != nil {
			h.logger.Warn("failed_to_read_suggestions_snapshot",
				zap.String("family_id", familyID.String()),
				zap.Error(err),
			)
		} else if found {
			respondJSON(w, http.StatusOK, SuggestionsResponse{
				Suggestions: suggestions,
				Source:      "snapshot",
			})
			return
		}
	}

	suggestions, err := h.computeLive(ctx, familyID)
	if err != nil {
		// The suggestion plane is optional; degrade to empty output.
		h.logger.Warn("live_suggestion_computation_failed",
			zap.String("family_id", familyID.String()),
			zap.Error(err),
		)
		respondJSON(w, http.StatusOK, SuggestionsResponse{
			Suggestions: []suggest.Suggestion{},
			Source:      "none",
		})
		return
	}

	respondJSON(w, http.StatusOK, SuggestionsResponse{
		Suggestions: suggestions,
		Source:      "live",
	})
}

func (h *SuggestionHandler) computeLive(ctx context.Context, familyID uuid.UUID) ([]suggest.Suggestion, error) {
	if h.service == nil {
		return []suggest.Suggestion{}, nil
	}

	now := time.Now().UTC()
	from := midnight(now)
	to := from.AddDate(0, 0, SuggestionHorizonDays-1)

	meals, err := h.mealRepo.ListByFamily(ctx, familyID, from, to)
	if err != nil {
		return nil, err
	}

	planned := make(map[string]bool, len(meals))
	for i := range meals {
		planned[meals[i].ScheduledDay()] = true
	}

	days := make([]string, 0, SuggestionHorizonDays)
	for i := 0; i < SuggestionHorizonDays; i++ {
		day := from.AddDate(0, 0, i).Format(models.DateLayout)
		if !planned[day] {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return []suggest.Suggestion{}, nil
	}

	recipes, err := h.recipeRepo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	prefs, err := h.prefsRepo.GetByFamilyID(ctx, familyID)
	if err != nil {
		prefs = nil
	}

	return h.service.SuggestMeals(ctx, recipes, prefs, days, suggest.DefaultSuggestionCount)
}
