package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/dashboard"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/request"
	"github.com/plateful/plateful-api/internal/validation"
	"go.uber.org/zap"
)

const (
	// MaxUpcomingLimit caps the upcoming-meals card size
	MaxUpcomingLimit = 14
)

// DashboardHandler serves the derived dashboard views. Every response
// is recomputed from the repositories; the builder is the source of
// truth, not the snapshot cache.
type DashboardHandler struct {
	mealRepo     database.MealRepositoryInterface
	recipeRepo   database.RecipeRepositoryInterface
	mealTypeRepo database.MealTypeRepositoryInterface
	windowDays   int
	logger       *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(mealRepo database.MealRepositoryInterface, recipeRepo database.RecipeRepositoryInterface, mealTypeRepo database.MealTypeRepositoryInterface, windowDays int, logger *zap.Logger) *DashboardHandler {
	if windowDays < 1 {
		windowDays = 30
	}
	return &DashboardHandler{
		mealRepo:     mealRepo,
		recipeRepo:   recipeRepo,
		mealTypeRepo: mealTypeRepo,
		windowDays:   windowDays,
		logger:       logger,
	}
}

// RegisterRoutes registers dashboard routes on the given router
// The router should already have the /dashboard prefix
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/upcoming", h.GetUpcoming).Methods("GET")
	r.HandleFunc("/week", h.GetWeek).Methods("GET")
}

// UpcomingResponse is the payload for the upcoming-meals card.
type UpcomingResponse struct {
	Meals []dashboard.DisplayMeal `json:"meals"`
	Date  string                  `json:"date"`
}

// WeekResponse is the payload for the weekly overview widget.
type WeekResponse struct {
	Days  []dashboard.WeekDay `json:"days"`
	Start string              `json:"start"`
}

// GetUpcoming returns the next meals on the family calendar.
// `limit` is clamped to [1, MaxUpcomingLimit] and defaults to 3;
// `date` (YYYY-MM-DD) overrides the reference day, mainly for tests
// and client-side previews.
func (h *DashboardHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()

	limit := dashboard.DefaultUpcomingLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > MaxUpcomingLimit {
			limit = MaxUpcomingLimit
		}
	}

	now := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := validation.ParseCalendarDate(d)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be formatted YYYY-MM-DD")
			return
		}
		now = parsed
	}

	from := midnight(now)
	to := from.AddDate(0, 0, h.windowDays)

	meals, recipes, mealTypes, err := h.load(ctx, familyID, from, to)
	if err != nil {
		h.logger.Error("failed_to_load_dashboard_data",
			zap.String("family_id", familyID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load dashboard data")
		return
	}

	display := dashboard.BuildUpcomingMeals(meals, recipes, mealTypes, now, limit)

	respondJSON(w, http.StatusOK, UpcomingResponse{
		Meals: display,
		Date:  from.Format("2006-01-02"),
	})
}

// GetWeek returns one week of meals grouped per day. `start`
// (YYYY-MM-DD) selects the first day and defaults to today.
func (h *DashboardHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	start := midnight(now)
	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := validation.ParseCalendarDate(s)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "start must be formatted YYYY-MM-DD")
			return
		}
		start = parsed
	}

	to := start.AddDate(0, 0, 6)

	meals, recipes, mealTypes, err := h.load(ctx, familyID, start, to)
	if err != nil {
		h.logger.Error("failed_to_load_week_data",
			zap.String("family_id", familyID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load week data")
		return
	}

	days := dashboard.BuildWeekOverview(meals, recipes, mealTypes, now, start)

	respondJSON(w, http.StatusOK, WeekResponse{
		Days:  days,
		Start: start.Format("2006-01-02"),
	})
}

func (h *DashboardHandler) load(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]models.Meal, []models.Recipe, []models.MealType, error) {
	meals, err := h.mealRepo.ListByFamily(ctx, familyID, from, to)
	if err != nil {
		return nil, nil, nil, err
	}
	recipes, err := h.recipeRepo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, nil, nil, err
	}
	mealTypes, err := h.mealTypeRepo.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return meals, recipes, mealTypes, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
