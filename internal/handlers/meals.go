package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/request"
	"github.com/plateful/plateful-api/internal/validation"
	"go.uber.org/zap"
)

// refreshDebounce is how long a dashboard refresh job waits before it
// becomes eligible, so a burst of edits collapses into one recompute.
const refreshDebounce = 5 * time.Second

// DefaultMealListDays is the date window for listing meals when the
// caller gives no range.
const DefaultMealListDays = 30

// MealHandler handles meal calendar requests
type MealHandler struct {
	mealRepo   database.MealRepositoryInterface
	recipeRepo database.RecipeRepositoryInterface
	logger     *zap.Logger
	jobQueue   queue.JobQueue
}

// MealHandlerOption configures optional MealHandler collaborators
type MealHandlerOption func(*MealHandler)

// WithMealJobQueue wires the job queue used to schedule dashboard
// refreshes after writes. Without it, writes succeed and the snapshot
// simply goes stale until its TTL.
func WithMealJobQueue(q queue.JobQueue) MealHandlerOption {
	return func(h *MealHandler) {
		h.jobQueue = q
	}
}

// NewMealHandler creates a new meal handler
func NewMealHandler(mealRepo database.MealRepositoryInterface, recipeRepo database.RecipeRepositoryInterface, logger *zap.Logger, opts ...MealHandlerOption) *MealHandler {
	h := &MealHandler{
		mealRepo:   mealRepo,
		recipeRepo: recipeRepo,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers meal routes on the given router
// The router should already have the /meals prefix
func (h *MealHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListMeals).Methods("GET")
	r.HandleFunc("", h.CreateMeal).Methods("POST")
	r.HandleFunc("/{id}", h.GetMeal).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateMeal).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteMeal).Methods("DELETE")
}

// CreateMealRequest represents a create meal request
type CreateMealRequest struct {
	RecipeID      uuid.UUID `json:"recipe_id" validate:"required"`
	MealTypeID    uuid.UUID `json:"meal_type_id" validate:"required"`
	ScheduledDate string    `json:"scheduled_date" validate:"required,calendar_date"`
	Servings      *int      `json:"servings,omitempty"`
}

// UpdateMealRequest represents a partial meal update
type UpdateMealRequest struct {
	RecipeID      *uuid.UUID `json:"recipe_id,omitempty"`
	MealTypeID    *uuid.UUID `json:"meal_type_id,omitempty"`
	ScheduledDate *string    `json:"scheduled_date,omitempty"`
	Servings      *int       `json:"servings,omitempty"`
}

// ListMealsResponse represents the response for listing meals
type ListMealsResponse struct {
	Meals []models.Meal `json:"meals"`
	From  string        `json:"from"`
	To    string        `json:"to"`
}

// ListMeals lists the family's meals within a date range. `from` and
// `to` (YYYY-MM-DD, inclusive) default to a window starting today.
func (h *MealHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	from := midnight(now)
	to := from.AddDate(0, 0, DefaultMealListDays)

	if f := r.URL.Query().Get("from"); f != "" {
		parsed, err := validation.ParseCalendarDate(f)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "from must be formatted YYYY-MM-DD")
			return
		}
		from = parsed
		to = from.AddDate(0, 0, DefaultMealListDays)
	}
	if t := r.URL.Query().Get("to"); t != "" {
		parsed, err := validation.ParseCalendarDate(t)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "to must be formatted YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "to must not be before from")
		return
	}

	meals, err := h.mealRepo.ListByFamily(ctx, familyID, from, to)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve meals")
		return
	}

	respondJSON(w, http.StatusOK, ListMealsResponse{
		Meals: meals,
		From:  from.Format(models.DateLayout),
		To:    to.Format(models.DateLayout),
	})
}

// CreateMeal schedules a meal on the family calendar
func (h *MealHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	var req CreateMealRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	if req.Servings != nil {
		if err := validation.ValidateServings(*req.Servings); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	scheduled, err := validation.ParseCalendarDate(req.ScheduledDate)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "scheduled_date must be formatted YYYY-MM-DD")
		return
	}

	ctx := r.Context()

	// The recipe must exist and belong to the caller's family
	recipe, err := h.recipeRepo.GetByID(ctx, req.RecipeID)
	if err != nil || recipe == nil || recipe.FamilyID != familyID {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Recipe not found")
		return
	}

	meal := &models.Meal{
		ID:            uuid.New(),
		FamilyID:      familyID,
		RecipeID:      req.RecipeID,
		MealTypeID:    req.MealTypeID,
		ScheduledDate: scheduled,
		Servings:      req.Servings,
	}

	if err := h.mealRepo.Create(ctx, meal); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create meal")
		return
	}

	h.scheduleRefresh(r, familyID)
	respondJSON(w, http.StatusCreated, meal)
}

// GetMeal retrieves a meal by ID
func (h *MealHandler) GetMeal(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid meal ID")
		return
	}

	ctx := r.Context()
	meal, err := h.mealRepo.GetByID(ctx, id)
	if err != nil || meal == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Meal not found")
		return
	}

	if meal.FamilyID != familyID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Meal does not belong to family")
		return
	}

	respondJSON(w, http.StatusOK, meal)
}

// UpdateMeal applies a partial update to a meal
func (h *MealHandler) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid meal ID")
		return
	}

	ctx := r.Context()
	meal, err := h.mealRepo.GetByID(ctx, id)
	if err != nil || meal == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Meal not found")
		return
	}

	if meal.FamilyID != familyID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Meal does not belong to family")
		return
	}

	var req UpdateMealRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.RecipeID != nil {
		recipe, err := h.recipeRepo.GetByID(ctx, *req.RecipeID)
		if err != nil || recipe == nil || recipe.FamilyID != familyID {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Recipe not found")
			return
		}
		meal.RecipeID = *req.RecipeID
	}
	if req.MealTypeID != nil {
		meal.MealTypeID = *req.MealTypeID
	}
	if req.ScheduledDate != nil {
		scheduled, err := validation.ParseCalendarDate(*req.ScheduledDate)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "scheduled_date must be formatted YYYY-MM-DD")
			return
		}
		meal.ScheduledDate = scheduled
	}
	if req.Servings != nil {
		if err := validation.ValidateServings(*req.Servings); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		meal.Servings = req.Servings
	}

	if err := h.mealRepo.Update(ctx, meal); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update meal")
		return
	}

	h.scheduleRefresh(r, familyID)
	respondJSON(w, http.StatusOK, meal)
}

// DeleteMeal removes a meal from the calendar
func (h *MealHandler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid meal ID")
		return
	}

	ctx := r.Context()
	meal, err := h.mealRepo.GetByID(ctx, id)
	if err != nil || meal == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Meal not found")
		return
	}

	if meal.FamilyID != familyID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Meal does not belong to family")
		return
	}

	if err := h.mealRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete meal")
		return
	}

	h.scheduleRefresh(r, familyID)
	w.WriteHeader(http.StatusNoContent)
}

// scheduleRefresh enqueues a debounced dashboard refresh for the
// family. Enqueue failures are logged, never surfaced: the write
// already succeeded and the snapshot self-heals on TTL expiry.
func (h *MealHandler) scheduleRefresh(r *http.Request, familyID uuid.UUID) {
	if h.jobQueue == nil {
		return
	}

	job := queue.NewJob(queue.JobTypeDashboardRefresh, familyID)
	notBefore := time.Now().Add(refreshDebounce)
	job.NotBefore = &notBefore

	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("failed_to_enqueue_dashboard_refresh_job",
			zap.String("family_id", familyID.String()),
			zap.Error(err),
		)
		return
	}

	h.logger.Debug("enqueued_dashboard_refresh_job",
		zap.String("family_id", familyID.String()),
		zap.Duration("debounce_delay", refreshDebounce),
	)
}
