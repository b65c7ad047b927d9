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

const (
	// MaxRecipeNameLength is the maximum length for a recipe name
	MaxRecipeNameLength = 200
	// MaxRecipeTags is the maximum number of tags on one recipe
	MaxRecipeTags = 20
)

// RecipeHandler handles recipe catalog requests
type RecipeHandler struct {
	recipeRepo database.RecipeRepositoryInterface
	logger     *zap.Logger
	jobQueue   queue.JobQueue
}

// RecipeHandlerOption configures optional RecipeHandler collaborators
type RecipeHandlerOption func(*RecipeHandler)

// WithRecipeJobQueue wires the job queue used to schedule dashboard
// refreshes after recipe writes.
func WithRecipeJobQueue(q queue.JobQueue) RecipeHandlerOption {
	return func(h *RecipeHandler) {
		h.jobQueue = q
	}
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipeRepo database.RecipeRepositoryInterface, logger *zap.Logger, opts ...RecipeHandlerOption) *RecipeHandler {
	h := &RecipeHandler{
		recipeRepo: recipeRepo,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers recipe routes on the given router
// The router should already have the /recipes prefix
func (h *RecipeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListRecipes).Methods("GET")
	r.HandleFunc("", h.CreateRecipe).Methods("POST")
	r.HandleFunc("/{id}", h.GetRecipe).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateRecipe).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteRecipe).Methods("DELETE")
}

// CreateRecipeRequest represents a create recipe request
type CreateRecipeRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	PrepMinutes *int     `json:"prep_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	CookMinutes *int     `json:"cook_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Servings    int      `json:"servings" validate:"required"`
}

// UpdateRecipeRequest represents a partial recipe update
type UpdateRecipeRequest struct {
	Name        *string   `json:"name,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	PrepMinutes *int      `json:"prep_minutes,omitempty"`
	CookMinutes *int      `json:"cook_minutes,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Servings    *int      `json:"servings,omitempty"`
}

// ListRecipesResponse represents the response for listing recipes
type ListRecipesResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Total   int             `json:"total"`
}

// ListRecipes lists the family's recipe catalog
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()
	recipes, err := h.recipeRepo.ListByFamily(ctx, familyID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve recipes")
		return
	}

	respondJSON(w, http.StatusOK, ListRecipesResponse{
		Recipes: recipes,
		Total:   len(recipes),
	})
}

// CreateRecipe adds a recipe to the family catalog
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	var req CreateRecipeRequest
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

	if err := validation.ValidateServings(req.Servings); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	name := validation.SanitizeText(req.Name)
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	tags := make([]string, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if sanitized := validation.SanitizeText(tag); sanitized != "" {
			tags = append(tags, sanitized)
		}
	}

	ctx := r.Context()
	recipe := &models.Recipe{
		ID:          uuid.New(),
		FamilyID:    familyID,
		Name:        name,
		ImageURL:    req.ImageURL,
		PrepMinutes: req.PrepMinutes,
		CookMinutes: req.CookMinutes,
		Tags:        tags,
		Servings:    req.Servings,
	}

	if err := h.recipeRepo.Create(ctx, recipe); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create recipe")
		return
	}

	h.scheduleRefresh(r, familyID)
	respondJSON(w, http.StatusCreated, recipe)
}

// GetRecipe retrieves a recipe by ID
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid recipe ID")
		return
	}

	ctx := r.Context()
	recipe, err := h.recipeRepo.GetByID(ctx, id)
	if err != nil || recipe == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Recipe not found")
		return
	}

	if recipe.FamilyID != familyID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Recipe does not belong to family")
		return
	}

	respondJSON(w, http.StatusOK, recipe)
}

// UpdateRecipe applies a partial update to a recipe
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid recipe ID")
		return
	}

	ctx := r.Context()
	recipe, err := h.recipeRepo.GetByID(ctx, id)
	if err != nil || recipe == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Recipe not found")
		return
	}

	if recipe.FamilyID != familyID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Recipe does not belong to family")
		return
	}

	var req UpdateRecipeRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Name != nil {
		sanitized := validation.SanitizeText(*req.Name)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxRecipeNameLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Name exceeds maximum length of %d characters", MaxRecipeNameLength))
			return
		}
		recipe.Name = sanitized
	}
	if req.ImageURL != nil {
		if *req.ImageURL == "" {
			recipe.ImageURL = nil
		} else {
			recipe.ImageURL = req.ImageURL
		}
	}
	if req.PrepMinutes != nil {
		if *req.PrepMinutes < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "prep_minutes must not be negative")
			return
		}
		recipe.PrepMinutes = req.PrepMinutes
	}
	if req.CookMinutes != nil {
		if *req.CookMinutes < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "cook_minutes must not be negative")
			return
		}
		recipe.CookMinutes = req.CookMinutes
	}
	if req.Tags != nil {
		if len(*req.Tags) > MaxRecipeTags {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("At most %d tags are allowed", MaxRecipeTags))
			return
		}
		tags := make([]string, 0, len(*req.Tags))
		for _, tag := range *req.Tags {
			if sanitized := validation.SanitizeText(tag); sanitized != "" {
				tags = append(tags, sanitized)
			}
		}
		recipe.Tags = tags
	}
	if req.Servings != nil {
		if err := validation.ValidateServings(*req.Servings); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		recipe.Servings = *req.Servings
	}

	if err := h.recipeRepo.Update(ctx, recipe); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update recipe")
		return
	}

	h.scheduleRefresh(r, familyID)
	respondJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe from the catalog. Meals still pointing
// at it are dropped from derived views rather than erroring.
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid recipe ID")
		return
	}

	ctx := r.Context()
	recipe, err := h.recipeRepo.GetByID(ctx, id)
	if err != nil || recipe == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Recipe not found")
		return
	}

	if recipe.FamilyID != familyID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Recipe does not belong to family")
		return
	}

	if err := h.recipeRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete recipe")
		return
	}

	h.scheduleRefresh(r, familyID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) scheduleRefresh(r *http.Request, familyID uuid.UUID) {
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
