package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/middleware"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/request"
	"github.com/plateful/plateful-api/internal/validation"
	"go.uber.org/zap"
)

// FamilyHandler handles family and membership requests
type FamilyHandler struct {
	familyRepo database.FamilyRepositoryInterface
	prefsRepo  database.PreferencesRepositoryInterface
	logger     *zap.Logger
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyRepo database.FamilyRepositoryInterface, prefsRepo database.PreferencesRepositoryInterface, logger *zap.Logger) *FamilyHandler {
	return &FamilyHandler{
		familyRepo: familyRepo,
		prefsRepo:  prefsRepo,
		logger:     logger,
	}
}

// RegisterRoutes registers family routes on the given router
// The router should already have the /families prefix
func (h *FamilyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreateFamily).Methods("POST")
	r.HandleFunc("/current", h.GetCurrentFamily).Methods("GET")
	r.HandleFunc("/current/preferences", h.GetPreferences).Methods("GET")
	r.HandleFunc("/current/preferences", h.UpdatePreferences).Methods("PUT")
	r.HandleFunc("/{id}/join", h.JoinFamily).Methods("POST")
}

// CreateFamilyRequest represents a create family request
type CreateFamilyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// FamilyResponse represents a family together with the caller's role
type FamilyResponse struct {
	Family *models.Family    `json:"family"`
	Role   models.FamilyRole `json:"role"`
}

// UpdatePreferencesRequest represents a preferences replacement
type UpdatePreferencesRequest struct {
	Diet      *string  `json:"diet,omitempty" validate:"omitempty,max=50"`
	Allergies []string `json:"allergies,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	Dislikes  []string `json:"dislikes,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	Notes     string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreateFamily creates a family with the caller as owner and selects
// it as their current family
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateFamilyRequest
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

	name := validation.SanitizeText(req.Name)
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	ctx := r.Context()
	family := &models.Family{
		ID:   uuid.New(),
		Name: name,
	}

	if err := h.familyRepo.Create(ctx, family, user.ID); err != nil {
		h.logger.Error("failed_to_create_family",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create family")
		return
	}

	respondJSON(w, http.StatusCreated, FamilyResponse{
		Family: family,
		Role:   models.FamilyRoleOwner,
	})
}

// JoinFamily adds the caller to an existing family and selects it as
// their current family. Joining a family the caller already belongs
// to is a no-op that still selects it.
func (h *FamilyHandler) JoinFamily(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	familyID, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid family ID")
		return
	}

	ctx := r.Context()
	family, err := h.familyRepo.GetByID(ctx, familyID)
	if err != nil || family == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Family not found")
		return
	}

	if err := h.familyRepo.AddMember(ctx, familyID, user.ID, models.FamilyRoleMember); err != nil {
		h.logger.Error("failed_to_join_family",
			zap.String("user_id", user.ID.String()),
			zap.String("family_id", familyID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to join family")
		return
	}

	membership, err := h.familyRepo.GetMembership(ctx, familyID, user.ID)
	if err != nil || membership == nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load membership")
		return
	}

	respondJSON(w, http.StatusOK, FamilyResponse{
		Family: family,
		Role:   membership.Role,
	})
}

// GetCurrentFamily returns the caller's currently selected family
func (h *FamilyHandler) GetCurrentFamily(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()
	family, err := h.familyRepo.GetByID(ctx, familyID)
	if err != nil || family == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Family not found")
		return
	}

	membership, err := h.familyRepo.GetMembership(ctx, familyID, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load membership")
		return
	}
	if membership == nil {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Not a member of the selected family")
		return
	}

	respondJSON(w, http.StatusOK, FamilyResponse{
		Family: family,
		Role:   membership.Role,
	})
}

// GetPreferences returns the family's dietary preferences. A family
// that never set any gets an empty object, not an error.
func (h *FamilyHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	ctx := r.Context()
	prefs, err := h.prefsRepo.GetByFamilyID(ctx, familyID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve preferences")
		return
	}
	if prefs == nil {
		prefs = &models.FamilyPreferences{FamilyID: familyID}
	}

	respondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences replaces the family's dietary preferences
func (h *FamilyHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	familyID, ok := request.FamilyID(r)
	if !ok {
		respondJSONError(w, http.StatusPreconditionRequired, "No family selected", "Create or join a family first")
		return
	}

	var req UpdatePreferencesRequest
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

	prefs := &models.FamilyPreferences{
		ID:       uuid.New(),
		FamilyID: familyID,
		Notes:    validation.SanitizeText(req.Notes),
	}
	if req.Diet != nil {
		if sanitized := validation.SanitizeText(*req.Diet); sanitized != "" {
			prefs.Diet = &sanitized
		}
	}
	for _, a := range req.Allergies {
		if sanitized := validation.SanitizeText(a); sanitized != "" {
			prefs.Allergies = append(prefs.Allergies, sanitized)
		}
	}
	for _, d := range req.Dislikes {
		if sanitized := validation.SanitizeText(d); sanitized != "" {
			prefs.Dislikes = append(prefs.Dislikes, sanitized)
		}
	}

	ctx := r.Context()
	if err := h.prefsRepo.Upsert(ctx, prefs); err != nil {
		h.logger.Error("failed_to_update_preferences",
			zap.String("family_id", familyID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}
