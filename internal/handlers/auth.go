package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/middleware"
	"github.com/plateful/plateful-api/internal/services/oidc"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidcProvider *oidc.Provider
	oidcClient   *oidc.Client
}

// NewAuthHandler creates a new auth handler. oidcClient may be nil
// when the frontend performs the code exchange itself.
func NewAuthHandler(oidcProvider *oidc.Provider, oidcClient *oidc.Client) *AuthHandler {
	return &AuthHandler{
		oidcProvider: oidcProvider,
		oidcClient:   oidcClient,
	}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/oidc/token", h.ExchangeToken).Methods("POST")
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// ExchangeTokenRequest represents an authorization-code exchange request
type ExchangeTokenRequest struct {
	Code string `json:"code"`
}

// GetOIDCLogin returns OIDC configuration for the frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	loginConfig, err := h.oidcProvider.GetLoginConfig(ctx)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Failed to get OIDC configuration", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// ExchangeToken exchanges an authorization code for tokens on behalf
// of the frontend
func (h *AuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	if h.oidcClient == nil {
		respondJSONError(w, http.StatusNotImplemented, "Not Implemented", "Server-side token exchange is not configured")
		return
	}

	var req ExchangeTokenRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if req.Code == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "code is required")
		return
	}

	token, err := h.oidcClient.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authorization code exchange failed")
		return
	}

	response := map[string]any{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expiry":       token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		response["id_token"] = idToken
	}

	respondJSON(w, http.StatusOK, response)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
