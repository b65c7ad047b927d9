package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider describes the configured OIDC provider. All settings come
// from environment configuration; there is no per-tenant provider
// state.
type Provider struct {
	issuer      string
	clientID    string
	redirectURI string
	client      *http.Client
}

// NewProvider creates a new OIDC provider descriptor
func NewProvider(issuer, clientID, redirectURI string) *Provider {
	return &Provider{
		issuer:      issuer,
		clientID:    clientID,
		redirectURI: redirectURI,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

// LoginConfig contains OIDC login configuration for the frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

// GetLoginConfig returns the configuration the frontend needs to start
// an OIDC login. Endpoints come from the provider's discovery document
// when it is reachable, with an issuer-derived fallback otherwise.
func (p *Provider) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	if p.issuer == "" || p.clientID == "" {
		return nil, fmt.Errorf("OIDC provider not configured")
	}

	authEndpoint, tokenEndpoint := p.discoverEndpoints(ctx)

	return &LoginConfig{
		AuthorizationEndpoint: authEndpoint,
		TokenEndpoint:         tokenEndpoint,
		ClientID:              p.clientID,
		RedirectURI:           p.redirectURI,
		Scope:                 "openid email profile",
	}, nil
}

func (p *Provider) discoverEndpoints(ctx context.Context) (authEndpoint, tokenEndpoint string) {
	discoveryURL := strings.TrimSuffix(p.issuer, "/") + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err == nil {
		resp, err := p.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			var discovery struct {
				AuthorizationEndpoint string `json:"authorization_endpoint"`
				TokenEndpoint         string `json:"token_endpoint"`
			}
			if decodeErr := json.NewDecoder(resp.Body).Decode(&discovery); decodeErr == nil {
				authEndpoint = discovery.AuthorizationEndpoint
				tokenEndpoint = discovery.TokenEndpoint
			}
		}
		if resp != nil {
			if closeErr := resp.Body.Close(); closeErr != nil {
				_ = closeErr
			}
		}
	}

	// Fallback: derive endpoints from the issuer if discovery failed
	base := strings.TrimSuffix(p.issuer, "/")
	if authEndpoint == "" {
		authEndpoint = base + "/oauth2/authorize"
	}
	if tokenEndpoint == "" {
		tokenEndpoint = base + "/oauth2/token"
	}
	return authEndpoint, tokenEndpoint
}
