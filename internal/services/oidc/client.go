package oidc

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
)

// Client wraps OAuth2 authorization-code exchange for the configured
// provider. The client secret is empty for public clients using PKCE.
type Client struct {
	config *oauth2.Config
}

// NewClient creates a new OAuth2 client
func NewClient(issuer, clientID, clientSecret, redirectURI string) *Client {
	base := strings.TrimSuffix(issuer, "/")

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/oauth2/authorize",
			TokenURL: base + "/oauth2/token",
		},
	}

	return &Client{config: config}
}

// ExchangeCode exchanges an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// AuthCodeURL builds the authorization URL for the given state
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}
