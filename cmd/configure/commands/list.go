package commands

import (
	"fmt"

	"github.com/plateful/plateful-api/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type oidcSummary struct {
	Issuer          string `yaml:"issuer"`
	ClientID        string `yaml:"client_id"`
	JWKSURL         string `yaml:"jwks_url"`
	Audience        string `yaml:"audience,omitempty"`
	RedirectURI     string `yaml:"redirect_uri,omitempty"`
	ClientSecretSet bool   `yaml:"client_secret_set"`
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List effective OIDC configuration",
		Long:  "Show the OIDC configuration resolved from the environment as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cfg.OIDCIssuer == "" {
				fmt.Println("No OIDC provider configured (OIDC_ISSUER is empty)")
				return nil
			}

			summary := oidcSummary{
				Issuer:          cfg.OIDCIssuer,
				ClientID:        cfg.OIDCClientID,
				JWKSURL:         cfg.OIDCJWKSURL,
				Audience:        cfg.OIDCAudience,
				RedirectURI:     cfg.OIDCRedirectURI,
				ClientSecretSet: cfg.OIDCClientSecret != "",
			}

			out, err := yaml.Marshal(summary)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}

	return cmd
}
