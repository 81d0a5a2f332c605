// Package config loads runtime configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/mstolarz/relay"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all environment-driven settings.
type Config struct {
	// GeminiAPIKey authenticates against the Gemini API. Required for chat.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// Pipedream holds OAuth client credentials for the token exchange.
	Pipedream Pipedream `env:", prefix=PIPEDREAM_"`

	// Model overrides the default Gemini model.
	Model string `env:"RELAY_MODEL"`

	// MCPURLs lists streamable HTTP MCP server URLs, comma separated.
	MCPURLs []string `env:"RELAY_MCP_URL"`

	// MCPCommand is a command line for a stdio MCP server.
	MCPCommand string `env:"RELAY_MCP_COMMAND"`
}

// Pipedream holds the OAuth client credentials.
type Pipedream struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WorkspaceID  string `env:"WORKSPACE_ID"`
}

// Credentials converts the loaded values to the token exchange form.
func (p Pipedream) Credentials() relay.Credentials {
	return relay.Credentials{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		WorkspaceID:  p.WorkspaceID,
	}
}

// Load reads configuration from a .env file (if one exists in the working
// directory or any parent) and the process environment. Real environment
// variables always win over .env values.
func Load(ctx context.Context) (*Config, error) {
	if err := LoadDotenv(); err != nil {
		return nil, err
	}
	return Process(ctx, envconfig.OsLookuper())
}

// Process reads configuration through the given lookuper.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the chat command requires.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is not set")
	}
	return nil
}
