package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/cryptox"
)

// Variants select where tasks and credentials live.
const (
	VariantLocal  = "local"
	VariantRemote = "remote"
)

// Auth modes understood by the remote variant. They must match the server.
const (
	AuthModeToken = "token"
	AuthModeBasic = "basic"
)

// Config holds runtime settings for the todokeeper CLI.
//
// Fields:
//   - Variant: "local" keeps everything in the SQLite file at DBPath,
//     "remote" talks to the REST server at ServerURL.
//   - AuthMode: how the remote variant authenticates each request.
//   - PasswordPolicy: how the local variant stores passwords.
//   - OnlineCheckInterval: how often the remote variant probes /health.
type Config struct {
	Variant             string
	ServerURL           string
	AuthMode            string
	PasswordPolicy      string
	DBPath              string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Variant = VariantLocal
	c.ServerURL = "http://127.0.0.1:8080"
	c.AuthMode = AuthModeToken
	c.PasswordPolicy = cryptox.PolicyBcrypt
	c.DBPath = "todokeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// Validate rejects unknown variants, modes and policies.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantLocal, VariantRemote:
	default:
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	switch c.AuthMode {
	case AuthModeToken, AuthModeBasic:
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}
	if _, err := cryptox.NewPasswordPolicy(c.PasswordPolicy); err != nil {
		return err
	}
	if c.Variant == VariantRemote && c.ServerURL == "" {
		return fmt.Errorf("server url is required for the remote variant")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
