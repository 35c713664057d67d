package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, VariantLocal, c.Variant)
	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, AuthModeToken, c.AuthMode)
	assert.Equal(t, "bcrypt", c.PasswordPolicy)
	assert.Equal(t, "todokeeper.db", c.DBPath)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, VariantLocal, cfg.Variant)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "remote basic plain", mutate: func(c *Config) {
			c.Variant, c.AuthMode, c.PasswordPolicy = VariantRemote, AuthModeBasic, "plain"
		}},
		{name: "unknown variant", mutate: func(c *Config) { c.Variant = "cloud" }, wantErr: true},
		{name: "unknown auth", mutate: func(c *Config) { c.AuthMode = "oauth" }, wantErr: true},
		{name: "unknown policy", mutate: func(c *Config) { c.PasswordPolicy = "md5" }, wantErr: true},
		{name: "remote without url", mutate: func(c *Config) {
			c.Variant, c.ServerURL = VariantRemote, ""
		}, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.OnlineCheckInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}
