package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Variant             string         `json:"variant"`
	ServerURL           string         `json:"server_url"`
	AuthMode            string         `json:"auth_mode"`
	PasswordPolicy      string         `json:"password_policy"`
	DBPath              string         `json:"db_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Fields absent from the file keep their current values.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.Variant, jc.Variant)
	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.AuthMode, jc.AuthMode)
	setString(&cfg.PasswordPolicy, jc.PasswordPolicy)
	setString(&cfg.DBPath, jc.DBPath)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
