package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// JsonConfig is the JSON file layout. Durations use timex.Duration so both
// "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	StorageDriver                string         `json:"storage_driver"`
	DatabaseDSN                  string         `json:"database_dsn"`
	MongoURI                     string         `json:"mongo_uri"`
	MongoDatabase                string         `json:"mongo_database"`
	AuthMode                     string         `json:"auth_mode"`
	PasswordPolicy               string         `json:"password_policy"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	CORSAllowedOrigins           []string       `json:"cors_allowed_origins"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays Config with the file named by -c or -config. Only
// fields present (non-zero) in the file are copied. Read or decode errors
// panic; the server cannot start with a broken config file.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.StorageDriver, c.StorageDriver)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.MongoURI, c.MongoURI)
	overlay(&config.MongoDatabase, c.MongoDatabase)
	overlay(&config.AuthMode, c.AuthMode)
	overlay(&config.PasswordPolicy, c.PasswordPolicy)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
