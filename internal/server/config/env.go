package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with TODO_* environment variables. A .env file in
// the working directory is loaded first if present; variables already set in
// the process environment win over it.
//
// PORT and JWT_SECRET are honoured for compatibility with common PaaS setups.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("PORT"); v != "" {
		cfg.EndpointAddrHTTP = ":" + v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.SecretKey = v
	}

	setString(&cfg.EndpointAddrHTTP, "TODO_HTTP_ADDR")
	setString(&cfg.EndpointAddrGRPC, "TODO_GRPC_ADDR")
	setString(&cfg.StorageDriver, "TODO_STORAGE")
	setString(&cfg.DatabaseDSN, "TODO_DATABASE_DSN")
	setString(&cfg.MongoURI, "TODO_MONGO_URI")
	setString(&cfg.MongoDatabase, "TODO_MONGO_DB")
	setString(&cfg.AuthMode, "TODO_AUTH_MODE")
	setString(&cfg.PasswordPolicy, "TODO_PASSWORD_POLICY")
	setString(&cfg.SecretKey, "TODO_SECRET_KEY")
	setDuration(&cfg.AccessTokenValidityDuration, "TODO_ACCESS_TTL")
	setDuration(&cfg.RefreshTokenValidityDuration, "TODO_REFRESH_TTL")
	setString(&cfg.S3RootUser, "TODO_S3_USER")
	setString(&cfg.S3RootPassword, "TODO_S3_PASSWORD")
	setString(&cfg.S3Bucket, "TODO_S3_BUCKET")
	setString(&cfg.S3Region, "TODO_S3_REGION")
	setString(&cfg.S3BaseEndpoint, "TODO_S3_ENDPOINT")
	setString(&cfg.LogLevel, "TODO_LOG_LEVEL")

	if v, ok := os.LookupEnv("TODO_CORS_ORIGINS"); ok {
		cfg.CORSAllowedOrigins = splitList(v)
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setDuration ignores values time.ParseDuration rejects.
func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
