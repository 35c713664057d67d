// Package config loads runtime configuration for the todokeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-mode string             local | remote
//	-a string                base URL of the REST server
//	-auth string             token | basic
//	-password-policy string  bcrypt | plain (local variant)
//	-db string               path of the local SQLite file
//	-i int                   online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "variant": "remote",
//	  "server_url": "http://127.0.0.1:8080",
//	  "auth_mode": "token",
//	  "password_policy": "bcrypt",
//	  "db_path": "todokeeper.db",
//	  "online_check_interval": "3s"
//	}
package config
