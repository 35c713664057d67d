package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
)

var serverFlags = []string{
	"-a", "-grpc", "-storage", "-d", "-mongo-uri", "-mongo-db", "-auth", "-password-policy",
	"-s", "-t", "-r", "-cors", "-s3-user", "-s3-password", "-s3-bucket", "-s3-region",
	"-s3-endpoint", "-log-level",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string                HTTP bind address (e.g., ":8080")
//	-grpc string             gRPC health bind address, empty disables
//	-storage string          postgres | mongo | memory
//	-d string                PostgreSQL DSN
//	-mongo-uri string        MongoDB URI
//	-mongo-db string         MongoDB database name
//	-auth string             token | basic
//	-password-policy string  bcrypt | plain
//	-s string                JWT HMAC secret key
//	-t int                   access token validity, minutes
//	-r int                   refresh token validity, minutes
//	-cors string             comma-separated allowed origins
//	-s3-* string             object storage settings for exports
//	-log-level string        debug | info | warn | error
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and unknown
// flags do not break parsing. Invalid values panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "address and port of the gRPC health endpoint")
	fs.StringVar(&config.StorageDriver, "storage", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "mongo-uri", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.MongoDatabase, "mongo-db", config.MongoDatabase, "MongoDB database")
	fs.StringVar(&config.AuthMode, "auth", config.AuthMode, "auth mode")
	fs.StringVar(&config.PasswordPolicy, "password-policy", config.PasswordPolicy, "password policy")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	cors := fs.String("cors", strings.Join(config.CORSAllowedOrigins, ","), "allowed CORS origins")

	fs.StringVar(&config.S3RootUser, "s3-user", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "s3-password", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 export bucket")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.CORSAllowedOrigins = splitList(*cors)
}
