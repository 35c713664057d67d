// Package common contains shared constants and sentinel errors used across
// todokeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying either a bearer access
// token or Basic credentials, depending on the configured auth mode.
const AuthorizationHeaderName = "Authorization"

const (
	// BearerPrefix precedes the access token in token mode.
	BearerPrefix = "Bearer "
	// BasicPrefix precedes base64("email:password") in basic mode.
	BasicPrefix = "Basic "
)

// DefaultCategory is assigned to tasks created without a category.
const DefaultCategory = "General"
