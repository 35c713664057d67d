// Package common defines shared constants and sentinel errors used across
// client and server layers of todokeeper. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("not authorized")
	ErrorStorageUnavailable = errors.New("storage unavailable")

	// Credential errors. ErrorInvalidCredentials never says which half was wrong.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorDuplicateUser      = errors.New("user already exists")

	// Validation errors. Specific ones wrap ErrorValidation.
	ErrorValidation   = errors.New("validation error")
	ErrorMissingField = fmt.Errorf("%w: email and password are required", ErrorValidation)
	ErrorEmptyText    = fmt.Errorf("%w: text is required and must be a non-empty string", ErrorValidation)

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
