package client

import (
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

var (
	ErrUnavailable  = fmt.Errorf("server unavailable: %w", common.ErrorStorageUnavailable)
	ErrUnauthorized = common.ErrorUnauthorized
)

// APIError is a non-2xx answer from the server. It unwraps to the matching
// sentinel from package common.
type APIError struct {
	Status  int
	Message string
	err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.err.Error()
}

func (e *APIError) Unwrap() error { return e.err }
