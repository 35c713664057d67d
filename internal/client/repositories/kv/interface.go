// Package kv is the key-value abstraction the local client variant persists
// through. A missing key reads as nil, which callers treat as an empty value.
package kv

import (
	"context"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
