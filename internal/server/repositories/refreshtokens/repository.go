// Package refreshtokens stores the opaque refresh tokens issued in token
// auth mode. A token is single-use: refreshing deletes it and issues a new one.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/models"
)

type Repository interface {
	// Create stores rt as given. Expiry is the caller's decision.
	Create(ctx context.Context, rt *models.RefreshToken) error

	// Find returns common.ErrorNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is idempotent.
	Delete(ctx context.Context, token string) error

	// DeleteExpired drops the tokens of userID that expired before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
