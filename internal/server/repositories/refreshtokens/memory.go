package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, rt *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[rt.Token] = *rt
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, rt := range r.tokens {
		if rt.UserID == userID && rt.Expires.Before(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}
