package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. WithTx
// serialises transactional work but does not roll back.
type MemoryRepositoryManager struct {
	txMu          sync.Mutex
	users         *users.MemoryRepository
	tasks         *tasks.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		tasks:         tasks.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository                 { return m.users }
func (m *MemoryRepositoryManager) Tasks() tasks.Repository                 { return m.tasks }
func (m *MemoryRepositoryManager) RefreshTokens() refreshtokens.Repository { return m.refreshTokens }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close(ctx context.Context) error { return nil }
