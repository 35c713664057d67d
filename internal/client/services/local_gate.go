package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/cryptox"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/google/uuid"
)

// storedUser is the persisted form of a user. Unlike models.User it keeps
// the password material in JSON.
type storedUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// LocalGate keeps the users collection and the session marker (the raw
// email of the signed-in user) in a kv.Store.
type LocalGate struct {
	store  kv.Store
	policy cryptox.PasswordPolicy
	now    func() time.Time

	mu sync.Mutex
}

func NewLocalGate(store kv.Store, policy cryptox.PasswordPolicy) *LocalGate {
	return &LocalGate{store: store, policy: policy, now: time.Now}
}

func (g *LocalGate) Register(ctx context.Context, name, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrorMissingField
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	users, err := g.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if findUser(users, email) != nil {
		return nil, common.ErrorDuplicateUser
	}

	hash, err := g.policy.Hash([]byte(password))
	if err != nil {
		return nil, common.ErrorInternal
	}

	u := storedUser{
		ID:        uuid.NewString(),
		Name:      models.DefaultName(name, email),
		Email:     email,
		Password:  hash,
		CreatedAt: g.now().UTC(),
	}
	if err := g.saveUsers(ctx, append(users, u)); err != nil {
		return nil, err
	}

	return g.establish(ctx, &u)
}

func (g *LocalGate) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrorMissingField
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	users, err := g.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	u := findUser(users, email)
	if u == nil || !g.policy.Compare(u.Password, []byte(password)) {
		return nil, common.ErrorInvalidCredentials
	}

	return g.establish(ctx, u)
}

func (g *LocalGate) InitSession(ctx context.Context) (*models.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	marker, err := g.store.Get(ctx, KeySession)
	if err != nil {
		return nil, storageError(err)
	}
	if len(marker) == 0 {
		return nil, nil
	}

	users, err := g.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	u := findUser(users, string(marker))
	if u == nil {
		if err := g.store.Delete(ctx, KeySession); err != nil {
			return nil, storageError(err)
		}
		return nil, nil
	}
	return sessionFor(u), nil
}

// Logout clears the session marker. Calling it without a session is fine.
func (g *LocalGate) Logout(ctx context.Context, s *models.Session) error {
	if err := g.store.Delete(ctx, KeySession); err != nil {
		return storageError(err)
	}
	return nil
}

func (g *LocalGate) establish(ctx context.Context, u *storedUser) (*models.Session, error) {
	if err := g.store.Set(ctx, KeySession, []byte(u.Email)); err != nil {
		return nil, storageError(err)
	}
	return sessionFor(u), nil
}

func (g *LocalGate) loadUsers(ctx context.Context) ([]storedUser, error) {
	raw, err := g.store.Get(ctx, KeyUsers)
	if err != nil {
		return nil, storageError(err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var users []storedUser
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

func (g *LocalGate) saveUsers(ctx context.Context, users []storedUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return common.ErrorInternal
	}
	if err := g.store.Set(ctx, KeyUsers, raw); err != nil {
		return storageError(err)
	}
	return nil
}

func findUser(users []storedUser, email string) *storedUser {
	for i := range users {
		if users[i].Email == email {
			return &users[i]
		}
	}
	return nil
}

func sessionFor(u *storedUser) *models.Session {
	return &models.Session{UserID: u.ID, Name: u.Name, Email: u.Email}
}
