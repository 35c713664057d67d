package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/client/client"
	"github.com/dmitrijs2005/todokeeper/internal/client/config"
	"github.com/dmitrijs2005/todokeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

// ErrModeMismatch is returned when the server does not run the auth mode the
// client is configured for.
var ErrModeMismatch = errors.New("server auth mode does not match client configuration")

// remoteMarker is the persisted session marker of the remote variant. Token
// mode keeps the token pair, basic mode keeps the credential pair.
type remoteMarker struct {
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
}

// RemoteGate authenticates against the server and persists the resulting
// marker in a kv.Store so the session survives restarts.
type RemoteGate struct {
	api   *client.APIClient
	store kv.Store
	mode  string
}

func NewRemoteGate(api *client.APIClient, store kv.Store, mode string) *RemoteGate {
	g := &RemoteGate{api: api, store: store, mode: mode}
	api.OnTokensRefreshed(func(access, refresh string) {
		// best effort: a stale marker is refreshed again on next start
		_ = g.saveMarker(context.Background(), remoteMarker{Token: access, RefreshToken: refresh})
	})
	return g
}

// Register creates the account and signs it in.
func (g *RemoteGate) Register(ctx context.Context, name, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrorMissingField
	}
	if _, err := g.api.Register(ctx, name, email, password); err != nil {
		return nil, err
	}
	return g.Login(ctx, email, password)
}

func (g *RemoteGate) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrorMissingField
	}

	resp, err := g.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var m remoteMarker
	switch g.mode {
	case config.AuthModeBasic:
		if resp.Token != "" {
			g.api.ClearCredentials()
			return nil, ErrModeMismatch
		}
		g.api.SetBasic(email, password)
		m = remoteMarker{Email: email, Password: password}
	default:
		if resp.Token == "" {
			g.api.ClearCredentials()
			return nil, ErrModeMismatch
		}
		m = remoteMarker{Token: resp.Token, RefreshToken: resp.RefreshToken}
	}

	if err := g.saveMarker(ctx, m); err != nil {
		return nil, err
	}

	s := sessionFromSummary(&resp.User)
	s.AccessToken, s.RefreshToken = m.Token, m.RefreshToken
	return s, nil
}

func (g *RemoteGate) InitSession(ctx context.Context) (*models.Session, error) {
	raw, err := g.store.Get(ctx, KeySession)
	if err != nil {
		return nil, storageError(err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var m remoteMarker
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, g.clear(ctx)
	}

	switch {
	case g.mode == config.AuthModeBasic && m.Email != "":
		g.api.SetBasic(m.Email, m.Password)
	case g.mode == config.AuthModeToken && m.Token != "":
		g.api.SetTokens(m.Token, m.RefreshToken)
	default:
		return nil, g.clear(ctx)
	}

	me, err := g.api.Me(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrTokenExpired) ||
			errors.Is(err, common.ErrInvalidToken) {
			return nil, g.clear(ctx)
		}
		return nil, err
	}

	s := sessionFromSummary(me)
	s.AccessToken, s.RefreshToken = g.api.Tokens()
	return s, nil
}

// Logout forgets the marker locally and then revokes it on the server. An
// unreachable server does not fail the logout.
func (g *RemoteGate) Logout(ctx context.Context, s *models.Session) error {
	if err := g.store.Delete(ctx, KeySession); err != nil {
		return storageError(err)
	}
	if err := g.api.Logout(ctx); err != nil && !errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (g *RemoteGate) clear(ctx context.Context) error {
	g.api.ClearCredentials()
	if err := g.store.Delete(ctx, KeySession); err != nil {
		return storageError(err)
	}
	return nil
}

func (g *RemoteGate) saveMarker(ctx context.Context, m remoteMarker) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return common.ErrorInternal
	}
	if err := g.store.Set(ctx, KeySession, raw); err != nil {
		return storageError(err)
	}
	return nil
}

func sessionFromSummary(u *models.UserSummary) *models.Session {
	return &models.Session{UserID: u.ID, Name: u.Name, Email: u.Email}
}
