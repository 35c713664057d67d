// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, per-request authentication
// and, in token mode, issuing and rotating access and refresh tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/cryptox"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is what a successful login yields. Tokens is nil in basic mode.
type LoginResult struct {
	User   *models.User
	Tokens *TokenPair
}

type UserService struct {
	repomanager                  repomanager.RepositoryManager
	policy                       cryptox.PasswordPolicy
	issueTokens                  bool
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time

	dummyOnce sync.Once
	dummy     string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, policy cryptox.PasswordPolicy, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:                  m,
		policy:                       policy,
		issueTokens:                  cfg.AuthMode == config.AuthModeToken,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register creates a user. A blank name defaults to the local part of the
// email.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrorMissingField
	}

	hash, err := s.policy.Hash([]byte(password))
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      models.DefaultName(name, email),
		Email:     email,
		Password:  hash,
		CreatedAt: s.now().UTC(),
	}

	u, err := s.repomanager.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateUser) {
			return nil, common.ErrorDuplicateUser
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrorMissingField
	}

	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	res := &LoginResult{User: user}
	if s.issueTokens {
		pair, err := s.generateTokenPair(ctx, user.ID, s.repomanager)
		if err != nil {
			return nil, err
		}
		res.Tokens = pair
	}
	return res, nil
}

// AuthenticateBasic re-checks credentials presented on a single request.
func (s *UserService) AuthenticateBasic(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.checkCredentials(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// ResolveAccessToken returns the user an access token was issued to. A token
// for a user that no longer exists is rejected.
func (s *UserService) ResolveAccessToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

// Me returns the user with userID, or common.ErrorUnauthorized when it is gone.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidToken
	}

	var pair *TokenPair
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		repo := r.RefreshTokens()

		token, err := repo.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}

		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		if err := repo.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		if _, err := r.Users().GetUserByID(ctx, token.UserID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return err
		}

		pair, err = s.generateTokenPair(ctx, token.UserID, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes refreshToken. Unknown or empty tokens are not an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens().Delete(ctx, refreshToken); err != nil {
		return common.ErrorInternal
	}
	return nil
}

func (s *UserService) checkCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// same work as a real comparison
			s.policy.Compare(s.dummyHash(), []byte(password))
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !s.policy.Compare(user.Password, []byte(password)) {
		return nil, common.ErrorInvalidCredentials
	}
	return user, nil
}

func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		random, err := common.MakeRandHexString(16)
		if err != nil {
			random = "dummy-password"
		}
		s.dummy, _ = s.policy.Hash([]byte(random))
	})
	return s.dummy
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, r repomanager.Repositories) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	now := s.now()
	rt := &models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		Expires:   now.Add(s.refreshTokenValidityDuration),
		CreatedAt: now,
	}
	if err := r.RefreshTokens().Create(ctx, rt); err != nil {
		return nil, common.ErrorInternal
	}
	if _, err := r.RefreshTokens().DeleteExpired(ctx, userID, now); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
