// Package services contains server-side business logic. This file implements
// AuthService: password login, logout through the revocation list, and
// resolution of a presented bearer token into a Principal.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/auth"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once at startup and compared against when the
// requested user does not exist, so both failure paths pay for one bcrypt.
const dummyPassword = "catalogauth-no-such-user"

// LoginResult is what a successful Login hands back to the transport.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal models.Principal
}

// AuthService checks credentials, issues tokens, revokes them on logout and
// resolves presented tokens into principals.
type AuthService struct {
	users      users.Repository
	revoked    revokedtokens.Repository
	codec      *auth.Codec
	logger     logging.Logger
	bcryptCost int
	dummyHash  []byte
	now        func() time.Time
}

// NewAuthService wires the service. bcryptCost applies to hashes created by
// Register and to the dummy hash.
func NewAuthService(u users.Repository, r revokedtokens.Repository, codec *auth.Codec, bcryptCost int, logger logging.Logger) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &AuthService{
		users:      u,
		revoked:    r,
		codec:      codec,
		logger:     logger,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		now:        time.Now,
	}, nil
}

// Authenticate checks username and password. Unknown user and wrong password
// both yield common.ErrBadCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (models.Principal, error) {
	user, err := s.users.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return models.Principal{}, common.ErrBadCredentials
		}
		s.log(ctx).Error(ctx, "user lookup failed", "username", username, "error", err)
		return models.Principal{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return models.Principal{}, common.ErrBadCredentials
	}
	return models.PrincipalFromUser(user), nil
}

// Login authenticates and issues a token for the resulting principal.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	p, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.codec.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.log(ctx).Info(ctx, "user logged in", "username", p.Subject())
	return &LoginResult{Token: token, ExpiresAt: exp, Principal: p}, nil
}

// Logout revokes token for the rest of its natural lifetime. A token that
// already expired or was already revoked is accepted without error; one that
// cannot be decoded is rejected with a token error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", common.ErrTokenMalformed)
	}

	exp, err := s.codec.ExpiryOf(token)
	if err != nil {
		return err
	}
	if !exp.After(s.now()) {
		return nil
	}

	if err := s.revoked.Revoke(ctx, token, exp); err != nil {
		s.log(ctx).Error(ctx, "revocation store unavailable on logout", "error", err)
		return err
	}
	return nil
}

// Resolve turns a presented token into the principal it stands for. Checks
// run in order: signature and expiry, revocation, then the user record.
// Any store failure rejects the token.
func (s *AuthService) Resolve(ctx context.Context, token string) (models.Principal, error) {
	vt, err := s.codec.Verify(token)
	if err != nil {
		return models.Principal{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, token)
	if err != nil {
		s.log(ctx).Error(ctx, "revocation store unavailable", "error", err)
		return models.Principal{}, err
	}
	if revoked {
		return models.Principal{}, common.ErrTokenRevoked
	}

	user, err := s.users.GetUserByLogin(ctx, vt.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.Principal{}, fmt.Errorf("%w: subject %q no longer exists", common.ErrTokenRevoked, vt.Subject)
		}
		s.log(ctx).Error(ctx, "user lookup failed", "username", vt.Subject, "error", err)
		return models.Principal{}, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	return models.PrincipalFromUser(user), nil
}

// Register creates a user with a bcrypt hash of password.
func (s *AuthService) Register(ctx context.Context, username, password string, roles []string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	normalized := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			normalized = append(normalized, r)
		}
	}

	u, err := s.users.Create(ctx, &models.User{UserName: username, PasswordHash: hash, Roles: normalized})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.log(ctx).Info(ctx, "user registered", "username", u.UserName, "roles", u.Roles)
	return u, nil
}

func (s *AuthService) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.logger)
}
