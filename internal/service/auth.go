package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/auth"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

// AuthService turns credentials into tokens and tokens back into users.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService / PasswordService
//
// It implements auth.Identifier, so the middleware can resolve bearer tokens
// without knowing about the store.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

var _ auth.Identifier = (*AuthService)(nil)

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// errInvalidCredentials is shared by the unknown-email and wrong-password
// paths so a caller cannot probe which emails are registered.
func errInvalidCredentials() error {
	return apperror.Unauthenticated("invalid credentials")
}

// Login checks email and password and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errInvalidCredentials()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("login failed", slog.Int64("userID", user.ID))
			return nil, errInvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	token, err := s.tokens.Issue(auth.Identity{Email: user.Email, Name: user.Name})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return &Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.Lifetime().Seconds()),
	}, nil
}

// Identify resolves a bearer token to the user it names. A valid token whose
// account has since been deleted is Unauthenticated, not NotFound.
func (s *AuthService) Identify(ctx context.Context, token string) (*model.User, error) {
	id, err := s.tokens.Resolve(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("could not validate credentials")
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}
	return user, nil
}
