package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/auth"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

const MaxNameLength = 100

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// UserService owns account lifecycle: registration, lookup, self-service
// update and deletion.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// Register validates the input, hashes the password and creates the user.
// A taken email is ErrConflict; the existing account is left untouched.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name", fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash, Name: name}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user", slog.String("email", email), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("id", user.ID))
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update applies patch to user id. Only the user themself may do so.
// A new password is hashed here; the plaintext never reaches the store.
func (s *UserService) Update(ctx context.Context, requesterID, id int64, patch model.UserPatch) (*model.User, error) {
	if err := s.requireSelf(ctx, requesterID, id, "update"); err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if len(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name", fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		patch.Name = &name
	}
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := s.passwords.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		patch.PasswordHash = &hash
		patch.Password = nil
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.Int64("id", id))
	return user, nil
}

// Delete removes user id together with their recipes and favorites.
func (s *UserService) Delete(ctx context.Context, requesterID, id int64) error {
	if err := s.requireSelf(ctx, requesterID, id, "delete"); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// requireSelf reports NotFound for a missing target before Forbidden, so the
// answer for an absent account does not depend on who asks.
func (s *UserService) requireSelf(ctx context.Context, requesterID, id int64, action string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if requesterID != id {
		return apperror.Forbidden(fmt.Sprintf("not authorized to %s user %d", action, id))
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}

func validatePassword(pw string) error {
	if pw == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	if len(pw) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password", fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	return nil
}
