package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

// FavoriteService manages users' bookmarked recipes. "Who favorited this
// recipe" is always derived from the ledger, never stored on the recipe.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, logger: logger}
}

// Add favorites recipeID for userID. NotFound if the recipe is missing,
// Conflict if it is already a favorite.
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID int64) (*model.Favorite, error) {
	fav, err := s.favorites.Add(ctx, userID, recipeID)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			s.logger.Error("failed to add favorite",
				slog.Int64("userID", userID),
				slog.Int64("recipeID", recipeID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("favorite added", slog.Int64("userID", userID), slog.Int64("recipeID", recipeID))
	return fav, nil
}

// ListForUser returns the favorited recipes themselves, oldest favorite first.
func (s *FavoriteService) ListForUser(ctx context.Context, userID int64) ([]model.Recipe, error) {
	recipes, err := s.favorites.ListRecipes(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list favorites", slog.Int64("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing favorites of user %d: %w", userID, err)
	}
	return recipes, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID int64) error {
	if err := s.favorites.Remove(ctx, userID, recipeID); err != nil {
		return err
	}

	s.logger.Info("favorite removed", slog.Int64("userID", userID), slog.Int64("recipeID", recipeID))
	return nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	return s.favorites.Exists(ctx, userID, recipeID)
}

func (s *FavoriteService) Count(ctx context.Context, recipeID int64) (int, error) {
	return s.favorites.CountForRecipe(ctx, recipeID)
}
