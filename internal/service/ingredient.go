package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

const (
	MaxIngredientNameLength = 100
	MaxUnitLength           = 50
)

// IngredientService manages the shared ingredient catalog. Any authenticated
// user may add to it; entries are never owned by a single recipe.
type IngredientService struct {
	repo   repository.IngredientRepository
	logger *slog.Logger
}

func NewIngredientService(repo repository.IngredientRepository, logger *slog.Logger) *IngredientService {
	return &IngredientService{repo: repo, logger: logger}
}

// Create adds an ingredient. Duplicate names are ErrConflict.
func (s *IngredientService) Create(ctx context.Context, name, unit string) (*model.Ingredient, error) {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)

	switch {
	case name == "":
		return nil, apperror.ValidationFailed("name", "ingredient name is required")
	case len(name) > MaxIngredientNameLength:
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("ingredient name must be %d characters or less", MaxIngredientNameLength))
	case unit == "":
		return nil, apperror.ValidationFailed("unit", "unit is required")
	case len(unit) > MaxUnitLength:
		return nil, apperror.ValidationFailed("unit", fmt.Sprintf("unit must be %d characters or less", MaxUnitLength))
	}

	ingredient := &model.Ingredient{Name: name, Unit: unit}
	if err := s.repo.Create(ctx, ingredient); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create ingredient", slog.String("name", name), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.logger.Info("ingredient created", slog.Int64("id", ingredient.ID), slog.String("name", name))
	return ingredient, nil
}

func (s *IngredientService) Get(ctx context.Context, id int64) (*model.Ingredient, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of the catalog in id order.
func (s *IngredientService) List(ctx context.Context, offset, limit int) ([]model.Ingredient, error) {
	ingredients, err := s.repo.List(ctx, page(offset, limit, DefaultIngredientLimit, MaxIngredientLimit))
	if err != nil {
		s.logger.Error("failed to list ingredients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return ingredients, nil
}
