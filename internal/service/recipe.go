package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
	"github.com/sakif/recipe-share/internal/storage"
)

const (
	MaxTitleLength = 200

	// DefaultMaxImageBytes caps a single uploaded image.
	DefaultMaxImageBytes = 5 << 20
)

// RecipeService validates recipe drafts and enforces who may change a recipe.
// Ownership is checked again inside the store's transaction, so a check here
// only spares work (such as an image upload) that would be thrown away.
type RecipeService struct {
	recipes       repository.RecipeRepository
	images        storage.ImageStore
	maxImageBytes int64
	logger        *slog.Logger
}

// NewRecipeService wires the service. images may be nil, in which case
// AttachImage is unavailable.
func NewRecipeService(
	recipes repository.RecipeRepository,
	images storage.ImageStore,
	maxImageBytes int64,
	logger *slog.Logger,
) *RecipeService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &RecipeService{
		recipes:       recipes,
		images:        images,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// Create validates draft and stores it as a new recipe owned by ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID int64, draft *model.RecipeDraft) (*model.Recipe, error) {
	if err := normalizeDraft(draft); err != nil {
		return nil, err
	}

	recipe, err := s.recipes.Create(ctx, ownerID, draft)
	if err != nil {
		s.logStoreError("failed to create recipe", err, slog.Int64("ownerID", ownerID))
		return nil, err
	}

	s.logger.Info("recipe created",
		slog.Int64("id", recipe.ID),
		slog.Int64("ownerID", ownerID),
		slog.Int("ingredients", len(recipe.Ingredients)),
		slog.Int("steps", len(recipe.Instructions)),
	)
	return recipe, nil
}

func (s *RecipeService) Get(ctx context.Context, id int64) (*model.Recipe, error) {
	return s.recipes.GetByID(ctx, id)
}

// List returns a page of recipes. The default page is small because every
// recipe carries its ingredients and instructions.
func (s *RecipeService) List(ctx context.Context, offset, limit int) ([]model.Recipe, error) {
	recipes, err := s.recipes.List(ctx, page(offset, limit, DefaultRecipeLimit, MaxRecipeLimit))
	if err != nil {
		s.logger.Error("failed to list recipes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, nil
}

func (s *RecipeService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Recipe, error) {
	recipes, err := s.recipes.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list recipes by owner", slog.Int64("ownerID", ownerID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recipes of user %d: %w", ownerID, err)
	}
	return recipes, nil
}

// Update replaces the recipe's fields, ingredient lines and instructions.
// NotFound if absent, Forbidden unless requesterID owns it.
func (s *RecipeService) Update(ctx context.Context, id, requesterID int64, draft *model.RecipeDraft) (*model.Recipe, error) {
	if err := normalizeDraft(draft); err != nil {
		return nil, err
	}

	recipe, err := s.recipes.Update(ctx, id, requesterID, draft)
	if err != nil {
		s.logStoreError("failed to update recipe", err, slog.Int64("id", id))
		return nil, err
	}

	s.logger.Info("recipe updated", slog.Int64("id", id))
	return recipe, nil
}

func (s *RecipeService) Delete(ctx context.Context, id, requesterID int64) error {
	if err := s.recipes.Delete(ctx, id, requesterID); err != nil {
		s.logStoreError("failed to delete recipe", err, slog.Int64("id", id))
		return err
	}

	s.logger.Info("recipe deleted", slog.Int64("id", id))
	return nil
}

// AttachImage stores an image for recipe id and appends its reference to the
// recipe. Owner only. The type is sniffed from the content, not taken from
// the client; accepted types are jpeg, png, webp and gif.
func (s *RecipeService) AttachImage(ctx context.Context, id, requesterID int64, body io.Reader) (*model.Recipe, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}

	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != requesterID {
		return nil, apperror.Forbidden(fmt.Sprintf("not authorized to modify recipe %d", id))
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("image", "image file is empty")
	}
	if int64(len(data)) > s.maxImageBytes {
		return nil, apperror.ValidationFailed("image",
			fmt.Sprintf("image must be %d bytes or smaller", s.maxImageBytes))
	}

	contentType := http.DetectContentType(data)
	key, err := storage.NewKey(id, contentType)
	if err != nil {
		return nil, apperror.ValidationFailed("image", "image must be jpeg, png, webp or gif")
	}

	ref, err := s.images.Put(ctx, key, contentType, data)
	if err != nil {
		s.logger.Error("failed to store image", slog.Int64("recipeID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("storing image: %w", err)
	}

	recipe, err = s.recipes.AddImage(ctx, id, requesterID, ref)
	if err != nil {
		s.logStoreError("failed to attach image", err, slog.Int64("recipeID", id))
		return nil, err
	}

	s.logger.Info("recipe image attached",
		slog.Int64("recipeID", id),
		slog.String("ref", ref),
		slog.Int("bytes", len(data)),
	)
	return recipe, nil
}

// logStoreError logs unexpected failures; domain errors (not found, forbidden,
// conflict, validation) are normal outcomes and are not logged as errors.
func (s *RecipeService) logStoreError(msg string, err error, attrs ...any) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return
	}
	s.logger.Error(msg, append(attrs, slog.String("error", err.Error()))...)
}

// normalizeDraft trims text fields and rejects malformed drafts before any
// store is touched.
func normalizeDraft(d *model.RecipeDraft) error {
	if d == nil {
		return apperror.ValidationFailed("recipe", "recipe body is required")
	}

	f := &d.RecipeFields
	f.Title = strings.TrimSpace(f.Title)
	f.Category = model.Category(strings.ToLower(strings.TrimSpace(string(f.Category))))

	switch {
	case f.Title == "":
		return apperror.ValidationFailed("title", "title is required")
	case len(f.Title) > MaxTitleLength:
		return apperror.ValidationFailed("title", fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	case f.CookingTime <= 0:
		return apperror.ValidationFailed("cooking_time", "cooking_time must be a positive number of minutes")
	case f.Servings <= 0:
		return apperror.ValidationFailed("servings", "servings must be a positive integer")
	case f.PrepTime != nil && *f.PrepTime < 0:
		return apperror.ValidationFailed("prep_time", "prep_time must not be negative")
	case f.TotalTime != nil && *f.TotalTime < 0:
		return apperror.ValidationFailed("total_time", "total_time must not be negative")
	case f.Calories != nil && *f.Calories < 0:
		return apperror.ValidationFailed("calories", "calories must not be negative")
	case f.Category != "" && !f.Category.Valid():
		return apperror.ValidationFailed("category", fmt.Sprintf("category must be one of %v", model.Categories()))
	}

	seen := make(map[int64]bool, len(d.Ingredients))
	for i, line := range d.Ingredients {
		field := fmt.Sprintf("ingredients[%d]", i)
		if line.IngredientID <= 0 {
			return apperror.ValidationFailed(field+".ingredient_id", "ingredient_id is required")
		}
		if !(line.Quantity > 0) {
			return apperror.ValidationFailed(field+".quantity", "quantity must be positive")
		}
		if seen[line.IngredientID] {
			return apperror.ValidationFailed(field+".ingredient_id",
				fmt.Sprintf("ingredient %d is listed more than once", line.IngredientID))
		}
		seen[line.IngredientID] = true
	}

	for i := range d.Instructions {
		step := &d.Instructions[i]
		field := fmt.Sprintf("instructions[%d]", i)
		step.Description = strings.TrimSpace(step.Description)
		if step.StepNumber <= 0 {
			return apperror.ValidationFailed(field+".step_number", "step_number must be positive")
		}
		if step.Description == "" {
			return apperror.ValidationFailed(field+".description", "description is required")
		}
	}

	if d.Ingredients == nil {
		d.Ingredients = []model.IngredientLine{}
	}
	if d.Instructions == nil {
		d.Instructions = []model.InstructionLine{}
	}
	return nil
}
