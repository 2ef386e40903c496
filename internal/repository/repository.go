// Package repository declares the storage contracts the service layer depends on.
//
// The interfaces are implemented by internal/repository/sqlite; services only see
// these contracts so tests can swap in in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/recipe-share/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the User Directory.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
	// Delete removes the user together with their recipes and favorites.
	Delete(ctx context.Context, id int64) error
}

// IngredientRepository is the Ingredient Catalog.
type IngredientRepository interface {
	Create(ctx context.Context, ingredient *model.Ingredient) error
	GetByID(ctx context.Context, id int64) (*model.Ingredient, error)
	List(ctx context.Context, opts ListOptions) ([]model.Ingredient, error)
}

// RecipeRepository is the Recipe Store. Every mutating method runs as a single
// transaction and performs the ownership check inside it.
type RecipeRepository interface {
	Create(ctx context.Context, ownerID int64, draft *model.RecipeDraft) (*model.Recipe, error)
	GetByID(ctx context.Context, id int64) (*model.Recipe, error)
	List(ctx context.Context, opts ListOptions) ([]model.Recipe, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Recipe, error)
	Update(ctx context.Context, id, requesterID int64, draft *model.RecipeDraft) (*model.Recipe, error)
	Delete(ctx context.Context, id, requesterID int64) error
	AddImage(ctx context.Context, id, requesterID int64, ref string) (*model.Recipe, error)
}

// FavoriteRepository is the Favorites Ledger.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, recipeID int64) (*model.Favorite, error)
	ListRecipes(ctx context.Context, userID int64) ([]model.Recipe, error)
	Remove(ctx context.Context, userID, recipeID int64) error
	Exists(ctx context.Context, userID, recipeID int64) (bool, error)
	CountForRecipe(ctx context.Context, recipeID int64) (int, error)
}
