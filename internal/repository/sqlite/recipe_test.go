package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

type recipeFixture struct {
	db    *DB
	owner *model.User
	other *model.User
	salt  *model.Ingredient
	flour *model.Ingredient
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()
	db := newTestDB(t)
	return &recipeFixture{
		db:    db,
		owner: createTestUser(t, db.Users(), "a@x.com"),
		other: createTestUser(t, db.Users(), "b@x.com"),
		salt:  createTestIngredient(t, db, "Salt", "grams"),
		flour: createTestIngredient(t, db, "Flour", "grams"),
	}
}

func intp(n int) *int { return &n }

func TestRecipeCreate_RoundTrip(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.db.Recipes().Create(ctx, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{
			Title:       "Bread",
			Description: "Plain loaf",
			CookingTime: 45,
			PrepTime:    intp(15),
			Servings:    8,
			Category:    model.CategoryBreakfast,
			Difficulty:  "easy",
		},
		Ingredients: []model.IngredientLine{
			{IngredientID: f.flour.ID, Quantity: 500},
			{IngredientID: f.salt.ID, Quantity: 10, Notes: "fine"},
		},
		Instructions: []model.InstructionLine{
			{StepNumber: 3, Description: "Bake"},
			{StepNumber: 1, Description: "Mix"},
			{StepNumber: 2, Description: "Knead"},
		},
	})
	require.NoError(t, err)

	got, err := f.db.Recipes().GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Bread", got.Title)
	assert.Equal(t, f.owner.ID, got.UserID)
	assert.Equal(t, model.CategoryBreakfast, got.Category)
	require.NotNil(t, got.PrepTime)
	assert.Equal(t, 15, *got.PrepTime)
	assert.Nil(t, got.TotalTime)
	assert.Nil(t, got.Calories)
	assert.Empty(t, got.Images)
	assert.False(t, got.CreatedAt.IsZero())

	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Flour", got.Ingredients[0].Name)
	assert.Equal(t, "grams", got.Ingredients[0].Unit)
	assert.Equal(t, 500.0, got.Ingredients[0].Quantity)
	assert.Equal(t, "fine", got.Ingredients[1].Notes)

	require.Len(t, got.Instructions, 3)
	for i, want := range []string{"Mix", "Knead", "Bake"} {
		assert.Equal(t, i+1, got.Instructions[i].StepNumber)
		assert.Equal(t, want, got.Instructions[i].Description)
	}
}

func TestRecipeCreate_MissingIngredientWritesNothing(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	_, err := f.db.Recipes().Create(ctx, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Ghost", CookingTime: 5, Servings: 1},
		Ingredients: []model.IngredientLine{
			{IngredientID: f.salt.ID, Quantity: 1},
			{IngredientID: 999, Quantity: 1},
		},
		Instructions: []model.InstructionLine{{StepNumber: 1, Description: "Nothing"}},
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, err.Error(), "999")

	all, err := f.db.Recipes().List(ctx, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, all, "failed Create() must not leave a recipe row behind")

	var steps int
	require.NoError(t, f.db.conn.QueryRow(`SELECT COUNT(*) FROM instructions`).Scan(&steps))
	assert.Zero(t, steps)
}

func TestRecipeCreate_DuplicateIngredientRollsBack(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	_, err := f.db.Recipes().Create(ctx, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Salty", CookingTime: 5, Servings: 1},
		Ingredients: []model.IngredientLine{
			{IngredientID: f.salt.ID, Quantity: 1},
			{IngredientID: f.salt.ID, Quantity: 2},
		},
	})
	require.ErrorIs(t, err, apperror.ErrConflict)

	var n int
	require.NoError(t, f.db.conn.QueryRow(`SELECT COUNT(*) FROM recipes`).Scan(&n))
	assert.Zero(t, n)
}

func TestRecipeCreate_UnknownOwner(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.db.Recipes().Create(context.Background(), 12345, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Orphan", CookingTime: 5, Servings: 1},
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecipeGetByID_NotFound(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.db.Recipes().GetByID(context.Background(), 77)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecipeUpdate_ReplacesChildrenWholesale(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe := createTestRecipe(t, f.db, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "v1", CookingTime: 10, Servings: 2},
		Ingredients:  []model.IngredientLine{{IngredientID: f.salt.ID, Quantity: 1}},
		Instructions: []model.InstructionLine{
			{StepNumber: 1, Description: "old one"},
			{StepNumber: 2, Description: "old two"},
			{StepNumber: 3, Description: "old three"},
		},
	})

	updated, err := f.db.Recipes().Update(ctx, recipe.ID, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "v2", CookingTime: 12, Servings: 4, Calories: intp(300)},
		Ingredients:  []model.IngredientLine{{IngredientID: f.flour.ID, Quantity: 200}},
		Instructions: []model.InstructionLine{{StepNumber: 1, Description: "new"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "v2", updated.Title)
	assert.Equal(t, 4, updated.Servings)
	require.NotNil(t, updated.Calories)
	assert.Equal(t, 300, *updated.Calories)
	assert.Equal(t, f.owner.ID, updated.UserID, "owner must never change")
	assert.False(t, updated.UpdatedAt.Before(recipe.UpdatedAt))

	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, f.flour.ID, updated.Ingredients[0].IngredientID)
	require.Len(t, updated.Instructions, 1)
	assert.Equal(t, "new", updated.Instructions[0].Description)
}

func TestRecipeUpdate_Forbidden(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	recipe := createTestRecipe(t, f.db, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Mine", CookingTime: 10, Servings: 2},
		Instructions: []model.InstructionLine{{StepNumber: 1, Description: "keep"}},
	})

	_, err := f.db.Recipes().Update(ctx, recipe.ID, f.other.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Stolen", CookingTime: 1, Servings: 1},
	})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := f.db.Recipes().GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.Len(t, got.Instructions, 1)
}

func TestRecipeUpdate_NotFound(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.db.Recipes().Update(context.Background(), 404, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "x", CookingTime: 1, Servings: 1},
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecipeUpdate_MissingIngredientKeepsOldState(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	recipe := createTestRecipe(t, f.db, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Stable", CookingTime: 10, Servings: 2},
		Ingredients:  []model.IngredientLine{{IngredientID: f.salt.ID, Quantity: 1}},
		Instructions: []model.InstructionLine{{StepNumber: 1, Description: "one"}},
	})

	_, err := f.db.Recipes().Update(ctx, recipe.ID, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Broken", CookingTime: 10, Servings: 2},
		Ingredients:  []model.IngredientLine{{IngredientID: 31337, Quantity: 1}},
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := f.db.Recipes().GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", got.Title)
	assert.Len(t, got.Ingredients, 1)
	assert.Len(t, got.Instructions, 1)
}

func TestRecipeDelete(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	recipe := createTestRecipe(t, f.db, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Doomed", CookingTime: 10, Servings: 2},
		Ingredients:  []model.IngredientLine{{IngredientID: f.salt.ID, Quantity: 1}},
		Instructions: []model.InstructionLine{{StepNumber: 1, Description: "one"}},
	})
	_, err := f.db.Favorites().Add(ctx, f.other.ID, recipe.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.db.Recipes().Delete(ctx, recipe.ID, f.other.ID), apperror.ErrForbidden)
	require.NoError(t, f.db.Recipes().Delete(ctx, recipe.ID, f.owner.ID))

	_, err = f.db.Recipes().GetByID(ctx, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	for _, table := range []string{"recipe_ingredients", "instructions", "favorites"} {
		var n int
		require.NoError(t, f.db.conn.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, "rows left in %s", table)
	}

	assert.ErrorIs(t, f.db.Recipes().Delete(ctx, recipe.ID, f.owner.ID), apperror.ErrNotFound)
}

func TestRecipeListAndListByOwner(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	draft := func(title string) *model.RecipeDraft {
		return &model.RecipeDraft{RecipeFields: model.RecipeFields{Title: title, CookingTime: 1, Servings: 1}}
	}
	createTestRecipe(t, f.db, f.owner.ID, draft("a1"))
	createTestRecipe(t, f.db, f.other.ID, draft("b1"))
	createTestRecipe(t, f.db, f.owner.ID, draft("a2"))

	page, err := f.db.Recipes().List(ctx, repository.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a1", page[0].Title)
	assert.Equal(t, "b1", page[1].Title)
	assert.NotNil(t, page[0].Ingredients)
	assert.NotNil(t, page[0].Instructions)

	mine, err := f.db.Recipes().ListByOwner(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a1", mine[0].Title)
	assert.Equal(t, "a2", mine[1].Title)
}

func TestRecipeAddImage(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	recipe := createTestRecipe(t, f.db, f.owner.ID, &model.RecipeDraft{
		RecipeFields: model.RecipeFields{Title: "Pretty", CookingTime: 1, Servings: 1},
	})

	_, err := f.db.Recipes().AddImage(ctx, recipe.ID, f.owner.ID, "recipes/one.jpg")
	require.NoError(t, err)
	updated, err := f.db.Recipes().AddImage(ctx, recipe.ID, f.owner.ID, "recipes/two.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"recipes/one.jpg", "recipes/two.jpg"}, updated.Images)

	_, err = f.db.Recipes().AddImage(ctx, recipe.ID, f.other.ID, "recipes/evil.jpg")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
