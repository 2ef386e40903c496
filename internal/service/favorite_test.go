package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-share/internal/apperror"
)

func TestFavorites(t *testing.T) {
	recipes, _, _ := newTestRecipeService()
	recipeRepo := recipes.recipes.(*fakeRecipeRepo)
	favRepo := newFakeFavoriteRepo(recipeRepo)
	svc := NewFavoriteService(favRepo, newTestLogger())
	ctx := context.Background()

	first, err := recipes.Create(ctx, 1, validDraft())
	require.NoError(t, err)
	second, err := recipes.Create(ctx, 1, validDraft())
	require.NoError(t, err)

	_, err = svc.Add(ctx, 2, second.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 2, first.ID)
	require.NoError(t, err)

	_, err = svc.Add(ctx, 2, first.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = svc.Add(ctx, 2, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	list, err := svc.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	ok, err := svc.IsFavorite(ctx, 2, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := svc.Count(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.Remove(ctx, 2, first.ID))
	assert.ErrorIs(t, svc.Remove(ctx, 2, first.ID), apperror.ErrNotFound)

	_, err = svc.Add(ctx, 2, first.ID)
	assert.NoError(t, err, "re-adding after remove must succeed")
}

func TestFavoritesListForUser_StoreFailure(t *testing.T) {
	favRepo := newFakeFavoriteRepo(newFakeRecipeRepo())
	favRepo.err = errDBDown
	svc := NewFavoriteService(favRepo, newTestLogger())

	_, err := svc.ListForUser(context.Background(), 1)
	assert.ErrorIs(t, err, errDBDown)

	_, err = svc.Add(context.Background(), 1, 1)
	assert.ErrorIs(t, err, errDBDown)
}
