package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/auth"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

// In-memory fakes of the repository interfaces. Each returns copies so a test
// cannot mutate stored state through a returned pointer.

var errDBDown = errors.New("database is down")

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceWithCost(bcrypt.MinCost)
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("service-test-secret-0123456789", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

// --- users ---

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	err    error // returned by every call when set
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

// --- ingredients ---

type fakeIngredientRepo struct {
	items    []model.Ingredient
	lastOpts repository.ListOptions
}

var _ repository.IngredientRepository = (*fakeIngredientRepo)(nil)

func (f *fakeIngredientRepo) Create(_ context.Context, ing *model.Ingredient) error {
	for _, it := range f.items {
		if it.Name == ing.Name {
			return apperror.Conflict("ingredient", ing.Name)
		}
	}
	ing.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *ing)
	return nil
}

func (f *fakeIngredientRepo) GetByID(_ context.Context, id int64) (*model.Ingredient, error) {
	for _, it := range f.items {
		if it.ID == id {
			out := it
			return &out, nil
		}
	}
	return nil, apperror.NotFound("ingredient", id)
}

func (f *fakeIngredientRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Ingredient, error) {
	f.lastOpts = opts
	out := []model.Ingredient{}
	for i := opts.Offset; i < len(f.items) && len(out) < opts.Limit; i++ {
		out = append(out, f.items[i])
	}
	return out, nil
}

// --- recipes ---

// fakeRecipeRepo keeps only what the service tests observe: owner checks,
// the drafts handed to the store and appended images.
type fakeRecipeRepo struct {
	recipes  map[int64]*model.Recipe
	nextID   int64
	calls    int // mutating calls that reached the store
	lastOpts repository.ListOptions
	err      error
}

var _ repository.RecipeRepository = (*fakeRecipeRepo)(nil)

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: make(map[int64]*model.Recipe)}
}

func (f *fakeRecipeRepo) materialize(id, ownerID int64, draft *model.RecipeDraft) *model.Recipe {
	r := &model.Recipe{ID: id, RecipeFields: draft.RecipeFields, UserID: ownerID, Images: []string{}}
	for _, l := range draft.Ingredients {
		r.Ingredients = append(r.Ingredients, model.RecipeIngredient{RecipeID: id, IngredientID: l.IngredientID, Quantity: l.Quantity, Notes: l.Notes})
	}
	for i, st := range draft.Instructions {
		r.Instructions = append(r.Instructions, model.Instruction{ID: int64(i + 1), RecipeID: id, StepNumber: st.StepNumber, Description: st.Description})
	}
	return r
}

func (f *fakeRecipeRepo) owned(id, requesterID int64) (*model.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, apperror.NotFound("recipe", id)
	}
	if r.UserID != requesterID {
		return nil, apperror.Forbidden("not the owner")
	}
	return r, nil
}

func (f *fakeRecipeRepo) Create(_ context.Context, ownerID int64, draft *model.RecipeDraft) (*model.Recipe, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	r := f.materialize(f.nextID, ownerID, draft)
	f.recipes[r.ID] = r
	out := *r
	return &out, nil
}

func (f *fakeRecipeRepo) GetByID(_ context.Context, id int64) (*model.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, apperror.NotFound("recipe", id)
	}
	out := *r
	return &out, nil
}

func (f *fakeRecipeRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Recipe, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return []model.Recipe{}, nil
}

func (f *fakeRecipeRepo) ListByOwner(_ context.Context, ownerID int64) ([]model.Recipe, error) {
	out := []model.Recipe{}
	for id := int64(1); id <= f.nextID; id++ {
		if r, ok := f.recipes[id]; ok && r.UserID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) Update(_ context.Context, id, requesterID int64, draft *model.RecipeDraft) (*model.Recipe, error) {
	f.calls++
	old, err := f.owned(id, requesterID)
	if err != nil {
		return nil, err
	}
	r := f.materialize(id, old.UserID, draft)
	r.Images = old.Images
	f.recipes[id] = r
	out := *r
	return &out, nil
}

func (f *fakeRecipeRepo) Delete(_ context.Context, id, requesterID int64) error {
	f.calls++
	if _, err := f.owned(id, requesterID); err != nil {
		return err
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepo) AddImage(_ context.Context, id, requesterID int64, ref string) (*model.Recipe, error) {
	f.calls++
	r, err := f.owned(id, requesterID)
	if err != nil {
		return nil, err
	}
	r.Images = append(r.Images, ref)
	out := *r
	return &out, nil
}

// --- favorites ---

type favKey struct{ user, recipe int64 }

type fakeFavoriteRepo struct {
	recipes *fakeRecipeRepo
	favs    map[favKey]bool
	order   []favKey
	err     error
}

var _ repository.FavoriteRepository = (*fakeFavoriteRepo)(nil)

func newFakeFavoriteRepo(recipes *fakeRecipeRepo) *fakeFavoriteRepo {
	return &fakeFavoriteRepo{recipes: recipes, favs: make(map[favKey]bool)}
}

func (f *fakeFavoriteRepo) Add(_ context.Context, userID, recipeID int64) (*model.Favorite, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.recipes.recipes[recipeID]; !ok {
		return nil, apperror.NotFound("recipe", recipeID)
	}
	k := favKey{userID, recipeID}
	if f.favs[k] {
		return nil, apperror.Conflict("favorite", "recipe")
	}
	f.favs[k] = true
	f.order = append(f.order, k)
	return &model.Favorite{ID: int64(len(f.order)), UserID: userID, RecipeID: recipeID}, nil
}

func (f *fakeFavoriteRepo) ListRecipes(_ context.Context, userID int64) ([]model.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Recipe{}
	for _, k := range f.order {
		if k.user == userID && f.favs[k] {
			out = append(out, *f.recipes.recipes[k.recipe])
		}
	}
	return out, nil
}

func (f *fakeFavoriteRepo) Remove(_ context.Context, userID, recipeID int64) error {
	k := favKey{userID, recipeID}
	if !f.favs[k] {
		return apperror.NotFound("favorite", recipeID)
	}
	delete(f.favs, k)
	return nil
}

func (f *fakeFavoriteRepo) Exists(_ context.Context, userID, recipeID int64) (bool, error) {
	return f.favs[favKey{userID, recipeID}], nil
}

func (f *fakeFavoriteRepo) CountForRecipe(_ context.Context, recipeID int64) (int, error) {
	n := 0
	for k, ok := range f.favs {
		if ok && k.recipe == recipeID {
			n++
		}
	}
	return n, nil
}

// --- images ---

type fakeImageStore struct {
	keys         []string
	contentTypes []string
	err          error
}

func (f *fakeImageStore) Put(_ context.Context, key, contentType string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.contentTypes = append(f.contentTypes, contentType)
	return "/uploads/" + key, nil
}
