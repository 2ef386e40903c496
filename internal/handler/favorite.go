package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-share/internal/service"
)

// FavoriteHandler serves the caller's favorites and per-recipe counts.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

func NewFavoriteHandler(favorites *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

type favoriteStatus struct {
	RecipeID   int64 `json:"recipe_id"`
	IsFavorite bool  `json:"is_favorite"`
}

type favoriteCount struct {
	RecipeID int64 `json:"recipe_id"`
	Count    int   `json:"count"`
}

// HandleAdd: POST /favorites/{recipe_id}
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recipeID, err := pathID(r, "recipe_id")
	if err != nil {
		writeError(w, err)
		return
	}

	fav, err := h.favorites.Add(r.Context(), me.ID, recipeID)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// HandleList: GET /favorites returns the favorited recipes themselves.
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recipes, err := h.favorites.ListForUser(r.Context(), me.ID)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// HandleRemove: DELETE /favorites/{recipe_id}
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recipeID, err := pathID(r, "recipe_id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.favorites.Remove(r.Context(), me.ID, recipeID); err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus: GET /favorites/{recipe_id}
func (h *FavoriteHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recipeID, err := pathID(r, "recipe_id")
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.favorites.IsFavorite(r.Context(), me.ID, recipeID)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteStatus{RecipeID: recipeID, IsFavorite: ok})
}

// HandleCount: GET /recipes/{id}/favorites/count
func (h *FavoriteHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	n, err := h.favorites.Count(r.Context(), recipeID)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteCount{RecipeID: recipeID, Count: n})
}
