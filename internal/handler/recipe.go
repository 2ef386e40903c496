package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/service"
)

// imageField is the multipart form field carrying an uploaded image.
const imageField = "image"

// RecipeHandler serves recipes and their images.
//
//	POST   /recipes               → create (authenticated)
//	GET    /recipes               → list (?skip=&limit=)
//	GET    /recipes/mine          → the caller's own recipes
//	GET    /recipes/{id}          → get
//	PUT    /recipes/{id}          → replace (owner only)
//	DELETE /recipes/{id}          → delete (owner only)
//	POST   /recipes/{id}/images   → upload an image (owner only)
type RecipeHandler struct {
	recipes        *service.RecipeService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, maxUploadBytes int64, logger *slog.Logger) *RecipeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = service.DefaultMaxImageBytes
	}
	return &RecipeHandler{recipes: recipes, maxUploadBytes: maxUploadBytes, logger: logger}
}

// HandleCreate expects a recipe draft:
//
//	{
//	  "title": "T", "cooking_time": 10, "servings": 2,
//	  "ingredients":  [{"ingredient_id": 1, "quantity": 5}],
//	  "instructions": [{"step_number": 1, "description": "Mix"}]
//	}
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var draft model.RecipeDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), me.ID, &draft)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := paging(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recipes, err := h.recipes.List(r.Context(), offset, limit)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recipes, err := h.recipes.ListByOwner(r.Context(), me.ID)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// HandleUpdate replaces the whole recipe, ingredient lines and steps included.
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var draft model.RecipeDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), id, me.ID, &draft)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), id, me.ID); err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadImage accepts multipart/form-data with the file in field "image".
func (h *RecipeHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+64<<10)
	file, _, err := r.FormFile(imageField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, apperror.ValidationFailed(imageField, "image is too large"))
			return
		}
		writeError(w, apperror.ValidationFailed(imageField, "multipart field \"image\" is required"))
		return
	}
	defer file.Close()

	recipe, err := h.recipes.AttachImage(r.Context(), id, me.ID, file)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}
