package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-share/internal/service"
)

// IngredientHandler serves the shared ingredient catalog.
type IngredientHandler struct {
	ingredients *service.IngredientService
	logger      *slog.Logger
}

func NewIngredientHandler(ingredients *service.IngredientService, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients, logger: logger}
}

type createIngredientRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// HandleCreate: POST /ingredients (authenticated)
func (h *IngredientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createIngredientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	ingredient, err := h.ingredients.Create(r.Context(), req.Name, req.Unit)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingredient)
}

// HandleList: GET /ingredients?skip=0&limit=100
func (h *IngredientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := paging(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ingredients, err := h.ingredients.List(r.Context(), offset, limit)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func (h *IngredientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ingredient, err := h.ingredients.Get(r.Context(), id)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}
