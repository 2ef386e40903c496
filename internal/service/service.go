// Package service contains the business rules of the recipe backend.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services accept plain Go values, never *http.Request, and return apperror
// values the handler maps to status codes. They depend on the repository
// interfaces, not on the sqlite package, so tests inject in-memory fakes.
//
// Validation happens here so malformed input is rejected before it reaches
// a store.
package service

import "github.com/sakif/recipe-share/internal/repository"

// Pagination limits. Recipes use a smaller default page than the catalog.
const (
	DefaultRecipeLimit     = 10
	DefaultIngredientLimit = 100
	MaxRecipeLimit         = 100
	MaxIngredientLimit     = 500
)

// page clamps caller-supplied pagination into the allowed range.
func page(offset, limit, def, maxLimit int) repository.ListOptions {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
