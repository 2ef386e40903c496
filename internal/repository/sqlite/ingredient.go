package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

var _ repository.IngredientRepository = (*IngredientDB)(nil)

// IngredientDB is the Ingredient Catalog.
type IngredientDB struct {
	db *DB
}

// Create inserts a catalog entry. Names are unique; a duplicate is ErrConflict.
func (i *IngredientDB) Create(ctx context.Context, ingredient *model.Ingredient) error {
	result, err := i.db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (name, unit) VALUES (?, ?)`,
		ingredient.Name,
		ingredient.Unit,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("ingredient", ingredient.Name)
		}
		return fmt.Errorf("sqlite: inserting ingredient: %w", err)
	}

	ingredient.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading ingredient id: %w", err)
	}
	return nil
}

func (i *IngredientDB) GetByID(ctx context.Context, id int64) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := i.db.conn.QueryRowContext(ctx,
		`SELECT id, name, unit FROM ingredients WHERE id = ?`,
		id,
	).Scan(&ing.ID, &ing.Name, &ing.Unit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %d: %w", id, err)
	}
	return &ing, nil
}

// List pages through the catalog in ID order. The service layer applies defaults;
// a non-positive limit here yields no rows (SQLite would read a negative LIMIT as "all").
func (i *IngredientDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Ingredient, error) {
	limit := max(opts.Limit, 0)
	rows, err := i.db.conn.QueryContext(ctx,
		`SELECT id, name, unit FROM ingredients ORDER BY id LIMIT ? OFFSET ?`,
		limit,
		max(opts.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := make([]model.Ingredient, 0, limit)
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}

	return ingredients, nil
}
