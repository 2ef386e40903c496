package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

var _ repository.FavoriteRepository = (*FavoriteDB)(nil)

// FavoriteDB is the Favorites Ledger: the many-to-many link between users and
// the recipes they bookmarked. "Who favorited this recipe" is never stored on the
// recipe; it is always a query over this table.
type FavoriteDB struct {
	db *DB
}

// Add records that userID favorited recipeID.
// ErrNotFound if the recipe is missing, ErrConflict if the pair already exists.
func (f *FavoriteDB) Add(ctx context.Context, userID, recipeID int64) (*model.Favorite, error) {
	fav := &model.Favorite{
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now().UTC(),
	}

	err := f.db.withTx(ctx, func(tx dbtx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM recipes WHERE id = ?`, recipeID, "recipe"); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (user_id, recipe_id, created_at) VALUES (?, ?, ?)`,
			userID, recipeID, fav.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("favorite", fmt.Sprintf("recipe %d", recipeID))
			}
			if isForeignKeyViolation(err) {
				return apperror.NotFound("user", userID)
			}
			return fmt.Errorf("sqlite: inserting favorite: %w", err)
		}

		fav.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading favorite id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fav, nil
}

// ListRecipes returns the recipes userID favorited, oldest favorite first.
func (f *FavoriteDB) ListRecipes(ctx context.Context, userID int64) ([]model.Recipe, error) {
	return listRecipes(ctx, f.db.conn,
		`SELECT `+recipeColumns+`
		 FROM recipes r
		 JOIN favorites fav ON fav.recipe_id = r.id
		 WHERE fav.user_id = ?
		 ORDER BY fav.id`,
		userID,
	)
}

// Remove deletes the (userID, recipeID) favorite. ErrNotFound if there is none.
func (f *FavoriteDB) Remove(ctx context.Context, userID, recipeID int64) error {
	return f.db.withTx(ctx, func(tx dbtx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?`,
			userID, recipeID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: deleting favorite: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("recipe %d not found in favorites", recipeID),
			}
		}
		return nil
	})
}

func (f *FavoriteDB) Exists(ctx context.Context, userID, recipeID int64) (bool, error) {
	var n int
	err := f.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking favorite: %w", err)
	}
	return n > 0, nil
}

// CountForRecipe returns how many users favorited recipeID.
func (f *FavoriteDB) CountForRecipe(ctx context.Context, recipeID int64) (int, error) {
	var n int
	err := f.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE recipe_id = ?`,
		recipeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting favorites of recipe %d: %w", recipeID, err)
	}
	return n, nil
}
