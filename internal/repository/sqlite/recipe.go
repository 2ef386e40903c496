package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

var _ repository.RecipeRepository = (*RecipeDB)(nil)

// RecipeDB is the Recipe Store: recipes plus their ingredient lines and instructions.
//
// A recipe and its children are always written in one transaction. Updates replace
// the child sets wholesale (delete, then insert) so the stored state is exactly what
// the caller submitted, never a merge of old and new.
type RecipeDB struct {
	db *DB
}

const recipeColumns = `r.id, r.title, r.description, r.cooking_time, r.prep_time, r.total_time,
	r.servings, r.difficulty, r.category, r.cuisine, r.calories, r.dietary_info, r.notes,
	r.source, r.images, r.user_id, r.created_at, r.updated_at`

// Create stores a new recipe owned by ownerID.
//
// Fails with ErrNotFound if the owner or any referenced ingredient is missing;
// the message names the missing ingredient id. Nothing is written in that case.
func (r *RecipeDB) Create(ctx context.Context, ownerID int64, draft *model.RecipeDraft) (*model.Recipe, error) {
	var created *model.Recipe

	err := r.db.withTx(ctx, func(tx dbtx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, ownerID, "user"); err != nil {
			return err
		}
		if err := checkIngredientsExist(ctx, tx, draft.Ingredients); err != nil {
			return err
		}

		now := time.Now().UTC()
		f := draft.RecipeFields
		result, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (title, description, cooking_time, prep_time, total_time,
				servings, difficulty, category, cuisine, calories, dietary_info, notes, source,
				images, user_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', ?, ?, ?)`,
			f.Title, f.Description, f.CookingTime, nullInt(f.PrepTime), nullInt(f.TotalTime),
			f.Servings, f.Difficulty, string(f.Category), f.Cuisine, nullInt(f.Calories),
			f.DietaryInfo, f.Notes, f.Source,
			ownerID, now, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting recipe: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading recipe id: %w", err)
		}

		if err := insertChildren(ctx, tx, id, draft); err != nil {
			return err
		}

		created, err = getRecipe(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID returns the recipe with its ingredient lines (in submitted order, resolved
// against the catalog) and instructions ordered by step number.
func (r *RecipeDB) GetByID(ctx context.Context, id int64) (*model.Recipe, error) {
	return getRecipe(ctx, r.db.conn, id)
}

// List returns a page of recipes in ID order.
func (r *RecipeDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Recipe, error) {
	return listRecipes(ctx, r.db.conn,
		`SELECT `+recipeColumns+` FROM recipes r ORDER BY r.id LIMIT ? OFFSET ?`,
		max(opts.Limit, 0), max(opts.Offset, 0),
	)
}

// ListByOwner returns every recipe owned by ownerID.
func (r *RecipeDB) ListByOwner(ctx context.Context, ownerID int64) ([]model.Recipe, error) {
	return listRecipes(ctx, r.db.conn,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.user_id = ? ORDER BY r.id`,
		ownerID,
	)
}

// Update replaces the recipe's fields, ingredient lines and instructions.
// Only the owner may update: another requester gets ErrForbidden.
func (r *RecipeDB) Update(ctx context.Context, id, requesterID int64, draft *model.RecipeDraft) (*model.Recipe, error) {
	var updated *model.Recipe

	err := r.db.withTx(ctx, func(tx dbtx) error {
		if err := checkOwner(ctx, tx, id, requesterID, "update"); err != nil {
			return err
		}
		if err := checkIngredientsExist(ctx, tx, draft.Ingredients); err != nil {
			return err
		}

		f := draft.RecipeFields
		_, err := tx.ExecContext(ctx,
			`UPDATE recipes
			 SET title = ?, description = ?, cooking_time = ?, prep_time = ?, total_time = ?,
			     servings = ?, difficulty = ?, category = ?, cuisine = ?, calories = ?,
			     dietary_info = ?, notes = ?, source = ?, updated_at = ?
			 WHERE id = ?`,
			f.Title, f.Description, f.CookingTime, nullInt(f.PrepTime), nullInt(f.TotalTime),
			f.Servings, f.Difficulty, string(f.Category), f.Cuisine, nullInt(f.Calories),
			f.DietaryInfo, f.Notes, f.Source, time.Now().UTC(),
			id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating recipe %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: clearing ingredients of recipe %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM instructions WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: clearing instructions of recipe %d: %w", id, err)
		}

		if err := insertChildren(ctx, tx, id, draft); err != nil {
			return err
		}

		updated, err = getRecipe(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the recipe; ingredient lines, instructions and favorites go with it
// through ON DELETE CASCADE.
func (r *RecipeDB) Delete(ctx context.Context, id, requesterID int64) error {
	return r.db.withTx(ctx, func(tx dbtx) error {
		if err := checkOwner(ctx, tx, id, requesterID, "delete"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting recipe %d: %w", id, err)
		}
		return nil
	})
}

// AddImage appends an image reference to the recipe. Owner only.
func (r *RecipeDB) AddImage(ctx context.Context, id, requesterID int64, ref string) (*model.Recipe, error) {
	var updated *model.Recipe

	err := r.db.withTx(ctx, func(tx dbtx) error {
		if err := checkOwner(ctx, tx, id, requesterID, "modify"); err != nil {
			return err
		}

		var raw string
		if err := tx.QueryRowContext(ctx, `SELECT images FROM recipes WHERE id = ?`, id).Scan(&raw); err != nil {
			return fmt.Errorf("sqlite: reading images of recipe %d: %w", id, err)
		}
		images, err := decodeImages(raw)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(append(images, ref))
		if err != nil {
			return fmt.Errorf("sqlite: encoding images: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes SET images = ?, updated_at = ? WHERE id = ?`,
			string(encoded), time.Now().UTC(), id,
		); err != nil {
			return fmt.Errorf("sqlite: saving images of recipe %d: %w", id, err)
		}

		updated, err = getRecipe(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// checkOwner loads the recipe's owner and compares it with the requester.
// There is no role-based override: strict equality or ErrForbidden.
func checkOwner(ctx context.Context, q dbtx, id, requesterID int64, action string) error {
	var ownerID int64
	err := q.QueryRowContext(ctx, `SELECT user_id FROM recipes WHERE id = ?`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("recipe", id)
		}
		return fmt.Errorf("sqlite: loading owner of recipe %d: %w", id, err)
	}
	if ownerID != requesterID {
		return apperror.Forbidden(fmt.Sprintf("not authorized to %s recipe %d", action, id))
	}
	return nil
}

func checkIngredientsExist(ctx context.Context, q dbtx, lines []model.IngredientLine) error {
	for _, line := range lines {
		err := requireRow(ctx, q, `SELECT 1 FROM ingredients WHERE id = ?`, line.IngredientID, "ingredient")
		if err != nil {
			return err
		}
	}
	return nil
}

// requireRow runs an existence query and maps "no rows" to NotFound(resource, id).
func requireRow(ctx context.Context, q dbtx, query string, id int64, resource string) error {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound(resource, id)
		}
		return fmt.Errorf("sqlite: checking %s %d: %w", resource, id, err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx dbtx, recipeID int64, draft *model.RecipeDraft) error {
	for pos, line := range draft.Ingredients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, position, quantity, notes)
			 VALUES (?, ?, ?, ?, ?)`,
			recipeID, line.IngredientID, pos, line.Quantity, line.Notes,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("recipe ingredient", fmt.Sprintf("ingredient %d listed twice", line.IngredientID))
			}
			if isForeignKeyViolation(err) {
				return apperror.NotFound("ingredient", line.IngredientID)
			}
			return fmt.Errorf("sqlite: inserting ingredient %d of recipe %d: %w", line.IngredientID, recipeID, err)
		}
	}

	for _, step := range draft.Instructions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO instructions (recipe_id, step_number, description) VALUES (?, ?, ?)`,
			recipeID, step.StepNumber, step.Description,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting step %d of recipe %d: %w", step.StepNumber, recipeID, err)
		}
	}

	return nil
}

func getRecipe(ctx context.Context, q dbtx, id int64) (*model.Recipe, error) {
	recipe, err := scanRecipe(q.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}

	if err := loadChildren(ctx, q, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// listRecipes runs a multi-row recipe query and then loads each recipe's children.
// The rows are fully drained and closed before the child queries run: an in-memory
// database has one connection and cannot serve both at once.
func listRecipes(ctx context.Context, q dbtx, query string, args ...any) ([]model.Recipe, error) {
	recipes, err := scanRecipes(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		if err := loadChildren(ctx, q, &recipes[i]); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

func scanRecipes(ctx context.Context, q dbtx, query string, args ...any) ([]model.Recipe, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	return recipes, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*model.Recipe, error) {
	var (
		rec                           model.Recipe
		prepTime, totalTime, calories sql.NullInt64
		category, images              string
	)

	err := row.Scan(
		&rec.ID, &rec.Title, &rec.Description, &rec.CookingTime, &prepTime, &totalTime,
		&rec.Servings, &rec.Difficulty, &category, &rec.Cuisine, &calories, &rec.DietaryInfo,
		&rec.Notes, &rec.Source, &images, &rec.UserID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.PrepTime = intPtr(prepTime)
	rec.TotalTime = intPtr(totalTime)
	rec.Calories = intPtr(calories)
	rec.Category = model.Category(category)

	rec.Images, err = decodeImages(images)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func loadChildren(ctx context.Context, q dbtx, recipe *model.Recipe) error {
	ingredients, err := loadIngredientLines(ctx, q, recipe.ID)
	if err != nil {
		return err
	}
	instructions, err := loadInstructions(ctx, q, recipe.ID)
	if err != nil {
		return err
	}
	recipe.Ingredients = ingredients
	recipe.Instructions = instructions
	return nil
}

func loadIngredientLines(ctx context.Context, q dbtx, recipeID int64) ([]model.RecipeIngredient, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ri.ingredient_id, i.name, i.unit, ri.quantity, ri.notes
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY ri.position`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading ingredients of recipe %d: %w", recipeID, err)
	}
	defer rows.Close()

	lines := []model.RecipeIngredient{}
	for rows.Next() {
		line := model.RecipeIngredient{RecipeID: recipeID}
		if err := rows.Scan(&line.IngredientID, &line.Name, &line.Unit, &line.Quantity, &line.Notes); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredient lines: %w", err)
	}
	return lines, nil
}

func loadInstructions(ctx context.Context, q dbtx, recipeID int64) ([]model.Instruction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, step_number, description
		 FROM instructions
		 WHERE recipe_id = ?
		 ORDER BY step_number, id`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading instructions of recipe %d: %w", recipeID, err)
	}
	defer rows.Close()

	steps := []model.Instruction{}
	for rows.Next() {
		step := model.Instruction{RecipeID: recipeID}
		if err := rows.Scan(&step.ID, &step.StepNumber, &step.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning instruction: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating instructions: %w", err)
	}
	return steps, nil
}

func decodeImages(raw string) ([]string, error) {
	images := []string{}
	if raw == "" {
		return images, nil
	}
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("sqlite: decoding images: %w", err)
	}
	return images, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
