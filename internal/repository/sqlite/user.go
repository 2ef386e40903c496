package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/model"
	"github.com/sakif/recipe-share/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the User Directory backed by the users table.
type UserDB struct {
	db *DB
}

const userColumns = `id, email, password, name, created_at`

// Create inserts a new user and fills in ID and CreatedAt.
// A duplicate email is reported as apperror.ErrConflict, never as a silent overwrite.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	result, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (email, password, name, created_at) VALUES (?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return getUser(ctx, u.db.conn, "id", id)
}

// GetByEmail retrieves a user by email. Login and token resolution go through here.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUser(ctx, u.db.conn, "email", email)
}

// getUser looks a user up by a unique column ("id" or "email").
func getUser(ctx context.Context, q dbtx, column string, value any) (*model.User, error) {
	var user model.User
	err := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`,
		value,
	).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s %v: %w", column, value, err)
	}
	return &user, nil
}

// List returns every user ordered by ID.
func (u *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := u.db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update applies the non-nil fields of patch. patch.Password is ignored: callers must
// hash it first and pass PasswordHash.
func (u *UserDB) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	var updated *model.User

	err := u.db.withTx(ctx, func(tx dbtx) error {
		user, err := getUser(ctx, tx, "id", id)
		if err != nil {
			return err
		}

		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if patch.PasswordHash != nil {
			user.PasswordHash = *patch.PasswordHash
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET email = ?, password = ?, name = ? WHERE id = ?`,
			user.Email, user.PasswordHash, user.Name, id,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Email)
			}
			return fmt.Errorf("sqlite: updating user %d: %w", id, err)
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a user. The ON DELETE CASCADE foreign keys take the user's recipes
// with it, and those recipes take their ingredient lines, instructions and favorites.
func (u *UserDB) Delete(ctx context.Context, id int64) error {
	return u.db.withTx(ctx, func(tx dbtx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("user", id)
		}
		return nil
	})
}
