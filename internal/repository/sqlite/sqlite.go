// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// The driver is modernc.org/sqlite, a CGo-free build of SQLite registered with
// database/sql as "sqlite".
//
// LAYOUT:
// One *DB owns the connection pool. Each aggregate gets a thin view over it:
//
//	db.Users()        → *UserDB        (User Directory)
//	db.Ingredients()  → *IngredientDB  (Ingredient Catalog)
//	db.Recipes()      → *RecipeDB      (Recipe Store)
//	db.Favorites()    → *FavoriteDB    (Favorites Ledger)
//
// Multi-statement writes go through withTx (tx.go) so a failure anywhere rolls the
// whole operation back and readers never observe half a recipe.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps a sql.DB connection pool and hands out per-aggregate repositories.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies migrations.
//
// dbPath examples:
//   - "data/recipes.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// Connection parameters are passed through the DSN so that EVERY pooled connection
// gets them, not just the first one:
//   - foreign_keys(1): SQLite ships with FK enforcement off; cascades depend on it.
//   - busy_timeout:    wait for a competing writer instead of failing with SQLITE_BUSY.
//   - _txlock=immediate: transactions take the write lock at BEGIN, so two concurrent
//     updates of the same recipe are serialized rather than deadlocking on upgrade.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database lives inside a single connection. A second pooled
	// connection would see a different, empty database.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a writer holds the lock.
	// For in-memory databases SQLite silently keeps journal_mode=memory.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + params
	}
	return dbPath + "?" + params
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate applies the embedded goose migrations.
//
// Migrations are plain SQL files under migrations/, versioned by filename prefix.
// goose records applied versions in goose_db_version, so re-running is a no-op.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}

func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

func (db *DB) Ingredients() *IngredientDB {
	return &IngredientDB{db: db}
}

func (db *DB) Recipes() *RecipeDB {
	return &RecipeDB{db: db}
}

func (db *DB) Favorites() *FavoriteDB {
	return &FavoriteDB{db: db}
}
