package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetflow/internal/log"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// timestampLayout is how created_at values are written (always UTC).
const timestampLayout = "2006-01-02 15:04:05"

// dateLayout is used for deadlines and date-range bounds.
const dateLayout = "2006-01-02"

// DB holds the two SQLite stores: users, and the budget store with
// transactions, savings goals and categories. Both may be the same file.
type DB struct {
	users  *sql.DB
	budget *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Options configures Open.
type Options struct {
	UsersPath  string
	BudgetPath string
	Logger     *log.Logger
	// Now overrides the clock used for created_at; defaults to time.Now.
	Now func() time.Time
}

// NewDB opens a single database file holding both stores.
func NewDB(path string) (*DB, error) {
	return Open(context.Background(), Options{UsersPath: path, BudgetPath: path})
}

// Open opens both stores, applies migrations and seeds the default
// categories when the catalog is empty.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.UsersPath == "" || opts.BudgetPath == "" {
		return nil, errors.New("database paths are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	db := &DB{logger: logger.WithComponent(log.ComponentStorage), now: now}

	if filepath.Clean(opts.UsersPath) == filepath.Clean(opts.BudgetPath) {
		conn, err := db.openStore(ctx, opts.UsersPath, usersMigrations, budgetMigrations)
		if err != nil {
			return nil, err
		}
		db.users, db.budget = conn, conn
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			db.users, err = db.openStore(gctx, opts.UsersPath, usersMigrations)
			return err
		})
		g.Go(func() (err error) {
			db.budget, err = db.openStore(gctx, opts.BudgetPath, budgetMigrations)
			return err
		})
		if err := g.Wait(); err != nil {
			db.Close()
			return nil, err
		}
	}

	n, err := db.SeedDefaultCategories(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if n > 0 {
		db.logger.InfoContext(ctx, "Seeded default categories", log.FieldOperation, log.OpSeed, log.FieldCount, n)
	}

	return db, nil
}

func (db *DB) openStore(ctx context.Context, path string, sets ...migrationSet) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	// One connection: calls are synchronous and SQLite has a single writer.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	for _, set := range sets {
		if err := runMigrations(ctx, path, set, db.logger); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate %s: %w", path, err)
		}
	}

	return conn, nil
}

// Close closes the database connections.
func (db *DB) Close() error {
	var errs []error
	if db.users != nil {
		errs = append(errs, db.users.Close())
	}
	if db.budget != nil && db.budget != db.users {
		errs = append(errs, db.budget.Close())
	}
	return errors.Join(errs...)
}

func (db *DB) timestamp() string {
	return db.now().UTC().Format(timestampLayout)
}

// fail logs err at the repository boundary and returns it wrapped with msg.
func (db *DB) fail(ctx context.Context, op, msg string, err error, fields log.Fields) error {
	if fields == nil {
		fields = log.NewFields()
	}
	db.logger.LogError(ctx, "Storage operation failed", op, err, fields.With("query", msg))
	return fmt.Errorf("%s: %w", msg, err)
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func withTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
