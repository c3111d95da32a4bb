package storage

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"budgetflow/internal/log"
)

// testClock is a settable clock for created_at values.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Set(t time.Time) { c.now = t }

// newTestDB opens a fresh single-file database under t's temp dir.
func newTestDB(t *testing.T, clock *testClock) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budget.db")
	opts := Options{UsersPath: path, BudgetPath: path}
	if clock != nil {
		opts.Now = clock.Now
	}
	db, err := Open(context.Background(), opts)
	require.NoError(t, err, "failed to create test database")
	return db
}

// OpenTestSuite covers opening, migrating and seeding the stores.
type OpenTestSuite struct {
	suite.Suite
	dir string
}

// SetupTest runs before each test
func (suite *OpenTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *OpenTestSuite) TestSingleFileHoldsBothStores() {
	db, err := NewDB(filepath.Join(suite.dir, "app.db"))
	require.NoError(suite.T(), err)
	defer db.Close()

	assert.Same(suite.T(), db.users, db.budget, "one path should share one connection")
	assert.True(suite.T(), tableExists(suite.T(), db.users, "users"))
	assert.True(suite.T(), tableExists(suite.T(), db.budget, "transactions"))
	assert.True(suite.T(), tableExists(suite.T(), db.budget, "savings_goals"))
	assert.True(suite.T(), tableExists(suite.T(), db.budget, "budget_categories"))
}

func (suite *OpenTestSuite) TestSeparateFiles() {
	ctx := context.Background()
	db, err := Open(ctx, Options{
		UsersPath:  filepath.Join(suite.dir, "users.db"),
		BudgetPath: filepath.Join(suite.dir, "nested", "budget.db"),
	})
	require.NoError(suite.T(), err)
	defer db.Close()

	assert.NotSame(suite.T(), db.users, db.budget)
	assert.True(suite.T(), tableExists(suite.T(), db.users, "users"))
	assert.False(suite.T(), tableExists(suite.T(), db.users, "transactions"), "users file should not hold budget tables")
	assert.True(suite.T(), tableExists(suite.T(), db.budget, "transactions"))
	assert.False(suite.T(), tableExists(suite.T(), db.budget, "users"), "budget file should not hold the users table")

	assert.FileExists(suite.T(), filepath.Join(suite.dir, "nested", "budget.db"))
}

func (suite *OpenTestSuite) TestReopenKeepsDataAndDoesNotReseed() {
	ctx := context.Background()
	path := filepath.Join(suite.dir, "app.db")

	db, err := NewDB(path)
	require.NoError(suite.T(), err)
	_, err = db.CreateUser(ctx, NewUser{Username: "alice", Email: "a@x.io", FullName: "Alice A", Password: "secret1"})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.Close())

	db, err = NewDB(path)
	require.NoError(suite.T(), err)
	defer db.Close()

	count, err := db.UserCount(ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)

	n, err := db.SeedDefaultCategories(ctx)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n, "catalog should not be seeded twice")

	categories, err := db.ListCategories(ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), categories, len(defaultCategories))
}

func (suite *OpenTestSuite) TestMigrationsAreLogged() {
	ctx := context.Background()
	path := filepath.Join(suite.dir, "app.db")

	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: &buf})

	db, err := Open(ctx, Options{UsersPath: path, BudgetPath: path, Logger: logger})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.Close())

	out := buf.String()
	assert.Contains(suite.T(), out, "Migrations applied")
	assert.Contains(suite.T(), out, "operation=migrate")
	assert.Contains(suite.T(), out, "set=schema_migrations_budget")
	assert.Contains(suite.T(), out, "version=2")

	buf.Reset()
	db, err = Open(ctx, Options{UsersPath: path, BudgetPath: path, Logger: logger})
	require.NoError(suite.T(), err)
	defer db.Close()

	assert.Contains(suite.T(), buf.String(), "Schema up to date")
	assert.NotContains(suite.T(), buf.String(), "Migrations applied")
}

func (suite *OpenTestSuite) TestLegacyRealAmountsMigrated() {
	ctx := context.Background()
	budgetPath := filepath.Join(suite.dir, "legacy.db")

	legacy, err := sql.Open("sqlite", budgetPath)
	require.NoError(suite.T(), err)
	schema, err := migrationsFS.ReadFile("migrations/budget/000001_create_budget.up.sql")
	require.NoError(suite.T(), err)
	_, err = legacy.Exec(string(schema))
	require.NoError(suite.T(), err)
	_, err = legacy.Exec(`CREATE TABLE schema_migrations_budget (version uint64, dirty bool);
		INSERT INTO schema_migrations_budget (version, dirty) VALUES (1, 0);
		INSERT INTO transactions (user_id, category, amount, type, created_at) VALUES (1, 'Food', 0.1, 'Expense', '2024-01-02 10:00:00');
		INSERT INTO transactions (user_id, category, amount, type, created_at) VALUES (1, 'Food', 0.2, 'Expense', '2024-01-02 11:00:00');
		INSERT INTO savings_goals (user_id, name, category, target_amount, created_at) VALUES (1, 'Trip', 'Vacation', 250.5, '2024-01-02 10:00:00');`)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), legacy.Close())

	db, err := Open(ctx, Options{UsersPath: filepath.Join(suite.dir, "users.db"), BudgetPath: budgetPath})
	require.NoError(suite.T(), err)
	defer db.Close()

	spending, err := db.SpendingSummary(ctx, 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "0.3", spending["Food"].String())

	goals, err := db.ListSavingsGoals(ctx, 1)
	require.NoError(suite.T(), err)
	if assert.Len(suite.T(), goals, 1) {
		assert.Equal(suite.T(), "250.5", goals[0].TargetAmount.String())
	}
}

func (suite *OpenTestSuite) TestMissingPaths() {
	_, err := Open(context.Background(), Options{UsersPath: filepath.Join(suite.dir, "users.db")})
	assert.Error(suite.T(), err)
}

func (suite *OpenTestSuite) TestDirectoryAsPath() {
	_, err := NewDB(suite.dir)
	assert.Error(suite.T(), err, "expected error opening a directory as database")
}

func tableExists(t *testing.T, conn *sql.DB, name string) bool {
	t.Helper()
	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count))
	return count > 0
}

// Test suite runners
func TestOpenSuite(t *testing.T) {
	suite.Run(t, new(OpenTestSuite))
}
