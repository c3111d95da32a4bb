package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"budgetflow/internal/log"
	"budgetflow/internal/models"
)

const transactionColumns = "id, user_id, category, amount, type, description, created_at"

// NewTransaction holds the fields for AddTransaction.
type NewTransaction struct {
	UserID      int64
	Category    string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Description *string
}

// TransactionUpdate lists the fields to change; nil fields keep their value.
type TransactionUpdate struct {
	Category    *string
	Amount      *decimal.Decimal
	Type        *models.TransactionType
	Description *string
}

// AddTransaction validates and inserts a transaction, returning its id.
// Nothing is written when the amount is not positive or the type is unknown.
func (db *DB) AddTransaction(ctx context.Context, t NewTransaction) (int64, error) {
	if t.UserID <= 0 {
		return 0, ErrNoUser
	}
	if !t.Amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return 0, ErrInvalidType
	}

	result, err := db.budget.ExecContext(ctx,
		"INSERT INTO transactions (user_id, category, amount, type, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		t.UserID, t.Category, t.Amount, string(t.Type), nullString(t.Description), db.timestamp(),
	)
	if err != nil {
		return 0, db.fail(ctx, log.OpCreate, "add transaction", err,
			log.NewFields().With(log.FieldUserID, t.UserID).With(log.FieldCategory, t.Category))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, db.fail(ctx, log.OpCreate, "add transaction", err, nil)
	}
	db.logger.DebugContext(ctx, "Transaction added",
		log.FieldID, id, log.FieldUserID, t.UserID, log.FieldType, string(t.Type), log.FieldAmount, t.Amount.String())
	return id, nil
}

// GetTransaction retrieves a single transaction by ID.
func (db *DB) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	row := db.budget.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, db.fail(ctx, log.OpRead, "get transaction", err, log.NewFields().With(log.FieldID, id))
	}
	return t, nil
}

// ListTransactions returns all transactions of a user, newest first.
func (db *DB) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return db.listTransactions(ctx, userID, "")
}

// ListTransactionsByCategory returns a user's transactions in category, newest first.
func (db *DB) ListTransactionsByCategory(ctx context.Context, userID int64, category string) ([]models.Transaction, error) {
	return db.listTransactions(ctx, userID, "AND category = ?", category)
}

// ListTransactionsByType returns a user's transactions of type t, newest first.
func (db *DB) ListTransactionsByType(ctx context.Context, userID int64, t models.TransactionType) ([]models.Transaction, error) {
	return db.listTransactions(ctx, userID, "AND type = ?", string(t))
}

// ListTransactionsByDateRange returns a user's transactions created between
// start and end inclusive, comparing calendar dates only. The bounds are the
// calendar dates of start and end in their own location; created_at is
// compared by its stored UTC date.
func (db *DB) ListTransactionsByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error) {
	return db.listTransactions(ctx, userID, "AND date(created_at) BETWEEN ? AND ?",
		start.Format(dateLayout), end.Format(dateLayout))
}

func (db *DB) listTransactions(ctx context.Context, userID int64, filter string, args ...any) ([]models.Transaction, error) {
	if userID <= 0 {
		return nil, ErrNoUser
	}

	rows, err := db.budget.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? "+filter+" ORDER BY created_at DESC, id DESC",
		append([]any{userID}, args...)...,
	)
	if err != nil {
		return nil, db.fail(ctx, log.OpList, "list transactions", err, log.NewFields().With(log.FieldUserID, userID))
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, db.fail(ctx, log.OpList, "scan transaction", err, nil)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, log.OpList, "list transactions", err, nil)
	}
	return transactions, nil
}

// UpdateTransaction overwrites the fields set in u and keeps the rest.
// It returns false if no transaction has that id. Amount and type are
// written as given, without the checks AddTransaction applies.
func (db *DB) UpdateTransaction(ctx context.Context, id int64, u TransactionUpdate) (bool, error) {
	found := false
	err := withTx(ctx, db.budget, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
		current, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		if u.Category != nil {
			current.Category = *u.Category
		}
		if u.Amount != nil {
			current.Amount = *u.Amount
		}
		if u.Type != nil {
			current.Type = *u.Type
		}
		if u.Description != nil {
			current.Description = u.Description
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE transactions SET category = ?, amount = ?, type = ?, description = ? WHERE id = ?",
			current.Category, current.Amount, string(current.Type), nullString(current.Description), id,
		)
		return err
	})
	if err != nil {
		return false, db.fail(ctx, log.OpUpdate, "update transaction", err, log.NewFields().With(log.FieldID, id))
	}
	return found, nil
}

// DeleteTransaction removes a transaction and reports whether a row was removed.
func (db *DB) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	result, err := db.budget.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return false, db.fail(ctx, log.OpDelete, "delete transaction", err, log.NewFields().With(log.FieldID, id))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, db.fail(ctx, log.OpDelete, "delete transaction", err, nil)
	}
	return n > 0, nil
}

// DeleteTransactionsByUser removes every transaction of a user and returns how many were removed.
func (db *DB) DeleteTransactionsByUser(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrNoUser
	}
	result, err := db.budget.ExecContext(ctx, "DELETE FROM transactions WHERE user_id = ?", userID)
	if err != nil {
		return 0, db.fail(ctx, log.OpDelete, "delete user transactions", err, log.NewFields().With(log.FieldUserID, userID))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, db.fail(ctx, log.OpDelete, "delete user transactions", err, nil)
	}
	return n, nil
}

// CountTransactionsByUser returns the number of transactions a user has.
func (db *DB) CountTransactionsByUser(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, ErrNoUser
	}
	var count int
	err := db.budget.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, db.fail(ctx, log.OpRead, "count transactions", err, log.NewFields().With(log.FieldUserID, userID))
	}
	return count, nil
}

// SummarizeByCategory sums a user's transactions of type t per category.
// Amounts are summed as decimals in Go rather than with SQL SUM.
func (db *DB) SummarizeByCategory(ctx context.Context, userID int64, t models.TransactionType) (map[string]decimal.Decimal, error) {
	if userID <= 0 {
		return nil, ErrNoUser
	}

	rows, err := db.budget.QueryContext(ctx,
		"SELECT category, amount FROM transactions WHERE user_id = ? AND type = ?",
		userID, string(t),
	)
	if err != nil {
		return nil, db.fail(ctx, log.OpSummary, "summarize transactions", err,
			log.NewFields().With(log.FieldUserID, userID).With(log.FieldType, string(t)))
	}
	defer rows.Close()

	summary := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var amount decimal.Decimal
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, db.fail(ctx, log.OpSummary, "scan summary", err, nil)
		}
		summary[category] = summary[category].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, log.OpSummary, "summarize transactions", err, nil)
	}
	return summary, nil
}

// SpendingSummary is SummarizeByCategory for expenses.
func (db *DB) SpendingSummary(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	return db.SummarizeByCategory(ctx, userID, models.Expense)
}

// SavingsSummary is SummarizeByCategory for savings.
func (db *DB) SavingsSummary(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	return db.SummarizeByCategory(ctx, userID, models.Saving)
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var typ string
	var desc sql.NullString
	if err := row.Scan(&t.ID, &t.UserID, &t.Category, &t.Amount, &typ, &desc, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(typ)
	t.Description = stringPtr(desc)
	return &t, nil
}
