package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetflow/internal/log"
	"budgetflow/internal/models"
)

const goalColumns = "id, user_id, name, category, target_amount, deadline, description, created_at"

// NewSavingsGoal holds the fields for CreateSavingsGoal.
type NewSavingsGoal struct {
	UserID       int64
	Name         string
	Category     string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
	Description  *string
}

// SavingsGoalUpdate lists the fields to change; nil fields keep their value.
type SavingsGoalUpdate struct {
	Name         *string
	Category     *string
	TargetAmount *decimal.Decimal
	Deadline     *time.Time
	Description  *string
}

// CreateSavingsGoal inserts a goal and returns its id.
func (db *DB) CreateSavingsGoal(ctx context.Context, g NewSavingsGoal) (int64, error) {
	if g.UserID <= 0 {
		return 0, ErrNoUser
	}
	if !g.TargetAmount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	result, err := db.budget.ExecContext(ctx,
		"INSERT INTO savings_goals (user_id, name, category, target_amount, deadline, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		g.UserID, g.Name, g.Category, g.TargetAmount, formatDeadline(g.Deadline), nullString(g.Description), db.timestamp(),
	)
	if err != nil {
		return 0, db.fail(ctx, log.OpCreate, "create savings goal", err, log.NewFields().With(log.FieldUserID, g.UserID))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, db.fail(ctx, log.OpCreate, "create savings goal", err, nil)
	}
	return id, nil
}

// ListSavingsGoals returns a user's goals, newest first.
func (db *DB) ListSavingsGoals(ctx context.Context, userID int64) ([]models.SavingsGoal, error) {
	if userID <= 0 {
		return nil, ErrNoUser
	}

	rows, err := db.budget.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM savings_goals WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, db.fail(ctx, log.OpList, "list savings goals", err, log.NewFields().With(log.FieldUserID, userID))
	}
	defer rows.Close()

	goals := []models.SavingsGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, db.fail(ctx, log.OpList, "scan savings goal", err, nil)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, log.OpList, "list savings goals", err, nil)
	}
	return goals, nil
}

// GetSavingsGoal retrieves a goal by ID.
func (db *DB) GetSavingsGoal(ctx context.Context, id int64) (*models.SavingsGoal, error) {
	row := db.budget.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM savings_goals WHERE id = ?", id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, db.fail(ctx, log.OpRead, "get savings goal", err, log.NewFields().With(log.FieldID, id))
	}
	return g, nil
}

// UpdateSavingsGoal overwrites the fields set in u and keeps the rest.
// It returns false if no goal has that id.
func (db *DB) UpdateSavingsGoal(ctx context.Context, id int64, u SavingsGoalUpdate) (bool, error) {
	found := false
	err := withTx(ctx, db.budget, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM savings_goals WHERE id = ?", id)
		current, err := scanGoal(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		if u.Name != nil {
			current.Name = *u.Name
		}
		if u.Category != nil {
			current.Category = *u.Category
		}
		if u.TargetAmount != nil {
			current.TargetAmount = *u.TargetAmount
		}
		if u.Deadline != nil {
			current.Deadline = u.Deadline
		}
		if u.Description != nil {
			current.Description = u.Description
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE savings_goals SET name = ?, category = ?, target_amount = ?, deadline = ?, description = ? WHERE id = ?",
			current.Name, current.Category, current.TargetAmount,
			formatDeadline(current.Deadline), nullString(current.Description), id,
		)
		return err
	})
	if err != nil {
		return false, db.fail(ctx, log.OpUpdate, "update savings goal", err, log.NewFields().With(log.FieldID, id))
	}
	return found, nil
}

func formatDeadline(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func scanGoal(row rowScanner) (*models.SavingsGoal, error) {
	var g models.SavingsGoal
	var deadline, desc sql.NullString
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Category, &g.TargetAmount, &deadline, &desc, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Description = stringPtr(desc)
	if deadline.Valid && deadline.String != "" {
		d, err := time.Parse(dateLayout, deadline.String)
		if err != nil {
			return nil, fmt.Errorf("parse deadline %q: %w", deadline.String, err)
		}
		g.Deadline = &d
	}
	return &g, nil
}
