package storage

import (
	"context"
	"database/sql"
	"errors"

	"budgetflow/internal/log"
	"budgetflow/internal/models"
)

const categoryColumns = "id, name, type, description, color, icon"

// Category types used by the default catalog.
const (
	CategoryTypeSaving  = "saving"
	CategoryTypeExpense = "expense"
)

// NewCategory holds the fields for AddCategory.
type NewCategory struct {
	Name        string
	Type        string
	Description *string
	Color       *string
	Icon        *string
}

// CategoryUpdate lists the fields to change; nil fields keep their value.
type CategoryUpdate struct {
	Name        *string
	Type        *string
	Description *string
	Color       *string
	Icon        *string
}

// categoryDef is one entry of the default catalog.
type categoryDef struct {
	Name        string
	Type        string
	Description string
	Color       string
	Icon        string
}

var defaultCategories = []categoryDef{
	{"Savings", CategoryTypeSaving, "General savings", "#76c7c0", "💰"},
	{"Vacation", CategoryTypeSaving, "Travel and holidays", "#60a5fa", "🏖️"},
	{"Emergency", CategoryTypeSaving, "Emergency fund", "#f87171", "🚨"},
	{"Education", CategoryTypeSaving, "Courses, books and tuition", "#a78bfa", "🎓"},
	{"Food", CategoryTypeExpense, "Groceries and dining", "#fbbf24", "🍽️"},
	{"Rent", CategoryTypeExpense, "Rent and housing", "#818cf8", "🏠"},
	{"Shopping", CategoryTypeExpense, "Clothes and general shopping", "#f472b6", "🛍️"},
	{"Transportation", CategoryTypeExpense, "Public transport, fuel and taxis", "#34d399", "🚌"},
	{"Healthcare", CategoryTypeExpense, "Doctors and medicine", "#fb7185", "💊"},
	{"Personal", CategoryTypeExpense, "Personal care", "#94a3b8", "🧴"},
	{"Recreation", CategoryTypeExpense, "Entertainment and hobbies", "#f97316", "🎮"},
}

// SeedDefaultCategories inserts the default catalog if it is empty and
// returns the number of categories inserted.
func (db *DB) SeedDefaultCategories(ctx context.Context) (int, error) {
	inserted := 0
	err := withTx(ctx, db.budget, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM budget_categories").Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, c := range defaultCategories {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO budget_categories (name, type, description, color, icon) VALUES (?, ?, ?, ?, ?)",
				c.Name, c.Type, c.Description, c.Color, c.Icon,
			); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, db.fail(ctx, log.OpSeed, "seed categories", err, nil)
	}
	return inserted, nil
}

// ListCategories returns every category ordered by name.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	return db.listCategories(ctx, "", nil)
}

// ListCategoriesByType returns the categories of a type ordered by name.
func (db *DB) ListCategoriesByType(ctx context.Context, categoryType string) ([]models.Category, error) {
	return db.listCategories(ctx, "WHERE type = ?", []any{categoryType})
}

func (db *DB) listCategories(ctx context.Context, filter string, args []any) ([]models.Category, error) {
	rows, err := db.budget.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM budget_categories "+filter+" ORDER BY name",
		args...,
	)
	if err != nil {
		return nil, db.fail(ctx, log.OpList, "list categories", err, nil)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, db.fail(ctx, log.OpList, "scan category", err, nil)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, log.OpList, "list categories", err, nil)
	}
	return categories, nil
}

// GetCategoryByName retrieves a category by its unique name.
func (db *DB) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	row := db.budget.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM budget_categories WHERE name = ?", name)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, db.fail(ctx, log.OpRead, "get category", err, log.NewFields().With(log.FieldCategory, name))
	}
	return c, nil
}

// AddCategory inserts a category and returns its id. A taken name yields
// ErrDuplicateCategory.
func (db *DB) AddCategory(ctx context.Context, c NewCategory) (int64, error) {
	result, err := db.budget.ExecContext(ctx,
		"INSERT INTO budget_categories (name, type, description, color, icon) VALUES (?, ?, ?, ?, ?)",
		c.Name, c.Type, nullString(c.Description), nullString(c.Color), nullString(c.Icon),
	)
	if isUniqueViolation(err, "budget_categories.name") {
		return 0, ErrDuplicateCategory
	}
	if err != nil {
		return 0, db.fail(ctx, log.OpCreate, "add category", err, log.NewFields().With(log.FieldCategory, c.Name))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, db.fail(ctx, log.OpCreate, "add category", err, nil)
	}
	return id, nil
}

// UpdateCategory overwrites the fields set in u and keeps the rest. It
// returns false if no category has that id. Renaming onto an existing name
// yields ErrDuplicateCategory.
func (db *DB) UpdateCategory(ctx context.Context, id int64, u CategoryUpdate) (bool, error) {
	found := false
	err := withTx(ctx, db.budget, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM budget_categories WHERE id = ?", id)
		current, err := scanCategory(row)
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
		if u.Type != nil {
			current.Type = *u.Type
		}
		if u.Description != nil {
			current.Description = u.Description
		}
		if u.Color != nil {
			current.Color = u.Color
		}
		if u.Icon != nil {
			current.Icon = u.Icon
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE budget_categories SET name = ?, type = ?, description = ?, color = ?, icon = ? WHERE id = ?",
			current.Name, current.Type, nullString(current.Description), nullString(current.Color), nullString(current.Icon), id,
		)
		return err
	})
	if isUniqueViolation(err, "budget_categories.name") {
		return false, ErrDuplicateCategory
	}
	if err != nil {
		return false, db.fail(ctx, log.OpUpdate, "update category", err, log.NewFields().With(log.FieldID, id))
	}
	return found, nil
}

// DeleteCategory removes a category unless a transaction still uses its
// name. It returns false when the category is in use or does not exist.
func (db *DB) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := withTx(ctx, db.budget, func(tx *sql.Tx) error {
		var inUse int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM transactions WHERE category = (SELECT name FROM budget_categories WHERE id = ?)",
			id,
		).Scan(&inUse); err != nil {
			return err
		}
		if inUse > 0 {
			return nil
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM budget_categories WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, db.fail(ctx, log.OpDelete, "delete category", err, log.NewFields().With(log.FieldID, id))
	}
	return deleted, nil
}

// CategoryColors maps category names to their display color. Categories
// without a color are left out.
func (db *DB) CategoryColors(ctx context.Context) (map[string]string, error) {
	rows, err := db.budget.QueryContext(ctx, "SELECT name, color FROM budget_categories WHERE color IS NOT NULL")
	if err != nil {
		return nil, db.fail(ctx, log.OpList, "category colors", err, nil)
	}
	defer rows.Close()

	colors := make(map[string]string)
	for rows.Next() {
		var name, color string
		if err := rows.Scan(&name, &color); err != nil {
			return nil, db.fail(ctx, log.OpList, "scan category color", err, nil)
		}
		colors[name] = color
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, log.OpList, "category colors", err, nil)
	}
	return colors, nil
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	var desc, color, icon sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &desc, &color, &icon); err != nil {
		return nil, err
	}
	c.Description = stringPtr(desc)
	c.Color = stringPtr(color)
	c.Icon = stringPtr(icon)
	return &c, nil
}
