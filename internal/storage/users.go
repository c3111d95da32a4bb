package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetflow/internal/auth"
	"budgetflow/internal/log"
	"budgetflow/internal/models"
)

const userColumns = "id, username, email, full_name, password_hash, phone_number, created_at"

// NewUser holds the fields for CreateUser. Password is plaintext and is
// hashed before it is stored. PhoneNumber may be empty.
type NewUser struct {
	Username    string
	Email       string
	FullName    string
	Password    string
	PhoneNumber string
}

// CreateUser hashes the password and inserts the user. A taken username or
// email yields ErrDuplicateUsername or ErrDuplicateEmail.
func (db *DB) CreateUser(ctx context.Context, u NewUser) (*models.User, error) {
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var phone *string
	if u.PhoneNumber != "" {
		phone = &u.PhoneNumber
	}

	result, err := db.users.ExecContext(ctx,
		"INSERT INTO users (username, email, full_name, password_hash, phone_number, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.Email, u.FullName, hash, nullString(phone), db.timestamp(),
	)
	switch {
	case isUniqueViolation(err, "users.username"):
		return nil, ErrDuplicateUsername
	case isUniqueViolation(err, "users.email"):
		return nil, ErrDuplicateEmail
	case err != nil:
		return nil, db.fail(ctx, log.OpCreate, "create user", err, log.NewFields().With(log.FieldUsername, u.Username))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, db.fail(ctx, log.OpCreate, "create user", err, nil)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "username", username)
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email", email)
}

func (db *DB) getUser(ctx context.Context, column string, value any) (*models.User, error) {
	row := db.users.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?",
		value,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, db.fail(ctx, log.OpRead, "get user by "+column, err, nil)
	}
	return u, nil
}

// ListUsers returns all users ordered by id.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.users.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, db.fail(ctx, log.OpList, "list users", err, nil)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, db.fail(ctx, log.OpList, "scan user", err, nil)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail(ctx, log.OpList, "list users", err, nil)
	}
	return users, nil
}

// DeleteUser removes the user row only. It reports whether a row was removed.
func (db *DB) DeleteUser(ctx context.Context, id int64) (bool, error) {
	result, err := db.users.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return false, db.fail(ctx, log.OpDelete, "delete user", err, log.NewFields().With(log.FieldUserID, id))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, db.fail(ctx, log.OpDelete, "delete user", err, nil)
	}
	return n > 0, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.users.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, db.fail(ctx, log.OpRead, "count users", err, nil)
	}
	return count, nil
}

// UserDeletion reports what DeleteUserCascade removed.
type UserDeletion struct {
	Transactions int64
	SavingsGoals int64
}

// DeleteUserCascade removes a user's transactions and savings goals from the
// budget store and then the user. It returns false if the user does not exist.
// The two stores are not updated atomically: if the user delete fails after
// the budget rows are gone, the returned error says so.
func (db *DB) DeleteUserCascade(ctx context.Context, id int64) (bool, UserDeletion, error) {
	var del UserDeletion

	if _, err := db.GetUserByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, del, nil
		}
		return false, del, err
	}

	err := withTx(ctx, db.budget, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE user_id = ?", id)
		if err != nil {
			return err
		}
		if del.Transactions, err = res.RowsAffected(); err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx, "DELETE FROM savings_goals WHERE user_id = ?", id)
		if err != nil {
			return err
		}
		del.SavingsGoals, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, UserDeletion{}, db.fail(ctx, log.OpDelete, "delete user budget data", err, log.NewFields().With(log.FieldUserID, id))
	}

	removed, err := db.DeleteUser(ctx, id)
	if err != nil {
		db.logger.WarnContext(ctx, "User budget data removed but user row remains",
			log.FieldUserID, id, log.FieldError, err.Error())
		return false, del, fmt.Errorf("budget data removed but user row remains: %w", err)
	}

	db.logger.InfoContext(ctx, "User deleted",
		log.FieldUserID, id,
		"transactions", del.Transactions,
		"savings_goals", del.SavingsGoals)
	return removed, del, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &phone, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PhoneNumber = stringPtr(phone)
	return &u, nil
}
