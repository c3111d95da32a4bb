// Package session implements registration, login and the in-memory record of
// which user is currently authenticated.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"budgetflow/internal/auth"
	"budgetflow/internal/log"
	"budgetflow/internal/models"
	"budgetflow/internal/storage"
)

// MinPasswordLength is the minimum number of characters in a new password.
const MinPasswordLength = 6

// Messages returned alongside the ok flag of Register and Login.
const (
	MsgRegistered         = "Registration successful"
	MsgLoggedIn           = "Login successful"
	MsgUsernameExists     = "username_exists"
	MsgEmailExists        = "email_exists"
	MsgFieldsRequired     = "All fields are required"
	MsgPasswordMismatch   = "Passwords do not match"
	MsgPasswordTooShort   = "Password must be at least 6 characters long"
	MsgInvalidCredentials = "Invalid username or password"
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgLoginFailed        = "Login failed. Please try again."
)

// UserStore is the subset of the user repository the manager needs.
type UserStore interface {
	CreateUser(ctx context.Context, u storage.NewUser) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Session records the authenticated user, if any.
type Session struct {
	user *models.User
}

// User returns the authenticated user or nil.
func (s Session) User() *models.User { return s.user }

// IsAuthenticated reports whether a user is logged in.
func (s Session) IsAuthenticated() bool { return s.user != nil }

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username        string
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
}

// Manager owns one Session and moves it between anonymous and authenticated.
// It is not safe for concurrent use.
type Manager struct {
	users   UserStore
	logger  *log.Logger
	verify  func(credential, password string) (bool, error)
	session Session
}

// NewManager creates a Manager with an anonymous session.
func NewManager(users UserStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		users:  users,
		logger: logger.WithComponent(log.ComponentAuth),
		verify: auth.VerifyPassword,
	}
}

// dummyCredential is verified against when the username is unknown, so both
// failure paths pay for one key derivation.
var dummyCredential = sync.OnceValue(func() string {
	c, err := auth.HashPassword("budgetflow-unknown-user")
	if err != nil {
		panic(err)
	}
	return c
})

// Register validates the input, creates the user and logs them in.
// On a duplicate username or email the message is MsgUsernameExists or
// MsgEmailExists so callers can offer to log in instead.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (bool, string) {
	if msg := validateRegistration(in); msg != "" {
		return false, msg
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	// Fast path only; the UNIQUE constraints decide below.
	if _, err := m.users.GetUserByUsername(ctx, username); err == nil {
		return false, MsgUsernameExists
	}
	if _, err := m.users.GetUserByEmail(ctx, email); err == nil {
		return false, MsgEmailExists
	}

	user, err := m.users.CreateUser(ctx, storage.NewUser{
		Username:    username,
		Email:       email,
		FullName:    strings.TrimSpace(in.FullName),
		Password:    in.Password,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateUsername):
		return false, MsgUsernameExists
	case errors.Is(err, storage.ErrDuplicateEmail):
		return false, MsgEmailExists
	case err != nil:
		m.logger.LogError(ctx, "Registration failed", log.OpCreate, err,
			log.NewFields().With(log.FieldUsername, username))
		return false, MsgRegistrationFailed
	}

	m.session = Session{user: user}
	m.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	return true, MsgRegistered
}

// Login authenticates username/password. Unknown users and wrong passwords
// produce the same MsgInvalidCredentials message.
func (m *Manager) Login(ctx context.Context, username, password string) (bool, string) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, MsgInvalidCredentials
	}

	user, err := m.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		_, _ = m.verify(dummyCredential(), password)
		return false, MsgInvalidCredentials
	}
	if err != nil {
		m.logger.LogError(ctx, "User lookup failed", log.OpLogin, err,
			log.NewFields().With(log.FieldUsername, username))
		return false, MsgLoginFailed
	}

	ok, err := m.verify(user.PasswordHash, password)
	if err != nil {
		m.logger.LogError(ctx, "Stored credential is unreadable", log.OpLogin, err,
			log.NewFields().With(log.FieldUserID, user.ID))
		return false, MsgInvalidCredentials
	}
	if !ok {
		return false, MsgInvalidCredentials
	}

	m.session = Session{user: user}
	m.logger.InfoContext(ctx, "User logged in", log.FieldUserID, user.ID)
	return true, MsgLoggedIn
}

// Logout returns the session to anonymous.
func (m *Manager) Logout(ctx context.Context) {
	if u := m.session.User(); u != nil {
		m.logger.InfoContext(ctx, "User logged out", log.FieldOperation, log.OpLogout, log.FieldUserID, u.ID)
	}
	m.session = Session{}
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session { return m.session }

// CurrentUser returns the authenticated user or nil.
func (m *Manager) CurrentUser() *models.User { return m.session.User() }

// IsAuthenticated reports whether a user is logged in.
func (m *Manager) IsAuthenticated() bool { return m.session.IsAuthenticated() }

func validateRegistration(in RegisterInput) string {
	for _, f := range []string{in.Username, in.Email, in.FullName, in.Password, in.ConfirmPassword} {
		if strings.TrimSpace(f) == "" {
			return MsgFieldsRequired
		}
	}
	if in.Password != in.ConfirmPassword {
		return MsgPasswordMismatch
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return MsgPasswordTooShort
	}
	return ""
}
