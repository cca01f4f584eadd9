package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService checks passwords and manages user accounts.
type AuthService struct {
	storage *storage.SQLiteRepository
}

func NewAuthService(storage *storage.SQLiteRepository) *AuthService {
	return &AuthService{storage: storage}
}

// Login verifies the password and returns a session for the user. The
// must-change-password flag is surfaced so the caller can force a change.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, bool, error) {
	u, err := s.storage.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, false, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, false, ErrInvalidCredentials
	}

	if err := s.storage.AppendAudit(ctx, username, "user.login", ""); err != nil {
		slog.ErrorContext(ctx, "Failed to audit login", "username", username, "error", err)
	}

	return Session{Username: u.Username, Role: u.Role}, u.MustChangePassword, nil
}

// CreateUser hashes the password and stores a new account.
func (s *AuthService) CreateUser(ctx context.Context, sess Session, username, password, role string, mustChange bool) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		Username:           username,
		PasswordHash:       string(hash),
		Role:               role,
		MustChangePassword: mustChange,
	}
	if err := u.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateUser(ctx, u)
	if err != nil {
		return 0, err
	}

	if err := s.storage.AppendAudit(ctx, sess.Username, "user.create", username); err != nil {
		slog.ErrorContext(ctx, "Failed to audit user creation", "username", username, "error", err)
	}
	return id, nil
}

// ChangePassword sets a new password and clears the must-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, sess Session, userID int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.storage.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	if err := s.storage.AppendAudit(ctx, sess.Username, "user.change_password", ""); err != nil {
		slog.ErrorContext(ctx, "Failed to audit password change", "error", err)
	}
	return nil
}

// EnsureDefaultAdmin seeds the first account when the users table is empty,
// flagged to force a password change on first login.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	n, err := s.storage.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.storage.CreateUser(ctx, core.User{
		Username:           username,
		PasswordHash:       string(hash),
		Role:               "admin",
		MustChangePassword: true,
	})
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	slog.InfoContext(ctx, "Default admin account created", "username", username)
	return nil
}

// ListUsers returns every account without password hashes, for admin views.
func (s *AuthService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.storage.ListUsers(ctx)
}

// DeleteUser removes an account and records who did it.
func (s *AuthService) DeleteUser(ctx context.Context, sess Session, id int64) error {
	if err := s.storage.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := s.storage.AppendAudit(ctx, sess.Username, "user.delete", ""); err != nil {
		slog.ErrorContext(ctx, "Failed to audit user deletion", "error", err)
	}
	return nil
}
