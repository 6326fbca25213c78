// Package auth is the session and identity boundary: it verifies credentials
// and tracks the current user. The attempt engine and catalog only ever
// consume the user id and role it supplies.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

// Service verifies logins against the user collection and persists the
// signed-in user.
type Service struct {
	store *store.Store
}

// New creates an auth service over the given store.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Login verifies the credentials and records the user as signed in.
// Any failure, unknown username or wrong password, surfaces as
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Username != username {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return model.User{}, model.ErrInvalidCredentials
		}
		if err := s.store.SetCurrentUser(ctx, &u); err != nil {
			return model.User{}, err
		}
		slog.Info("user signed in", "user_id", u.ID, "username", u.Username, "role", u.Role)
		return u, nil
	}
	return model.User{}, model.ErrInvalidCredentials
}

// Logout clears the signed-in user.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.SetCurrentUser(ctx, nil)
}

// CurrentUser returns the signed-in user, or ErrNotSignedIn.
func (s *Service) CurrentUser(ctx context.Context) (model.User, error) {
	u, err := s.store.CurrentUser(ctx)
	if err != nil {
		return model.User{}, err
	}
	if u == nil {
		return model.User{}, model.ErrNotSignedIn
	}
	return *u, nil
}

// RequireAdmin returns the signed-in user if they hold the admin role.
func (s *Service) RequireAdmin(ctx context.Context) (model.User, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return model.User{}, err
	}
	if !u.IsAdmin() {
		return model.User{}, fmt.Errorf("user %s: admin role required", u.Username)
	}
	return u, nil
}
