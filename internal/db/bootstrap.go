package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/repo"
	"github.com/zudaR107/todo-app/internal/security"
)

const bootstrapDisplayName = "Super Admin"

type BootstrapConfig struct {
	Allow    bool
	Email    string
	Password string
}

// EnsureSuperadmin seeds the first superadmin when the user store is empty and
// bootstrapping is explicitly allowed. created is false when nothing was done.
func EnsureSuperadmin(ctx context.Context, users repo.Users, cfg BootstrapConfig) (created bool, err error) {
	if !cfg.Allow || cfg.Email == "" || cfg.Password == "" {
		return false, nil
	}

	n, err := users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	hash, err := security.HashPassword(cfg.Password)
	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, user.User{
		Email:        cfg.Email,
		DisplayName:  bootstrapDisplayName,
		PasswordHash: hash,
		Role:         user.RoleSuperadmin,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance won the race
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "bootstrap superadmin created", "email", user.NormalizeEmail(cfg.Email))
	return true, nil
}
