package db

import (
	"context"
	"testing"

	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/repo/memory"
	"github.com/zudaR107/todo-app/internal/security"
)

func TestEnsureSuperadmin(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		cfg         BootstrapConfig
		seedUser    bool
		wantCreated bool
	}{
		{name: "creates on empty store", cfg: BootstrapConfig{Allow: true, Email: "Admin@Example.com", Password: "admin123"}, wantCreated: true},
		{name: "disabled", cfg: BootstrapConfig{Allow: false, Email: "admin@example.com", Password: "admin123"}},
		{name: "missing password", cfg: BootstrapConfig{Allow: true, Email: "admin@example.com"}},
		{name: "store not empty", cfg: BootstrapConfig{Allow: true, Email: "admin@example.com", Password: "admin123"}, seedUser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := memory.NewUsersRepo(memory.NewDB())
			if tt.seedUser {
				if _, err := users.Create(ctx, user.User{Email: "someone@example.com", Role: user.RoleUser}); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			created, err := EnsureSuperadmin(ctx, users, tt.cfg)
			if err != nil {
				t.Fatalf("EnsureSuperadmin: %v", err)
			}
			if created != tt.wantCreated {
				t.Fatalf("created: got %v want %v", created, tt.wantCreated)
			}
			if !created {
				return
			}

			u, err := users.GetByEmail(ctx, "admin@example.com")
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if u.Role != user.RoleSuperadmin || u.DisplayName != "Super Admin" {
				t.Fatalf("unexpected user %+v", u)
			}
			if err := security.CheckPassword(u.PasswordHash, "admin123"); err != nil {
				t.Fatalf("password not stored as hash: %v", err)
			}
		})
	}
}
