package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/http/handlers"
	"github.com/zudaR107/todo-app/internal/ids"
	"github.com/zudaR107/todo-app/internal/security"
)

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		caller         *auth.Identity
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
		wantRole       user.Role
	}{
		{
			name:   "defaults to user role",
			caller: adminCaller,
			body:   `{"email":"U@Example.com","displayName":"U","password":"secret123"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(_ context.Context, u user.User) (user.User, error) {
					if u.Email != "u@example.com" {
						t.Errorf("email not normalized: %q", u.Email)
					}
					if u.PasswordHash == "" || u.PasswordHash == "secret123" {
						t.Errorf("password must be hashed")
					}
					if err := security.CheckPassword(u.PasswordHash, "secret123"); err != nil {
						t.Errorf("hash does not match: %v", err)
					}
					u.ID = ids.New()
					return u, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantRole:       user.RoleUser,
		},
		{
			name:   "explicit superadmin",
			caller: adminCaller,
			body:   `{"email":"boss@example.com","displayName":"Boss","password":"secret123","role":"superadmin"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(_ context.Context, u user.User) (user.User, error) {
					u.ID = ids.New()
					return u, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantRole:       user.RoleSuperadmin,
		},
		{
			name:   "duplicate email",
			caller: adminCaller,
			body:   `{"email":"u@example.com","displayName":"U","password":"secret123"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(context.Context, user.User) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "unknown role",
			caller:         adminCaller,
			body:           `{"email":"u@example.com","displayName":"U","password":"secret123","role":"root"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "plain user",
			caller:         ownerCaller,
			body:           `{"email":"u@example.com","displayName":"U","password":"secret123"}`,
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}
			h := handlers.NewUsersHandler(repo)
			r := setupRouter(http.MethodPost, "/users", h.CreateUser, tt.caller)

			w := doRequest(r, http.MethodPost, "/users", tt.body, nil)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantRole != "" {
				if p := mustDecode[user.Profile](t, w); p.Role != tt.wantRole || p.ID == "" {
					t.Fatalf("unexpected profile: %+v", p)
				}
			}
		})
	}
}
