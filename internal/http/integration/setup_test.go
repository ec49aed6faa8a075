package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/config"
	"github.com/zudaR107/todo-app/internal/db"
	apphttp "github.com/zudaR107/todo-app/internal/http"
	"github.com/zudaR107/todo-app/internal/repo/memory"
	"github.com/zudaR107/todo-app/internal/session"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

func testConfig() config.Config {
	return config.Config{
		Env:              "test",
		StoreDriver:      config.DriverMemory,
		CORSOrigins:      []string{"http://localhost:5173"},
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTTL:        5 * time.Minute,
		RefreshTTL:       24 * time.Hour,
		LoginRateLimit:   100,
		LoginRateWindow:  time.Minute,
		MaxBodyBytes:     1 << 20,
	}
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestRouter(t, testConfig())
}

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()

	created, err := db.EnsureSuperadmin(context.Background(), store.Users, db.BootstrapConfig{
		Allow:    true,
		Email:    adminEmail,
		Password: adminPassword,
	})
	if err != nil || !created {
		t.Fatalf("bootstrap superadmin: created=%v err=%v", created, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return apphttp.NewRouter(apphttp.Deps{
		Config: cfg,
		Log:    logger,
		Store:  store,
		Tokens: auth.NewManager(auth.Config{
			AccessSecret:  cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
		}),
		Revoker: session.NewMemoryRevoker(cfg.RefreshTTL),
	})
}

type request struct {
	method  string
	path    string
	body    string
	token   string
	cookies []*http.Cookie
	headers map[string]string
}

func do(router http.Handler, r request) (*httptest.ResponseRecorder, *http.Response) {
	var body io.Reader
	if r.body != "" {
		body = bytes.NewBufferString(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)

	if r.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Result()
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

func refreshCookie(t *testing.T, response *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range response.Cookies() {
		if c.Name == auth.RefreshCookieName {
			return c
		}
	}
	t.Fatalf("refresh_token cookie not found in response")
	return nil
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

type apiErrorResponse struct {
	Error struct {
		Message   string `json:"message"`
		Code      string `json:"code"`
		RequestID string `json:"requestId"`
		Details   struct {
			Form   []string `json:"form"`
			Fields []struct {
				Field string `json:"field"`
				Rule  string `json:"rule"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func login(t *testing.T, router http.Handler, email, password string) (loginResponse, *http.Cookie) {
	t.Helper()
	w, resp := do(router, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"` + email + `","password":"` + password + `"}`,
	})
	expectStatus(t, w, http.StatusOK)

	var out loginResponse
	mustReadJSON(t, w, &out)
	if strings.Count(out.AccessToken, ".") != 2 {
		t.Fatalf("access token is not a JWT: %q", out.AccessToken)
	}
	return out, refreshCookie(t, resp)
}

// createUser logs in as the seeded superadmin, creates a plain user and
// returns that user's access token.
func createUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	admin, _ := login(t, router, adminEmail, adminPassword)

	w, _ := do(router, request{
		method: http.MethodPost,
		path:   "/api/users",
		token:  admin.AccessToken,
		body:   `{"email":"` + email + `","displayName":"` + email + `","password":"secret123"}`,
	})
	expectStatus(t, w, http.StatusCreated)

	u, _ := login(t, router, email, "secret123")
	return u.AccessToken
}

type idResponse struct {
	ID string `json:"id"`
}

func createProject(t *testing.T, router http.Handler, token, name string) string {
	t.Helper()
	w, _ := do(router, request{
		method: http.MethodPost,
		path:   "/api/projects",
		token:  token,
		body:   `{"name":"` + name + `"}`,
	})
	expectStatus(t, w, http.StatusCreated)

	var p idResponse
	mustReadJSON(t, w, &p)
	return p.ID
}
