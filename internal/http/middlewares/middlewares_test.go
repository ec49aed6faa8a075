package middlewares

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/ids"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeVerifier struct {
	claims *auth.Claims
	err    error
	got    string
}

func (f *fakeVerifier) VerifyAccess(token string) (*auth.Claims, error) {
	f.got = token
	return f.claims, f.err
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return resp.Error
}

func newEngine(production bool, mws ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorMapper(discardLog, production), Recovery())
	r.Use(mws...)
	r.NoRoute(NotFound())
	return r
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	uid := ids.New()

	tests := []struct {
		name       string
		header     string
		verifier   *fakeVerifier
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "missing header",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Missing Authorization header",
		},
		{
			name:       "invalid token",
			header:     "Bearer nope",
			verifier:   &fakeVerifier{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid or expired token",
		},
		{
			name:       "wrong role",
			header:     "Bearer ok",
			verifier:   &fakeVerifier{claims: &auth.Claims{Role: user.RoleUser}},
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden",
		},
		{
			name:       "superadmin",
			header:     "bearer ok",
			verifier:   &fakeVerifier{claims: &auth.Claims{Role: user.RoleSuperadmin}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.verifier.claims != nil {
				tt.verifier.claims.Subject = uid
			}
			am := NewAuthMiddleware(tt.verifier)

			called := false
			r := newEngine(false)
			r.GET("/admin", am.RequireAuth(), am.RequireRole(user.RoleSuperadmin), func(c *gin.Context) {
				called = true
				id, ok := IdentityFromContext(c)
				if !ok || id.UserID != uid {
					t.Errorf("identity not attached: %+v", id)
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if called {
					t.Fatalf("handler must not run")
				}
				if got := decodeError(t, w); got.Message != tt.wantMsg {
					t.Fatalf("expected message %q, got %q", tt.wantMsg, got.Message)
				}
			}
		})
	}
}

func TestErrorMapper(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		err        error
		panicWith  any
		wantStatus int
		wantMsg    string
		wantStack  bool
	}{
		{
			name:       "exposed error",
			err:        apperr.Conflict("Email already exists"),
			wantStatus: http.StatusConflict,
			wantMsg:    "Email already exists",
		},
		{
			name:       "validation",
			err:        apperr.FormInvalid("At least one field must be provided"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation error",
		},
		{
			name:       "plain error in dev",
			err:        errors.New("db exploded"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
			wantStack:  true,
		},
		{
			name:       "plain error in prod",
			production: true,
			err:        errors.New("db exploded"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
		},
		{
			name:       "panic",
			panicWith:  "boom",
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
			wantStack:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(tt.production)
			r.GET("/x", func(c *gin.Context) {
				if tt.panicWith != nil {
					panic(tt.panicWith)
				}
				_ = c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			body := decodeError(t, w)
			if body.Message != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, body.Message)
			}
			if (body.Stack != "") != tt.wantStack {
				t.Fatalf("stack presence mismatch: %q", body.Stack)
			}
			if strings.Contains(body.Message, "db exploded") {
				t.Fatalf("internal error text leaked")
			}
			if body.RequestID == "" || body.RequestID != w.Header().Get("X-Request-Id") {
				t.Fatalf("expected request id in body and header")
			}
		})
	}
}

func TestNotFoundRoute(t *testing.T) {
	r := newEngine(false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := decodeError(t, w); got.Message != "Not Found" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestRequireJSON(t *testing.T) {
	r := newEngine(false, RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{name: "json body", body: `{}`, contentType: "application/json; charset=utf-8", want: http.StatusNoContent},
		{name: "form body", body: `a=b`, contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "no body", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/x", body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := newEngine(false)
	r.POST("/login", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("unexpected Retry-After %q", w.Header().Get("Retry-After"))
	}

	now = now.Add(2 * time.Minute)
	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("expected window reset, got %d", w.Code)
	}
}

func TestRateLimiterKeyByUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	r := newEngine(false)
	r.POST("/projects", func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			SetIdentity(c, auth.Identity{UserID: uid, Role: user.RoleUser})
		}
		c.Next()
	}, rl.RateLimiterMiddleware(KeyByUserOrIP), func(c *gin.Context) { c.Status(http.StatusCreated) })

	alice, bob := ids.New(), ids.New()
	tests := []struct {
		name string
		user string
		want int
	}{
		{name: "first user", user: alice, want: http.StatusCreated},
		{name: "second user on the same address", user: bob, want: http.StatusCreated},
		{name: "first user again", user: alice, want: http.StatusTooManyRequests},
		{name: "anonymous falls back to the address", want: http.StatusCreated},
		{name: "anonymous again", want: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if tt.user != "" {
			req.Header.Set("X-Test-User", tt.user)
		}
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, w.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
	}{
		{name: "listed", allowed: []string{"http://app.test"}, origin: "http://app.test", wantOrigin: "http://app.test"},
		{name: "unlisted", allowed: []string{"http://app.test"}, origin: "http://evil.test", wantOrigin: ""},
		{name: "wildcard echoes", allowed: []string{"*"}, origin: "http://any.test", wantOrigin: "http://any.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(false, CORSMiddleware(tt.allowed))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Fatalf("expected preflight 204, got %d", w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("expected allow origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		prod     bool
		path     string
		wantCSP  string
		wantHSTS bool
	}{
		{name: "api", path: "/api/projects", wantCSP: defaultCSP},
		{name: "docs", path: "/api/docs", wantCSP: docsCSP},
		{name: "prod adds hsts", prod: true, path: "/api/projects", wantCSP: defaultCSP, wantHSTS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeaders("/api/docs", tt.prod))
			r.GET(tt.path, func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if got := w.Header().Get("Content-Security-Policy"); got != tt.wantCSP {
				t.Fatalf("csp = %q, want %q", got, tt.wantCSP)
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Fatalf("nosniff missing")
			}
			if hsts := w.Header().Get("Strict-Transport-Security") != ""; hsts != tt.wantHSTS {
				t.Fatalf("hsts = %v, want %v", hsts, tt.wantHSTS)
			}
		})
	}
}
