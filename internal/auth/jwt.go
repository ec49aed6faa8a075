package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/ids"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims carries the user id in the registered sub claim. iat_us repeats the
// issue time in microseconds so a logout can revoke tokens minted in the same
// second.
type Claims struct {
	Role          user.Role `json:"role"`
	TokenType     string    `json:"typ"`
	IssuedAtMicro int64     `json:"iat_us,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) SignAccess(sub string, role user.Role) (string, error) {
	return m.sign(sub, role, TypeAccess, m.accessSecret, m.accessTTL)
}

func (m *Manager) SignRefresh(sub string, role user.Role) (string, error) {
	return m.sign(sub, role, TypeRefresh, m.refreshSecret, m.refreshTTL)
}

func (m *Manager) sign(sub string, role user.Role, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		Role:          role,
		TokenType:     typ,
		IssuedAtMicro: now.UnixMicro(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, TypeAccess, m.accessSecret)
}

func (m *Manager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, TypeRefresh, m.refreshSecret)
}

func (m *Manager) verify(tokenStr, typ string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// the signature alone is not enough, the payload shape must match too
	if claims.TokenType != typ {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	if !ids.Valid(claims.Subject) {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidToken)
	}

	return claims, nil
}

// Identity returns the authenticated principal carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.Subject, Role: c.Role}
}

// IssuedAtTime prefers iat_us and falls back to iat. It is the zero time when
// the token carries neither.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAtMicro > 0 {
		return time.UnixMicro(c.IssuedAtMicro).UTC()
	}
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}
