package client

import (
	"context"
	"sync"
)

type Status string

const (
	StatusIdle            Status = "idle"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Session tracks who is logged in on top of a Client:
// idle -> loading -> authenticated | unauthenticated.
type Session struct {
	client *Client

	mu     sync.RWMutex
	status Status
	user   *User

	onExpired func()
}

// NewSession takes over the client's session-expired hook. onExpired, if
// set, runs when a refresh is rejected while the session was live. A failed
// Bootstrap or an already unauthenticated session stays quiet.
func NewSession(c *Client, onExpired func()) *Session {
	s := &Session{
		client:    c,
		status:    StatusIdle,
		onExpired: onExpired,
	}
	c.OnSessionExpired(s.expire)
	return s
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) set(status Status, u *User) {
	s.mu.Lock()
	s.status = status
	s.user = u
	s.mu.Unlock()
}

// Bootstrap restores a session from the refresh cookie alone. Any failure
// leaves the session unauthenticated.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.set(StatusLoading, nil)

	if _, err := s.client.Refresh(ctx); err != nil {
		s.set(StatusUnauthenticated, nil)
		return err
	}

	u, err := s.client.Me(ctx)
	if err != nil {
		s.client.SetToken("")
		s.set(StatusUnauthenticated, nil)
		return err
	}

	s.set(StatusAuthenticated, &u)
	return nil
}

// Login leaves the state untouched on failure.
func (s *Session) Login(ctx context.Context, email, password string) (User, error) {
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	u := res.User
	s.set(StatusAuthenticated, &u)
	return u, nil
}

// Logout ends the session locally even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	defer s.set(StatusUnauthenticated, nil)
	return s.client.Logout(ctx)
}

func (s *Session) expire() {
	s.mu.Lock()
	quiet := s.status == StatusUnauthenticated || s.status == StatusLoading
	s.status = StatusUnauthenticated
	s.user = nil
	s.mu.Unlock()

	if !quiet && s.onExpired != nil {
		s.onExpired()
	}
}
