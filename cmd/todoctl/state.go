package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zudaR107/todo-app/pkg/client"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/auth/refresh"
)

// state is what todoctl keeps between runs.
type state struct {
	Server       string `yaml:"server,omitempty"`
	AccessToken  string `yaml:"accessToken,omitempty"`
	RefreshToken string `yaml:"refreshToken,omitempty"`
}

func (s state) cookies() []*http.Cookie {
	if s.RefreshToken == "" {
		return nil
	}
	return []*http.Cookie{{Name: refreshCookieName, Value: s.RefreshToken, Path: refreshCookiePath}}
}

func expiredRefreshCookie() *http.Cookie {
	return &http.Cookie{Name: refreshCookieName, Path: refreshCookiePath, MaxAge: -1}
}

func stateFrom(c *client.Client) state {
	st := state{Server: c.BaseURL(), AccessToken: c.Token()}
	for _, ck := range c.Cookies() {
		if ck.Name == refreshCookieName {
			st.RefreshToken = ck.Value
			break
		}
	}
	return st
}

func loadState(path string) (state, error) {
	var st state
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read session: %w", err)
	}
	if err := yaml.Unmarshal(b, &st); err != nil {
		return state{}, fmt.Errorf("parse session %s: %w", path, err)
	}
	return st, nil
}

// saveState writes the session with owner-only permissions. An empty
// session removes the file.
func saveState(path string, st state) error {
	if st.AccessToken == "" && st.RefreshToken == "" {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
