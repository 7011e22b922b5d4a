// Package token manages the persisted bearer token.
//
// The token is an opaque string as far as the sync layer is concerned;
// it is stored in the local durable store, attached to every API call,
// and its absence means logged out. The manager additionally peeks at
// the JWT expiry claim (without verifying the signature, which only the
// server can do) so the CLI can warn about expired sessions.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when no token is stored.
var ErrNoToken = errors.New("no auth token stored")

// Storage is the durable home of the token. *store.Store implements it.
type Storage interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Manager caches the persisted token and serves it to the API client.
type Manager struct {
	storage Storage

	mu     sync.RWMutex
	cached string
	loaded bool
}

// NewManager creates a Manager backed by the given storage.
func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage}
}

// Token returns the current bearer token, empty when logged out.
// Implements api.TokenSource.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.loaded {
		tok := m.cached
		m.mu.RUnlock()
		return tok, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return m.cached, nil
	}

	tok, err := m.storage.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	m.cached = tok
	m.loaded = true
	return tok, nil
}

// Set persists a freshly issued token.
func (m *Manager) Set(ctx context.Context, token string) error {
	if err := m.storage.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	m.mu.Lock()
	m.cached = token
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// Clear logs out by removing the persisted token.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.storage.ClearToken(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	m.mu.Lock()
	m.cached = ""
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// LoggedIn reports whether a token is stored.
func (m *Manager) LoggedIn(ctx context.Context) bool {
	tok, err := m.Token(ctx)
	return err == nil && tok != ""
}

// ExpiresAt returns the JWT's expiry claim. The signature is NOT
// verified; this is advisory only, for CLI warnings. Returns the zero
// time if the token carries no expiry.
func (m *Manager) ExpiresAt(ctx context.Context) (time.Time, error) {
	tok, err := m.Token(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if tok == "" {
		return time.Time{}, ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read expiry claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
