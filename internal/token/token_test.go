package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// memStorage is an in-memory Storage for tests.
type memStorage struct {
	token string
	reads int
}

func (s *memStorage) Token(ctx context.Context) (string, error) {
	s.reads++
	return s.token, nil
}

func (s *memStorage) SaveToken(ctx context.Context, token string) error {
	s.token = token
	return nil
}

func (s *memStorage) ClearToken(ctx context.Context) error {
	s.token = ""
	return nil
}

func TestTokenCachesStorageRead(t *testing.T) {
	storage := &memStorage{token: "persisted"}
	m := NewManager(storage)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tok, err := m.Token(ctx)
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if tok != "persisted" {
			t.Errorf("token = %q, want persisted", tok)
		}
	}

	if storage.reads != 1 {
		t.Errorf("storage reads = %d, want 1", storage.reads)
	}
}

func TestSetAndClear(t *testing.T) {
	storage := &memStorage{}
	m := NewManager(storage)
	ctx := context.Background()

	if m.LoggedIn(ctx) {
		t.Error("fresh manager reports logged in")
	}

	if err := m.Set(ctx, "new-token"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !m.LoggedIn(ctx) {
		t.Error("not logged in after Set")
	}
	if storage.token != "new-token" {
		t.Errorf("storage token = %q, want new-token", storage.token)
	}

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if m.LoggedIn(ctx) {
		t.Error("still logged in after Clear")
	}
	if storage.token != "" {
		t.Errorf("storage token = %q, want empty", storage.token)
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}

	m := NewManager(&memStorage{token: signed})

	got, err := m.ExpiresAt(context.Background())
	if err != nil {
		t.Fatalf("ExpiresAt failed: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", got, exp)
	}
}

func TestExpiresAtNoToken(t *testing.T) {
	m := NewManager(&memStorage{})

	if _, err := m.ExpiresAt(context.Background()); err != ErrNoToken {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}
