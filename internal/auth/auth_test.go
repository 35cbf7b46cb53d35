package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
)

// memUsers is an in-memory UserStorage.
type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]*models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return storage.ErrConflict
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[models.NormalizeEmail(email)]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemUsers())

	user, err := a.Register(ctx, "Bob@Example.com", "Bob", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "bob@example.com" {
		t.Errorf("Email = %s, want bob@example.com", user.Email)
	}
	if user.PasswordHash == "correct horse" || user.PasswordHash == "" {
		t.Error("password should be stored hashed")
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "duplicate email",
			run: func() error {
				_, err := a.Register(ctx, "bob@example.com", "Bob 2", "another password")
				return err
			},
			wantErr: ErrEmailExists,
		},
		{
			name: "weak password",
			run: func() error {
				_, err := a.Register(ctx, "carol@example.com", "Carol", "short")
				return err
			},
			wantErr: ErrWeakPassword,
		},
		{
			name: "missing display name",
			run: func() error {
				_, err := a.Register(ctx, "carol@example.com", " ", "long enough")
				return err
			},
			wantErr: ErrMissingFields,
		},
		{
			name: "wrong password",
			run: func() error {
				_, err := a.Authenticate(ctx, "bob@example.com", "wrong password")
				return err
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			run: func() error {
				_, err := a.Authenticate(ctx, "nobody@example.com", "correct horse")
				return err
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "correct password with different email case",
			run: func() error {
				got, err := a.Authenticate(ctx, "BOB@example.com", "correct horse")
				if err == nil && got.ID != user.ID {
					return fmt.Errorf("authenticated %s, want %s", got.ID, user.ID)
				}
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID() != "user-1" {
			t.Errorf("UserID = %s, want user-1", claims.UserID())
		}
		if claims.Email != "alice@example.com" {
			t.Errorf("Email = %s, want alice@example.com", claims.Email)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("test-secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(token, ".")
		parts[1] = "f" + parts[1][1:]
		tampered := strings.Join(parts, ".")
		if _, err := m.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want %v", err, ErrInvalidToken)
		}
	})
}
