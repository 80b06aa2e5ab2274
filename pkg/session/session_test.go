package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGate_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("plot123"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		gate     *Gate
		user     string
		password string
		expected bool
	}{
		{"correct pair", NewGate("admin", "plot123"), "admin", "plot123", true},
		{"wrong password", NewGate("admin", "plot123"), "admin", "plot124", false},
		{"wrong username", NewGate("admin", "plot123"), "root", "plot123", false},
		{"username is case sensitive", NewGate("admin", "plot123"), "Admin", "plot123", false},
		{"blank submitted username", NewGate("admin", "plot123"), "", "plot123", false},
		{"blank configured username accepts any", NewGate("", "plot123"), "anyone", "plot123", true},
		{"blank configured username accepts blank", NewGate("", "plot123"), "", "plot123", true},
		{"blank configured password never matches", NewGate("admin", ""), "admin", "", false},
		{"bcrypt hash matches", NewGate("admin", string(hash)), "admin", "plot123", true},
		{"bcrypt hash rejects", NewGate("admin", string(hash)), "admin", "nope", false},
		{"hash itself is not the password", NewGate("admin", string(hash)), "admin", string(hash), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.gate.Authenticate(tt.user, tt.password)
			if result != tt.expected {
				t.Errorf("Authenticate(%q, %q) = %v, expected %v", tt.user, tt.password, result, tt.expected)
			}
		})
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	s, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsAdmin)
	assert.False(t, s.HasFix)

	s.IsAdmin = true
	s.Lat, s.Lon, s.HasFix = 26.8467, 80.9462, true
	_, err = store.Save(ctx, s)
	require.NoError(t, err)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, 26.8467, got.Lat)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Save(ctx, s)
	assert.ErrorIs(t, err, ErrNotFound, "deleted sessions cannot be resurrected")
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	s, err := store.Create(ctx)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	s, err = store.Save(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), s.ExpiresAt)

	now = now.Add(29 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	require.NoError(t, err, "save extends the expiry")

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveAfterExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	s, err := store.Create(ctx)
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	s.IsAdmin = true
	_, err = store.Save(ctx, s)
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(-10 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound, "an expired session is gone once touched")
}

func TestMemoryStore_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	a, _ := store.Create(ctx)
	b, _ := store.Create(ctx)
	a.IsAdmin = true
	_, err := store.Save(ctx, a)
	require.NoError(t, err)

	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
}
