package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"p9e.in/plotdesk/pkg/session"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tok, err := tokens.GenerateToken("abc")
	require.NoError(t, err)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.SessionID)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	other, err := NewTokens("other", time.Hour).GenerateToken("abc")
	require.NoError(t, err)
	expired, err := NewTokens("secret", -time.Minute).GenerateToken("abc")
	require.NoError(t, err)
	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{SessionID: "abc"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong key", other},
		{"expired", expired},
		{"no session id", noSession},
		{"unexpected algorithm", hs512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func newSessions(t *testing.T) (*Sessions, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	return &Sessions{Tokens: NewTokens("secret", time.Hour), Store: store, Log: zap.NewNop()}, store
}

func TestRequire(t *testing.T) {
	s, store := newSessions(t)
	state, err := store.Create(context.Background())
	require.NoError(t, err)
	tok, err := s.Tokens.GenerateToken(state.ID)
	require.NoError(t, err)
	orphan, err := s.Tokens.GenerateToken("deleted-session")
	require.NoError(t, err)

	var seen string
	h := s.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := GetSession(r)
		require.True(t, ok)
		seen = st.ID
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + tok, http.StatusOK},
		{"lower-case scheme", "bearer " + tok, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic " + tok, http.StatusUnauthorized},
		{"unknown session", "Bearer " + orphan, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, state.ID, seen)
			} else {
				assert.Empty(t, seen)
				assert.JSONEq(t, `{"error":"missing, invalid or expired session"}`, rec.Body.String())
			}
		})
	}
}

func TestOptional_PassesThroughWithoutToken(t *testing.T) {
	s, _ := newSessions(t)
	called := false
	h := s.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := GetSession(r)
		assert.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", "Bearer junk")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestRequireAdmin(t *testing.T) {
	s, store := newSessions(t)
	ctx := context.Background()
	visitor, err := store.Create(ctx)
	require.NoError(t, err)
	admin, err := store.Create(ctx)
	require.NoError(t, err)
	admin.IsAdmin = true
	_, err = store.Save(ctx, admin)
	require.NoError(t, err)

	h := s.Require(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for name, tc := range map[string]struct {
		id   string
		want int
	}{
		"visitor": {visitor.ID, http.StatusUnauthorized},
		"admin":   {admin.ID, http.StatusNoContent},
	} {
		t.Run(name, func(t *testing.T) {
			tok, err := s.Tokens.GenerateToken(tc.id)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/plots", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	assert.Equal(t, "10.0.0.5", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.6")
	assert.Equal(t, "10.0.0.6", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
