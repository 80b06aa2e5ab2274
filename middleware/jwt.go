package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/session"
)

// ErrInvalidToken covers missing, malformed, expired and badly signed tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the custom payload in the session JWT.
// The token only names the session; admin state lives in the session store.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// unexported type prevents collisions in context
type ctxKey int

const (
	sessionKey ctxKey = iota
)

// Tokens signs and verifies session tokens
type Tokens struct {
	key []byte
	ttl time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), ttl: ttl}
}

// GenerateToken creates a signed HS256 JWT for sessionID, valid for the session TTL
func (t *Tokens) GenerateToken(sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Parse validates tokenStr and returns its claims
func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Sessions resolves bearer tokens to stored sessions
type Sessions struct {
	Tokens *Tokens
	Store  session.Store
	Log    *zap.Logger
}

// Resolve returns the session named by the request's bearer token
func (s *Sessions) Resolve(r *http.Request) (models.SessionState, error) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		return models.SessionState{}, ErrInvalidToken
	}
	claims, err := s.Tokens.Parse(tokenStr)
	if err != nil {
		return models.SessionState{}, err
	}
	return s.Store.Get(r.Context(), claims.SessionID)
}

// Require validates the token and stashes the SessionState in ctx
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := s.Resolve(r)
		if err != nil {
			if s.Log != nil && !errors.Is(err, ErrInvalidToken) && !errors.Is(err, session.ErrNotFound) {
				s.Log.Error("session lookup failed", zap.Error(err))
			}
			writeError(w, http.StatusUnauthorized, "missing, invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), state)))
	})
}

// Optional attaches the session when a valid token is sent and passes the request on either way
func (s *Sessions) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if state, err := s.Resolve(r); err == nil {
			r = r.WithContext(WithSession(r.Context(), state))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin wraps a handler and ensures the session passed the credential gate.
// It must run after Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, ok := GetSession(r)
		if !ok || !state.IsAdmin {
			writeError(w, http.StatusUnauthorized, "admin login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession returns ctx carrying state
func WithSession(ctx context.Context, state models.SessionState) context.Context {
	return context.WithValue(ctx, sessionKey, state)
}

// GetSession pulls the SessionState out of the request context
func GetSession(r *http.Request) (models.SessionState, bool) {
	state, ok := r.Context().Value(sessionKey).(models.SessionState)
	return state, ok
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Extracts client IP from headers or remote addr
func getClientIP(r *http.Request) string {
	// Priority: X-Forwarded-For → X-Real-IP → RemoteAddr
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
