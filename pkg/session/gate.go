package session

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Gate compares submitted credentials with one statically configured pair.
// It is a shared secret, not a security boundary: no lockout, no rate limit.
type Gate struct {
	username string
	password string
	hashed   bool
}

// NewGate configures the admin pair. A blank username accepts any username;
// a password starting with $2a$, $2b$ or $2y$ is treated as a bcrypt hash.
func NewGate(username, password string) *Gate {
	hashed := strings.HasPrefix(password, "$2a$") ||
		strings.HasPrefix(password, "$2b$") ||
		strings.HasPrefix(password, "$2y$")
	return &Gate{username: username, password: password, hashed: hashed}
}

// Authenticate reports whether the pair matches
func (g *Gate) Authenticate(username, password string) bool {
	if g.password == "" {
		return false
	}
	if g.username != "" && subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) != 1 {
		return false
	}
	if g.hashed {
		return bcrypt.CompareHashAndPassword([]byte(g.password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
}
