package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// KeyAuth guards report endpoints with a shared API key. The key is checked
// against a bcrypt hash; once a key verifies, its SHA-256 digest is
// remembered so later requests skip the bcrypt cost.
type KeyAuth struct {
	hash     []byte
	verified atomic.Pointer[[sha256.Size]byte]
}

// NewKeyAuth creates a KeyAuth. A nil or empty hash disables the check.
func NewKeyAuth(hash []byte) *KeyAuth {
	return &KeyAuth{hash: hash}
}

// Enabled reports whether an API key is required
func (a *KeyAuth) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Verify checks a presented key
func (a *KeyAuth) Verify(key string) bool {
	if !a.Enabled() {
		return true
	}
	if key == "" {
		return false
	}
	sum := sha256.Sum256([]byte(key))
	if known := a.verified.Load(); known != nil {
		if subtle.ConstantTimeCompare(known[:], sum[:]) == 1 {
			return true
		}
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(key)) != nil {
		return false
	}
	a.verified.Store(&sum)
	return true
}

// KeyFromRequest extracts the API key from X-API-Key or a Bearer token
func KeyFromRequest(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireKey wraps a handler to reject requests without a valid key
func (a *KeyAuth) RequireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Verify(KeyFromRequest(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="store-monitor"`)
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "a valid API key is required",
			})
			return
		}
		next(w, r)
	}
}
