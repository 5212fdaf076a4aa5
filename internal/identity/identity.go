// Package identity resolves the acting user for incoming requests.
// Production trusts only session tokens; development may fall back to
// a trusted header so the desktop shell works without a login flow.
package identity

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
)

// ErrUnauthenticated means no identity could be resolved.
var ErrUnauthenticated = errors.New("no user identity resolved")

// Resolver extracts a non-empty user id from a request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

var unsafeUserIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// NormalizeUserID reduces a raw identity to a storage-safe id. Returns
// "" when nothing usable remains.
func NormalizeUserID(raw string) string {
	cleaned := unsafeUserIDChars.ReplaceAllString(strings.TrimSpace(raw), "_")
	cleaned = strings.Trim(cleaned, "_")
	if len(cleaned) > 128 {
		cleaned = cleaned[:128]
	}
	return cleaned
}

// SessionResolver maps bearer session tokens to user ids.
type SessionResolver struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewSessionResolver returns an empty token registry.
func NewSessionResolver() *SessionResolver {
	return &SessionResolver{tokens: make(map[string]string)}
}

// Grant registers a session token for a user.
func (s *SessionResolver) Grant(token, userID string) {
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
}

// Revoke removes a session token.
func (s *SessionResolver) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// Resolve reads "Authorization: Bearer <token>" and looks the token up.
func (s *SessionResolver) Resolve(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrUnauthenticated
	}

	s.mu.RLock()
	userID, found := s.tokens[strings.TrimSpace(token)]
	s.mu.RUnlock()

	userID = NormalizeUserID(userID)
	if !found || userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// HeaderResolver trusts a caller-supplied header. Wired only when
// APP_ENV is not production; the production build path constructs a
// SessionResolver instead.
type HeaderResolver struct {
	Header string
}

// NewHeaderResolver trusts the given header, defaulting to X-User-Id.
func NewHeaderResolver(header string) *HeaderResolver {
	if header == "" {
		header = "X-User-Id"
	}
	return &HeaderResolver{Header: header}
}

// Resolve returns the normalized header value.
func (h *HeaderResolver) Resolve(r *http.Request) (string, error) {
	userID := NormalizeUserID(r.Header.Get(h.Header))
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}
