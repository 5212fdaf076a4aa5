package identity

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeUserID(t *testing.T) {
	cases := map[string]string{
		"alice":                  "alice",
		"  alice  ":              "alice",
		"alice@example.com":      "alice_example_com",
		"___":                    "",
		"":                       "",
		"名前":                     "",
		"ok-name_123":            "ok-name_123",
		strings.Repeat("a", 200): strings.Repeat("a", 128),
	}

	for in, want := range cases {
		if got := NormalizeUserID(in); got != want {
			t.Fatalf("NormalizeUserID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSessionResolver(t *testing.T) {
	s := NewSessionResolver()
	s.Grant("tok-1", "alice")

	r := httptest.NewRequest("POST", "/api/chat/stream", nil)
	r.Header.Set("Authorization", "Bearer tok-1")

	userID, err := s.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if userID != "alice" {
		t.Fatalf("expected alice, got %q", userID)
	}

	s.Revoke("tok-1")
	if _, err := s.Resolve(r); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated after revoke, got %v", err)
	}
}

func TestSessionResolverRejects(t *testing.T) {
	s := NewSessionResolver()
	s.Grant("tok-1", "alice")

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic tok-1",
		"unknown token":  "Bearer nope",
		"empty token":    "Bearer   ",
	} {
		r := httptest.NewRequest("POST", "/api/chat/stream", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if _, err := s.Resolve(r); err != ErrUnauthenticated {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}

func TestHeaderResolver(t *testing.T) {
	h := NewHeaderResolver("")

	r := httptest.NewRequest("POST", "/api/chat/stream", nil)
	r.Header.Set("X-User-Id", "bob@dev")

	userID, err := h.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if userID != "bob_dev" {
		t.Fatalf("expected normalized id, got %q", userID)
	}

	r = httptest.NewRequest("POST", "/api/chat/stream", nil)
	if _, err := h.Resolve(r); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated without header, got %v", err)
	}
}
