package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newMiddlewareFixture(t *testing.T) (*Issuer, *CredentialStore, http.Handler, *Identity) {
	t.Helper()
	issuer := NewIssuer("test-secret", time.Hour)
	store := NewCredentialStore(NewFlow("id", "secret", "http://localhost/cb").Config())

	var seen Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			t.Fatalf("identity missing from authenticated request")
		}
		seen = id
		w.WriteHeader(http.StatusOK)
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return issuer, store, Middleware(issuer, store, log)(inner), &seen
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	_, _, handler, _ := newMiddlewareFixture(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/emails", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	_, _, handler, _ := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/emails", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsTokenWithoutCredentials(t *testing.T) {
	issuer, _, handler, _ := newMiddlewareFixture(t)

	token, err := issuer.Issue("u@example.com", "U", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/emails", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("token without stored credentials must be rejected, got %d", rec.Code)
	}
}

func TestMiddlewarePassesValidRequest(t *testing.T) {
	issuer, store, handler, seen := newMiddlewareFixture(t)

	store.Put("u@example.com", &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)})
	token, err := issuer.Issue("u@example.com", "Ursula", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/emails", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen.Email != "u@example.com" || seen.Name != "Ursula" {
		t.Fatalf("unexpected identity %+v", *seen)
	}
}
