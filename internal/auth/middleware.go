package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Identity is the authenticated caller, injected into request contexts by
// Middleware. Email doubles as the session key.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

type contextKey int

const identityKey contextKey = iota

// IdentityFrom extracts the authenticated identity from a request context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Middleware authenticates requests: a valid bearer JWT is required, and
// the user must still have Google credentials stored — a verified token
// whose credentials were dropped (logout, restart) means re-login.
func Middleware(issuer *Issuer, creds *CredentialStore, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "Missing bearer token")
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				log.Warn("token verification failed", "error", err)
				unauthorized(w, "Invalid or expired token. Please log in again.")
				return
			}
			if !creds.Has(claims.Subject) {
				unauthorized(w, "Session expired. Please log in again.")
				return
			}
			id := Identity{Email: claims.Subject, Name: claims.Name, Picture: claims.Picture}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
