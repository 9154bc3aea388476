package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/mailmindhq/mailmind/internal/mail"
)

// CredentialStore holds each user's Google OAuth token in process memory.
// Volatile by design: a restart logs everyone out. A durable backend can
// replace this without touching callers.
type CredentialStore struct {
	cfg *oauth2.Config

	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

// NewCredentialStore builds an empty store bound to the flow's client
// config, which supplies refresh behavior for token sources.
func NewCredentialStore(cfg *oauth2.Config) *CredentialStore {
	return &CredentialStore{cfg: cfg, tokens: make(map[string]*oauth2.Token)}
}

// Put stores (or replaces) a user's token.
func (c *CredentialStore) Put(email string, token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[email] = token
}

// Has reports whether credentials exist for the user.
func (c *CredentialStore) Has(email string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tokens[email]
	return ok
}

// Remove drops a user's credentials (logout).
func (c *CredentialStore) Remove(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, email)
}

// TokenSource returns a refreshing token source for the user, or an
// auth-expired error when nothing is stored.
func (c *CredentialStore) TokenSource(ctx context.Context, email string) (oauth2.TokenSource, error) {
	c.mu.Lock()
	token, ok := c.tokens[email]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no credentials for %s: %w", email, mail.ErrAuthExpired)
	}
	return c.cfg.TokenSource(ctx, token), nil
}
