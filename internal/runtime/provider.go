package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailmindhq/mailmind/internal/auth"
	"github.com/mailmindhq/mailmind/internal/mail"
	"github.com/mailmindhq/mailmind/internal/rate"
)

// UserClientProvider hands out per-user Gmail clients backed by the
// credential store's refreshing token sources.
type UserClientProvider struct {
	Creds   *auth.CredentialStore
	Limiter rate.Limiter
	Log     *slog.Logger
}

// ClientFor implements mail.Provider. Missing credentials surface as an
// auth-expired error so the transport can demand re-login.
func (p *UserClientProvider) ClientFor(ctx context.Context, userID string) (mail.Client, error) {
	ts, err := p.Creds.TokenSource(ctx, userID)
	if err != nil {
		return nil, err
	}
	svc, err := NewGmailService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("gmail service for %s: %w", userID, err)
	}
	return NewGoogleAPIClient(svc, p.Limiter, p.Log), nil
}

var _ mail.Provider = (*UserClientProvider)(nil)
