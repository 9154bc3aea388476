package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// stateTTL bounds how long an issued OAuth state nonce stays redeemable.
const stateTTL = 10 * time.Minute

// UserProfile is what Google tells us about the authenticated account.
type UserProfile struct {
	Email   string
	Name    string
	Picture string
}

// Flow drives the Google OAuth web code flow with Gmail permissions.
type Flow struct {
	cfg *oauth2.Config

	mu     sync.Mutex
	states map[string]time.Time
}

// NewFlow configures the code flow for this deployment's client.
func NewFlow(clientID, clientSecret, redirectURL string) *Flow {
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				gmail.GmailReadonlyScope,
				gmail.GmailSendScope,
				gmail.GmailModifyScope,
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				"openid",
			},
			Endpoint: google.Endpoint,
		},
		states: make(map[string]time.Time),
	}
}

// Config exposes the underlying oauth2 config for token sources.
func (f *Flow) Config() *oauth2.Config { return f.cfg }

// AuthURL issues a fresh state nonce and the consent URL to redirect the
// user to. Offline access + forced consent so we always get a refresh token.
func (f *Flow) AuthURL() (url, state string) {
	state = uuid.NewString()

	f.mu.Lock()
	now := time.Now()
	for s, issued := range f.states {
		if now.Sub(issued) > stateTTL {
			delete(f.states, s)
		}
	}
	f.states[state] = now
	f.mu.Unlock()

	return f.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), state
}

// Exchange redeems the callback code, verifying the state nonce first.
func (f *Flow) Exchange(ctx context.Context, state, code string) (*oauth2.Token, error) {
	f.mu.Lock()
	issued, ok := f.states[state]
	delete(f.states, state)
	f.mu.Unlock()
	if !ok || time.Since(issued) > stateTTL {
		return nil, fmt.Errorf("unknown or expired oauth state")
	}

	token, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// UserInfo fetches the account's email, name, and picture.
func (f *Flow) UserInfo(ctx context.Context, token *oauth2.Token) (UserProfile, error) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(f.cfg.TokenSource(ctx, token)))
	if err != nil {
		return UserProfile{}, fmt.Errorf("userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return UserProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	return UserProfile{Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}
