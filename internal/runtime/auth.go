package runtime

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// NewGmailService builds a Gmail API service bound to one user's OAuth
// token source. The token source refreshes access tokens as needed.
func NewGmailService(ctx context.Context, ts oauth2.TokenSource) (*gmail.Service, error) {
	return gmail.NewService(ctx, option.WithTokenSource(ts))
}

// DefaultLogger is the process-wide slog setup: text to stderr at info.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
