package mail

import "context"

// Client is the narrow mail-provider surface the assistant needs.
type Client interface {
	// List returns up to maxResults inbox messages, newest first. query is
	// an optional provider search expression.
	List(ctx context.Context, maxResults int, query string) ([]Email, error)
	// Get fetches one message by id. Returns ErrNotFound if it no longer exists.
	Get(ctx context.Context, id string) (Email, error)
	// Send delivers msg and returns the new message id.
	Send(ctx context.Context, msg Outgoing) (SendResult, error)
	// Trash moves a message to the trash (soft delete).
	Trash(ctx context.Context, id string) error
}

// Provider hands out a mail client bound to one authenticated user.
type Provider interface {
	ClientFor(ctx context.Context, userID string) (Client, error)
}
