package mail

import "errors"

// Sentinel errors the core distinguishes. Everything else from a provider
// is treated as a generic failure and surfaced inline in the chat reply.
var (
	// ErrAuthExpired means the user's credentials are gone or revoked and
	// the request must re-authenticate. This is the one error category that
	// propagates out of the chat turn.
	ErrAuthExpired = errors.New("mail: authentication expired")

	// ErrNotFound means the referenced message does not exist (anymore).
	ErrNotFound = errors.New("mail: message not found")
)
