package mail

// Email is a snapshot of one message at fetch time. Summary and
// SuggestedReply start empty and are filled in by the assist pipeline;
// everything else is immutable after the fetch.
type Email struct {
	ID             string `json:"id"`
	ThreadID       string `json:"thread_id"`
	Sender         string `json:"sender"`
	SenderEmail    string `json:"sender_email"`
	Subject        string `json:"subject"`
	Snippet        string `json:"snippet"`
	Body           string `json:"body"`
	Date           string `json:"date"`
	Summary        string `json:"summary,omitempty"`
	SuggestedReply string `json:"suggested_reply,omitempty"`
}

// Outgoing describes a message to send. ThreadID and InReplyToID are set
// when the message is a reply; the provider copies the original message's
// Message-ID/References headers so threading survives.
type Outgoing struct {
	To          string
	Subject     string
	Body        string
	ThreadID    string
	InReplyToID string
}

// SendResult reports the provider-assigned id of a sent message.
type SendResult struct {
	MessageID string `json:"message_id"`
}
