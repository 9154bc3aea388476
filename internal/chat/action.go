// Package chat contains the conversational core: extracting a structured
// action from free-form model output, tracking per-user session state, and
// executing actions against the mail and model collaborators.
package chat

// Kind names an action the model can request.
type Kind string

const (
	KindReadEmails    Kind = "read_emails"
	KindGenerateReply Kind = "generate_reply"
	KindSendReply     Kind = "send_reply"
	KindDeleteEmail   Kind = "delete_email"
	KindConfirm       Kind = "confirm"
)

const defaultReadCount = 5

// Action is the decoded action block from a model reply. Exactly one kind
// is meaningful per instance; the other fields are that kind's parameters.
// EmailIndex is 1-based as shown to the user — the 0-based conversion
// happens in the executor and nowhere else.
type Action struct {
	Kind              Kind   `json:"action"`
	Count             int    `json:"count,omitempty"`
	Query             string `json:"query,omitempty"`
	EmailIndex        int    `json:"email_index,omitempty"`
	CustomInstruction string `json:"custom_instruction,omitempty"`
	ReplyText         string `json:"reply_text,omitempty"`
	BySender          string `json:"by_sender,omitempty"`
	BySubject         string `json:"by_subject,omitempty"`
	Confirmed         bool   `json:"confirmed,omitempty"`
}

func (a *Action) applyDefaults() {
	if a.Kind == KindReadEmails && a.Count <= 0 {
		a.Count = defaultReadCount
	}
}
