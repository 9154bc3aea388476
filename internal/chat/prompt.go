package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mailmindhq/mailmind/internal/llm"
	"github.com/mailmindhq/mailmind/internal/mail"
)

// systemPrompt instructs the model how to converse and how to request
// actions. The JSON shapes here are the contract the parser relies on.
const systemPrompt = `You are an intelligent email assistant. You help users manage their Gmail inbox through natural conversation.

You can:
1. **Read emails**: Show the user their recent emails with AI-generated summaries
2. **Reply to emails**: Generate professional, context-aware replies
3. **Delete emails**: Help users delete specific emails by sender, subject, or reference number

When the user asks to perform an action, respond with a JSON action block that the system will execute.

Available actions and their JSON format:
- Read emails: {"action": "read_emails", "count": 5, "query": "optional search query"}
- Generate reply: {"action": "generate_reply", "email_index": 1, "custom_instruction": "optional user instruction"}
- Send reply: {"action": "send_reply", "email_index": 1, "reply_text": "the reply content"}
- Delete email: {"action": "delete_email", "email_index": 1} OR {"action": "delete_email", "by_sender": "sender@email.com"} OR {"action": "delete_email", "by_subject": "keyword"}
- Confirm action: {"action": "confirm", "confirmed": true/false}

IMPORTANT RULES:
1. For deletion, ALWAYS ask for confirmation first. Only include the actual delete action after user confirms.
2. When referencing emails, use 1-based indexing (Email 1, Email 2, etc.)
3. If the user's intent is unclear, ask for clarification.
4. Be conversational and helpful, not robotic.
5. When generating replies, match the tone of the original email.

If no action is needed (general chat), just respond naturally without a JSON block.`

// buildPrompt assembles the per-turn message list: system instructions,
// the working set, the pending action (if any), a bounded history window,
// then the new user message.
func buildPrompt(userName, userMessage string, history []llm.Message, emails []mail.Email, pending *Action, window int) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	if len(emails) > 0 {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: renderEmailContext(emails)})
	}

	if pending != nil {
		encoded, err := json.Marshal(pending)
		if err == nil {
			msgs = append(msgs, llm.Message{
				Role:    llm.RoleSystem,
				Content: fmt.Sprintf("PENDING ACTION AWAITING CONFIRMATION: %s\nIf user confirms, proceed. If user denies, cancel.", encoded),
			})
		}
	}

	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	msgs = append(msgs, history...)

	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("User (%s): %s", userName, userMessage),
	})
	return msgs
}

func renderEmailContext(emails []mail.Email) string {
	var b strings.Builder
	b.WriteString("Current emails in context:\n")
	for i, e := range emails {
		fmt.Fprintf(&b, "\nEmail %d:\n", i+1)
		fmt.Fprintf(&b, "  From: %s <%s>\n", e.Sender, e.SenderEmail)
		fmt.Fprintf(&b, "  Subject: %s\n", e.Subject)
		fmt.Fprintf(&b, "  Date: %s\n", e.Date)
		if e.Summary != "" {
			fmt.Fprintf(&b, "  Summary: %s\n", e.Summary)
		}
	}
	return b.String()
}
