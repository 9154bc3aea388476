// Package assist implements the per-email AI operations: short summaries,
// reply drafting, inbox digests, and categorization.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mailmindhq/mailmind/internal/llm"
	"github.com/mailmindhq/mailmind/internal/mail"
)

const (
	summaryBodyLimit = 2000
	replyBodyLimit   = 3000
	snippetFallback  = 200
)

// jsonObjectPattern finds a flat JSON object in model output; used by
// Categorize, which asks the model for a category map.
var jsonObjectPattern = regexp.MustCompile(`\{[^{}]+\}`)

// Service runs prompt-driven operations against the model collaborator.
type Service struct {
	LLM    llm.Client
	Logger *slog.Logger
}

// NewService constructs a Service with a usable logger.
func NewService(client llm.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{LLM: client, Logger: logger}
}

// Summarize produces a one/two-sentence summary of an email. A model
// failure degrades to a truncated snippet: one broken summary must never
// abort a whole inbox fetch.
func (s *Service) Summarize(ctx context.Context, e mail.Email) string {
	prompt := fmt.Sprintf(`Summarize this email in 1-2 sentences. Be concise and capture the key point.

From: %s <%s>
Subject: %s
Content: %s

Summary:`, e.Sender, e.SenderEmail, e.Subject, truncate(e.Body, summaryBodyLimit))

	out, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, 0.3, 150)
	if err != nil {
		s.Logger.Warn("summary failed, falling back to snippet", "email", e.ID, "error", err)
		if len(e.Snippet) > snippetFallback {
			return truncate(e.Snippet, snippetFallback) + "..."
		}
		return e.Snippet
	}
	return strings.TrimSpace(out)
}

// DraftReply generates a reply body for an email, optionally steered by a
// user instruction.
func (s *Service) DraftReply(ctx context.Context, e mail.Email, instruction string) (string, error) {
	if instruction == "" {
		instruction = "Write a professional and helpful reply."
	}
	prompt := fmt.Sprintf(`Generate a reply to this email. %s

Original Email:
From: %s <%s>
Subject: %s
Content: %s

Requirements:
- Be professional and courteous
- Address the main points of the email
- Keep it concise but complete
- Match the tone of the original (formal/casual)
- Do not include subject line, just the body

Reply:`, instruction, e.Sender, e.SenderEmail, e.Subject, truncate(e.Body, replyBodyLimit))

	out, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, 0.7, 500)
	if err != nil {
		return "", fmt.Errorf("draft reply: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Digest writes a short daily overview of the given emails.
func (s *Service) Digest(ctx context.Context, emails []mail.Email) (string, error) {
	var lines []string
	for _, e := range emails {
		lines = append(lines, fmt.Sprintf("- From: %s\n  Subject: %s\n  Preview: %s",
			e.Sender, e.Subject, truncate(e.Snippet, 100)))
	}
	prompt := fmt.Sprintf(`Create a concise daily email digest from these emails. Include:
1. A brief overview of email activity
2. Key emails that need attention
3. Suggested actions or follow-ups

Emails:
%s

Daily Digest:`, strings.Join(lines, "\n"))

	out, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, 0.7, 600)
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Categorize groups emails into named buckets of 1-based indices. Failures
// (model error, unparseable output) yield an empty map, never an error —
// categorization is decoration, not a gate.
func (s *Service) Categorize(ctx context.Context, emails []mail.Email) map[string][]int {
	var lines []string
	for i, e := range emails {
		lines = append(lines, fmt.Sprintf("%d. From: %s, Subject: %s", i+1, e.Sender, e.Subject))
	}
	prompt := fmt.Sprintf(`Categorize these emails into groups: Work, Personal, Promotions, Urgent, Other.

Emails:
%s

Return a JSON object with category names as keys and arrays of email numbers as values.
Example: {"Work": [1, 3], "Promotions": [2], "Personal": [4, 5]}

Categories:`, strings.Join(lines, "\n"))

	out, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, 0.3, 200)
	if err != nil {
		s.Logger.Warn("categorize failed", "error", err)
		return map[string][]int{}
	}
	match := jsonObjectPattern.FindString(out)
	if match == "" {
		return map[string][]int{}
	}
	categories := map[string][]int{}
	if err := json.Unmarshal([]byte(match), &categories); err != nil {
		s.Logger.Warn("categorize returned unparseable JSON", "error", err)
		return map[string][]int{}
	}
	return categories
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
