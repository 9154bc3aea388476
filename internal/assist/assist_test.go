package assist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mailmindhq/mailmind/internal/llm"
	"github.com/mailmindhq/mailmind/internal/mail"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(ctx context.Context, msgs []llm.Message, temperature float64, maxTokens int) (string, error) {
	_ = ctx
	_ = temperature
	_ = maxTokens
	if len(msgs) > 0 {
		f.prompts = append(f.prompts, msgs[len(msgs)-1].Content)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSummarize(t *testing.T) {
	model := &fakeLLM{response: "  A short summary.  "}
	svc := NewService(model, slogDiscard())

	got := svc.Summarize(context.Background(), mail.Email{
		Sender: "Ada", SenderEmail: "ada@example.com", Subject: "Notes", Body: "Long body text",
	})
	if got != "A short summary." {
		t.Fatalf("unexpected summary %q", got)
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], "Subject: Notes") {
		t.Fatalf("prompt missing email fields: %v", model.prompts)
	}
}

func TestSummarizeFallsBackToSnippet(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    string
	}{
		{
			name:    "short-snippet",
			snippet: "quick note",
			want:    "quick note",
		},
		{
			name:    "long-snippet-truncated",
			snippet: strings.Repeat("x", 250),
			want:    strings.Repeat("x", 200) + "...",
		},
		{
			// a rune straddling the cut point must be dropped whole
			name:    "multibyte-snippet-trims-to-rune-boundary",
			snippet: strings.Repeat("a", 199) + "日日",
			want:    strings.Repeat("a", 199) + "...",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeLLM{err: errors.New("model down")}, slogDiscard())
			got := svc.Summarize(context.Background(), mail.Email{Snippet: tc.snippet})
			if got != tc.want {
				t.Fatalf("unexpected fallback %q", got)
			}
		})
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	if got := truncate("héllo", 2); got != "h" {
		t.Fatalf("expected cut before the split rune, got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short strings must pass through, got %q", got)
	}
	if got := truncate("日本語", 6); got != "日本" {
		t.Fatalf("expected clean two-rune cut, got %q", got)
	}
}

func TestDraftReply(t *testing.T) {
	model := &fakeLLM{response: "Thanks for reaching out."}
	svc := NewService(model, slogDiscard())

	got, err := svc.DraftReply(context.Background(), mail.Email{Sender: "Ada", Subject: "Notes"}, "keep it brief")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Thanks for reaching out." {
		t.Fatalf("unexpected reply %q", got)
	}
	if !strings.Contains(model.prompts[0], "keep it brief") {
		t.Fatalf("custom instruction missing from prompt")
	}
}

func TestDraftReplyDefaultInstruction(t *testing.T) {
	model := &fakeLLM{response: "ok"}
	svc := NewService(model, slogDiscard())

	if _, err := svc.DraftReply(context.Background(), mail.Email{}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(model.prompts[0], "professional and helpful reply") {
		t.Fatalf("default instruction missing from prompt")
	}
}

func TestDraftReplyError(t *testing.T) {
	svc := NewService(&fakeLLM{err: errors.New("model down")}, slogDiscard())
	if _, err := svc.DraftReply(context.Background(), mail.Email{}, ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     map[string][]int
	}{
		{
			name:     "clean-json",
			response: `{"Work": [1, 3], "Promotions": [2]}`,
			want:     map[string][]int{"Work": {1, 3}, "Promotions": {2}},
		},
		{
			name:     "json-wrapped-in-prose",
			response: `Here you go: {"Urgent": [1]} Hope that helps!`,
			want:     map[string][]int{"Urgent": {1}},
		},
		{
			name:     "no-json",
			response: "I could not categorize these.",
			want:     map[string][]int{},
		},
		{
			name:     "invalid-json",
			response: `{"Work": "one"}`,
			want:     map[string][]int{},
		},
		{
			name: "model-error",
			err:  errors.New("model down"),
			want: map[string][]int{},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeLLM{response: tc.response, err: tc.err}, slogDiscard())
			got := svc.Categorize(context.Background(), []mail.Email{{Sender: "A", Subject: "S"}})
			if len(got) != len(tc.want) {
				t.Fatalf("unexpected categories %v, want %v", got, tc.want)
			}
			for cat, idxs := range tc.want {
				if len(got[cat]) != len(idxs) {
					t.Fatalf("category %s mismatch: got %v want %v", cat, got[cat], idxs)
				}
				for i, v := range idxs {
					if got[cat][i] != v {
						t.Fatalf("category %s mismatch: got %v want %v", cat, got[cat], idxs)
					}
				}
			}
		})
	}
}

func TestDigest(t *testing.T) {
	model := &fakeLLM{response: "Your inbox is calm today."}
	svc := NewService(model, slogDiscard())

	got, err := svc.Digest(context.Background(), []mail.Email{
		{Sender: "Ada", Subject: "Notes", Snippet: "some preview"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Your inbox is calm today." {
		t.Fatalf("unexpected digest %q", got)
	}
	if !strings.Contains(model.prompts[0], "Subject: Notes") {
		t.Fatalf("digest prompt missing email line")
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
