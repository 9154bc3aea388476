// Package runtime adapts the Google API surface to the narrow interfaces
// the rest of the assistant consumes.
package runtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	nmail "net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/mailmindhq/mailmind/internal/mail"
	"github.com/mailmindhq/mailmind/internal/rate"
)

const (
	// bodyLimit bounds how much decoded text we keep per message; the model
	// prompts truncate further.
	bodyLimit = 5000

	// defaultCallTimeout applies when the caller supplied no deadline.
	defaultCallTimeout = 30 * time.Second
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

type googleClient struct {
	svc     *gmail.Service
	limiter rate.Limiter
	log     *slog.Logger
}

// NewGoogleAPIClient wraps a *gmail.Service in the mail.Client contract.
func NewGoogleAPIClient(svc *gmail.Service, limiter rate.Limiter, log *slog.Logger) mail.Client {
	if log == nil {
		log = DefaultLogger()
	}
	return &googleClient{svc: svc, limiter: limiter, log: log}
}

func (g *googleClient) List(ctx context.Context, maxResults int, query string) ([]mail.Email, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	if err := rate.WaitIfSet(ctx, g.limiter); err != nil {
		return nil, err
	}
	call := g.svc.Users.Messages.List("me").LabelIds("INBOX").MaxResults(int64(maxResults))
	if query != "" {
		call = call.Q(query)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, wrapGmailErr(err, "list messages")
	}

	emails := make([]mail.Email, 0, len(res.Messages))
	for _, ref := range res.Messages {
		if err := rate.WaitIfSet(ctx, g.limiter); err != nil {
			return nil, err
		}
		msg, err := g.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			// A single unreadable message should not abort the page.
			g.log.Warn("skipping unreadable message", "id", ref.Id, "error", err)
			continue
		}
		emails = append(emails, convertMessage(msg))
	}
	return emails, nil
}

func (g *googleClient) Get(ctx context.Context, id string) (mail.Email, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	if err := rate.WaitIfSet(ctx, g.limiter); err != nil {
		return mail.Email{}, err
	}
	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return mail.Email{}, wrapGmailErr(err, fmt.Sprintf("get message %s", id))
	}
	return convertMessage(msg), nil
}

func (g *googleClient) Send(ctx context.Context, out mail.Outgoing) (mail.SendResult, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	headers := map[string]string{
		"To":      out.To,
		"Subject": out.Subject,
	}
	if out.InReplyToID != "" {
		// Copy the original Message-ID/References so clients thread the reply.
		if err := rate.WaitIfSet(ctx, g.limiter); err != nil {
			return mail.SendResult{}, err
		}
		orig, err := g.svc.Users.Messages.Get("me", out.InReplyToID).
			Format("metadata").MetadataHeaders("Message-ID", "References").
			Context(ctx).Do()
		if err != nil {
			return mail.SendResult{}, wrapGmailErr(err, "get original message headers")
		}
		origHeaders := headerMap(orig)
		if mid := origHeaders["message-id"]; mid != "" {
			headers["In-Reply-To"] = mid
			headers["References"] = strings.TrimSpace(origHeaders["references"] + " " + mid)
		}
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(buildRawMessage(headers, out.Body))}
	if out.ThreadID != "" {
		msg.ThreadId = out.ThreadID
	}

	if err := rate.WaitIfSet(ctx, g.limiter); err != nil {
		return mail.SendResult{}, err
	}
	sent, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return mail.SendResult{}, wrapGmailErr(err, "send message")
	}
	g.log.Info("message sent", "id", sent.Id, "thread", sent.ThreadId)
	return mail.SendResult{MessageID: sent.Id}, nil
}

func (g *googleClient) Trash(ctx context.Context, id string) error {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	if err := rate.WaitIfSet(ctx, g.limiter); err != nil {
		return err
	}
	if _, err := g.svc.Users.Messages.Trash("me", id).Context(ctx).Do(); err != nil {
		return wrapGmailErr(err, fmt.Sprintf("trash message %s", id))
	}
	g.log.Info("message trashed", "id", id)
	return nil
}

func ensureDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultCallTimeout)
}

// wrapGmailErr maps Gmail API status codes onto the error categories the
// core distinguishes.
func wrapGmailErr(err error, op string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%s: %w", op, mail.ErrAuthExpired)
		case 404:
			return fmt.Errorf("%s: %w", op, mail.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// buildRawMessage assembles a minimal RFC 2822 text message.
func buildRawMessage(headers map[string]string, body string) []byte {
	var b strings.Builder
	order := []string{"To", "Subject", "In-Reply-To", "References"}
	for _, name := range order {
		if v := headers[name]; v != "" {
			fmt.Fprintf(&b, "%s: %s\r\n", name, v)
		}
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func headerMap(msg *gmail.Message) map[string]string {
	out := map[string]string{}
	if msg == nil || msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		out[strings.ToLower(h.Name)] = h.Value
	}
	return out
}

func convertMessage(msg *gmail.Message) mail.Email {
	headers := headerMap(msg)
	senderName, senderEmail := parseSender(headers["from"])

	subject := headers["subject"]
	if subject == "" {
		subject = "(No Subject)"
	}

	body := truncateBody(decodeBody(msg.Payload), bodyLimit)

	return mail.Email{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		Sender:      senderName,
		SenderEmail: senderEmail,
		Subject:     subject,
		Snippet:     msg.Snippet,
		Body:        body,
		Date:        headers["date"],
	}
}

// parseSender splits a From header into display name and address. Falls
// back to the raw header when it is not a valid RFC 5322 address.
func parseSender(from string) (name, addr string) {
	if from == "" {
		return "Unknown", "Unknown"
	}
	parsed, err := nmail.ParseAddress(from)
	if err != nil {
		return from, from
	}
	if parsed.Name != "" {
		return parsed.Name, parsed.Address
	}
	return parsed.Address, parsed.Address
}

// decodeBody extracts readable text from a message payload: the first
// text/plain part wins, then tag-stripped text/html, then a recursive walk
// into nested multiparts.
func decodeBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return strings.TrimSpace(decodeB64(payload.Body.Data))
	}

	var htmlFallback string
	for _, part := range payload.Parts {
		switch {
		case part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "":
			return strings.TrimSpace(decodeB64(part.Body.Data))
		case part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" && htmlFallback == "":
			htmlFallback = htmlTagPattern.ReplaceAllString(decodeB64(part.Body.Data), "")
		case len(part.Parts) > 0:
			if nested := decodeBody(part); nested != "" {
				return nested
			}
		}
	}
	return strings.TrimSpace(htmlFallback)
}

// truncateBody cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncateBody(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func decodeB64(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}
