package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mailmindhq/mailmind/internal/mail"
)

// maxReadCount caps one fetch regardless of what the model asked for.
const maxReadCount = 20

const (
	confirmPrompt      = "Are you sure you want to delete this email? Reply 'yes' to confirm or 'no' to cancel."
	missingEmailNote   = "\n\nI couldn't find that email. Please fetch emails first with 'show my emails'."
	cannotSendNote     = "\n\nI couldn't send the reply. Please make sure the email exists and the reply is provided."
	actionFailedPrefix = "\n\nAction failed: "
)

// execute dispatches one parsed action against the user's session. msg is
// the model's display text; most branches return it unchanged or with an
// addendum. The returned error is reserved for infrastructure failures
// (expired credentials) that must surface at the transport boundary —
// every other collaborator failure degrades to an inline warning.
func (s *Service) execute(ctx context.Context, userID string, sess *Session, act *Action, pending *Action, msg string) (string, map[string]any, error) {
	switch act.Kind {
	case KindReadEmails:
		s.supersedePending(sess, pending)
		return s.executeRead(ctx, userID, sess, act, msg)

	case KindGenerateReply:
		s.supersedePending(sess, pending)
		return s.executeGenerateReply(ctx, sess, act, msg)

	case KindSendReply:
		s.supersedePending(sess, pending)
		return s.executeSendReply(ctx, userID, sess, act, msg)

	case KindDeleteEmail:
		if pending == nil || pending.Kind != KindDeleteEmail {
			// First pass: no destructive call. Store the request and ask.
			sess.SetPending(act)
			return confirmPrompt, nil, nil
		}
		// A delete re-issued while one is pending counts as confirmation;
		// the re-issued action's target wins.
		return s.executeDelete(ctx, userID, sess, act, msg)

	case KindConfirm:
		// Pending state never survives a confirm, whatever the outcome.
		defer sess.SetPending(nil)
		if act.Confirmed && pending != nil && pending.Kind == KindDeleteEmail {
			// delete_email is the only confirmable kind; confirming anything
			// else just clears it below.
			return s.executeDelete(ctx, userID, sess, pending, msg)
		}
		return msg, nil, nil

	default:
		s.Logger.Warn("ignoring unknown action kind", "user", userID, "kind", act.Kind)
		return msg, nil, nil
	}
}

// supersedePending silently drops a pending action when a different action
// kind arrives; the pending operation is never executed.
func (s *Service) supersedePending(sess *Session, pending *Action) {
	if pending != nil {
		sess.SetPending(nil)
	}
}

func (s *Service) executeRead(ctx context.Context, userID string, sess *Session, act *Action, msg string) (string, map[string]any, error) {
	client, err := s.Mail.ClientFor(ctx, userID)
	if err != nil {
		return s.actionErr(msg, err)
	}
	count := act.Count
	if count > maxReadCount {
		count = maxReadCount
	}
	emails, err := client.List(ctx, count, act.Query)
	if err != nil {
		return s.actionErr(msg, err)
	}
	// Summaries run strictly in order: the 1-based indices the user sees
	// must match the returned list.
	for i := range emails {
		emails[i].Summary = s.Assist.Summarize(ctx, emails[i])
	}
	sess.SetEmails(emails)
	return msg, map[string]any{"emails": emails}, nil
}

func (s *Service) executeGenerateReply(ctx context.Context, sess *Session, act *Action, msg string) (string, map[string]any, error) {
	emails := sess.Emails()
	idx := act.EmailIndex - 1
	if idx < 0 || idx >= len(emails) {
		return msg + missingEmailNote, nil, nil
	}
	target := emails[idx]
	reply, err := s.Assist.DraftReply(ctx, target, act.CustomInstruction)
	if err != nil {
		return s.actionErr(msg, err)
	}
	sess.SetSuggestedReply(idx, reply)
	target.SuggestedReply = reply
	return msg, map[string]any{"email": target, "suggested_reply": reply}, nil
}

func (s *Service) executeSendReply(ctx context.Context, userID string, sess *Session, act *Action, msg string) (string, map[string]any, error) {
	emails := sess.Emails()
	idx := act.EmailIndex - 1
	if idx < 0 || idx >= len(emails) || strings.TrimSpace(act.ReplyText) == "" {
		return msg + cannotSendNote, nil, nil
	}
	target := emails[idx]
	client, err := s.Mail.ClientFor(ctx, userID)
	if err != nil {
		return s.actionErr(msg, err)
	}
	res, err := client.Send(ctx, mail.Outgoing{
		To:          target.SenderEmail,
		Subject:     "Re: " + target.Subject,
		Body:        act.ReplyText,
		ThreadID:    target.ThreadID,
		InReplyToID: target.ID,
	})
	if err != nil {
		return s.actionErr(msg, err)
	}
	return fmt.Sprintf("Reply sent to %s.", target.Sender),
		map[string]any{"sent": true, "message_id": res.MessageID}, nil
}

// executeDelete performs the confirmed deletion: trash the target, filter
// it out of the working set, clear the pending action.
func (s *Service) executeDelete(ctx context.Context, userID string, sess *Session, act *Action, msg string) (string, map[string]any, error) {
	defer sess.SetPending(nil)

	emails := sess.Emails()
	idx, ok := resolveDeleteTarget(act, emails)
	if !ok {
		return msg + missingEmailNote, nil, nil
	}
	target := emails[idx]

	client, err := s.Mail.ClientFor(ctx, userID)
	if err != nil {
		return s.actionErr(msg, err)
	}
	if err := client.Trash(ctx, target.ID); err != nil {
		return s.actionErr(msg, err)
	}
	sess.RemoveEmail(target.ID)
	s.Logger.Info("email trashed", "user", userID, "email", target.ID)
	return fmt.Sprintf("Email from %s has been moved to trash.", target.Sender),
		map[string]any{"deleted": true, "email_id": target.ID}, nil
}

// resolveDeleteTarget maps a delete action onto a 0-based working-set
// index: explicit index first, then first sender match, then first
// subject match.
func resolveDeleteTarget(act *Action, emails []mail.Email) (int, bool) {
	if act.EmailIndex > 0 {
		idx := act.EmailIndex - 1
		if idx < len(emails) {
			return idx, true
		}
		return 0, false
	}
	if act.BySender != "" {
		needle := strings.ToLower(act.BySender)
		for i, e := range emails {
			if strings.Contains(strings.ToLower(e.SenderEmail), needle) ||
				strings.Contains(strings.ToLower(e.Sender), needle) {
				return i, true
			}
		}
	}
	if act.BySubject != "" {
		needle := strings.ToLower(act.BySubject)
		for i, e := range emails {
			if strings.Contains(strings.ToLower(e.Subject), needle) {
				return i, true
			}
		}
	}
	return 0, false
}

// actionErr decides an execution error's fate: expired credentials
// propagate so the transport can demand re-authentication; everything else
// becomes a visible warning and the turn still succeeds.
func (s *Service) actionErr(msg string, err error) (string, map[string]any, error) {
	if errors.Is(err, mail.ErrAuthExpired) {
		return "", nil, err
	}
	s.Logger.Error("action execution failed", "error", err)
	return msg + actionFailedPrefix + err.Error(), nil, nil
}
