package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mailmindhq/mailmind/internal/auth"
	"github.com/mailmindhq/mailmind/internal/llm"
	"github.com/mailmindhq/mailmind/internal/mail"
)

const (
	// defaultInboxFetch is how many messages a list request pulls when the
	// caller gives no count.
	defaultInboxFetch = 5
	// maxInboxFetch caps how many messages a single request may pull.
	maxInboxFetch = 20
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"name":    "MailMind API",
		"version": version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"environment": s.Environment,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, _ := s.Flow.AuthURL()
	respondJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

// handleCallback finishes the OAuth dance and bounces the browser back to
// the frontend: success lands on /auth/success with the session token in
// the query, failure on /login with an error code.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		s.redirectLoginError(w, r, "missing_code")
		return
	}

	token, err := s.Flow.Exchange(r.Context(), state, code)
	if err != nil {
		s.Log.Warn("oauth exchange failed", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}
	profile, err := s.Flow.UserInfo(r.Context(), token)
	if err != nil {
		s.Log.Warn("userinfo fetch failed", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}

	s.Creds.Put(profile.Email, token)
	jwt, err := s.JWT.Issue(profile.Email, profile.Name, profile.Picture)
	if err != nil {
		s.Log.Error("token issue failed", "error", err)
		s.redirectLoginError(w, r, "auth_failed")
		return
	}

	q := url.Values{}
	q.Set("token", jwt)
	q.Set("name", profile.Name)
	q.Set("email", profile.Email)
	q.Set("picture", profile.Picture)
	http.Redirect(w, r, s.FrontendURL+"/auth/success?"+q.Encode(), http.StatusTemporaryRedirect)
}

func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, s.FrontendURL+"/login?error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	respondJSON(w, http.StatusOK, id)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	s.Creds.Remove(id.Email)
	s.Sessions.Clear(id.Email)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleListEmails fetches recent inbox messages, summarizes each, and
// replaces the user's working set so chat indices line up with what the
// frontend shows.
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	count := defaultInboxFetch
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "count must be a positive integer"})
			return
		}
		count = n
	}
	if count > maxInboxFetch {
		count = maxInboxFetch
	}
	query := r.URL.Query().Get("query")

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	emails, err := client.List(r.Context(), count, query)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	for i := range emails {
		emails[i].Summary = s.Assist.Summarize(r.Context(), emails[i])
	}
	s.Sessions.Session(id.Email).SetEmails(emails)

	respondJSON(w, http.StatusOK, map[string]any{
		"emails": emails,
		"count":  len(emails),
	})
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	email, err := client.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, email)
}

type sendRequest struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if req.To == "" || req.Body == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "to and body are required"})
		return
	}

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	res, err := client.Send(r.Context(), mail.Outgoing{
		To:          req.To,
		Subject:     req.Subject,
		Body:        req.Body,
		ThreadID:    req.ThreadID,
		InReplyToID: req.MessageID,
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "Email sent successfully",
		"message_id": res.MessageID,
	})
}

func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	emailID := chi.URLParam(r, "id")

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if err := client.Trash(r.Context(), emailID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.Sessions.Session(id.Email).RemoveEmail(emailID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Email moved to trash"})
}

type generateReplyRequest struct {
	CustomInstruction string `json:"custom_instruction"`
}

func (s *Server) handleGenerateReply(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req generateReplyRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
	}

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	email, err := client.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	reply, err := s.Assist.DraftReply(r.Context(), email, req.CustomInstruction)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"reply": reply,
		"email": email,
	})
}

type chatRequest struct {
	Message string `json:"message"`
	History []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"conversation_history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if req.Message == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "message is required"})
		return
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		role := llm.RoleUser
		if m.Role == "assistant" {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}

	reply, err := s.Chat.HandleTurn(r.Context(), id.Email, id.Name, req.Message, history)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// handleDigest pulls the latest inbox slice and turns it into an overview
// plus category buckets. The working set is not touched: a digest is a
// read-only report.
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	emails, err := client.List(r.Context(), maxInboxFetch, "")
	if err != nil {
		s.respondErr(w, err)
		return
	}
	digest, err := s.Assist.Digest(r.Context(), emails)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	categories := s.Assist.Categorize(r.Context(), emails)

	respondJSON(w, http.StatusOK, map[string]any{
		"digest":      digest,
		"categories":  categories,
		"email_count": len(emails),
	})
}

// handleCategorize fetches and summarizes the inbox, groups it, and makes
// the fetched slice the user's working set.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	client, err := s.Mail.ClientFor(r.Context(), id.Email)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	emails, err := client.List(r.Context(), maxInboxFetch, "")
	if err != nil {
		s.respondErr(w, err)
		return
	}
	for i := range emails {
		emails[i].Summary = s.Assist.Summarize(r.Context(), emails[i])
	}
	categories := s.Assist.Categorize(r.Context(), emails)
	s.Sessions.Session(id.Email).SetEmails(emails)

	respondJSON(w, http.StatusOK, map[string]any{
		"emails":     emails,
		"categories": categories,
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
