// Package server is the HTTP transport: routing, request decoding, and the
// mapping from core errors to status codes.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mailmindhq/mailmind/internal/assist"
	"github.com/mailmindhq/mailmind/internal/auth"
	"github.com/mailmindhq/mailmind/internal/chat"
	"github.com/mailmindhq/mailmind/internal/mail"
)

const version = "1.0.0"

// Server bundles the collaborators the handlers need.
type Server struct {
	Chat     *chat.Service
	Assist   *assist.Service
	Mail     mail.Provider
	Sessions *chat.Store
	Flow     *auth.Flow
	JWT      *auth.Issuer
	Creds    *auth.CredentialStore
	Log      *slog.Logger

	FrontendURL string
	Environment string
}

// Router assembles the full route tree. Auth-only routes sit behind the
// bearer middleware; the OAuth endpoints stay public.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.FrontendURL, "http://localhost:3000", "http://127.0.0.1:3000", "https://*.vercel.app"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/auth/login", s.handleLogin)
	r.Get("/auth/callback", s.handleCallback)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.JWT, s.Creds, s.Log))
		r.Get("/auth/me", s.handleMe)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/emails", s.handleListEmails)
		r.Get("/emails/{id}", s.handleGetEmail)
		r.Post("/emails/send", s.handleSendEmail)
		r.Delete("/emails/{id}", s.handleDeleteEmail)
		r.Post("/emails/{id}/generate-reply", s.handleGenerateReply)
		r.Post("/chat", s.handleChat)
		r.Post("/chat/digest", s.handleDigest)
		r.Post("/chat/categorize", s.handleCategorize)
	})
	return r
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondErr maps core error categories onto HTTP statuses: expired
// credentials demand re-authentication, missing messages are 404s, and
// everything else is a generic 500 with the error text as detail.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mail.ErrAuthExpired):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Session expired. Please log in again."})
	case errors.Is(err, mail.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Email not found"})
	default:
		s.Log.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
	}
}
