package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailmindhq/mailmind/internal/assist"
	"github.com/mailmindhq/mailmind/internal/llm"
	"github.com/mailmindhq/mailmind/internal/mail"
)

const defaultHistoryWindow = 10

// Reply is what one chat turn hands back to the transport layer.
type Reply struct {
	Message string         `json:"message"`
	Action  string         `json:"action,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Service orchestrates chat turns: prompt assembly, one model call, action
// extraction, action execution.
type Service struct {
	LLM      llm.Client
	Assist   *assist.Service
	Mail     mail.Provider
	Sessions *Store
	Logger   *slog.Logger

	// HistoryWindow bounds how many prior turns enter the prompt.
	HistoryWindow int
}

// NewService wires a chat service with defaults.
func NewService(llmClient llm.Client, assistSvc *assist.Service, provider mail.Provider, sessions *Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewStore()
	}
	return &Service{
		LLM:           llmClient,
		Assist:        assistSvc,
		Mail:          provider,
		Sessions:      sessions,
		Logger:        logger,
		HistoryWindow: defaultHistoryWindow,
	}
}

// HandleTurn processes one user message: it renders the session into the
// prompt, asks the model once, extracts an action if present, and executes
// it. Turns for the same user run one at a time.
func (s *Service) HandleTurn(ctx context.Context, userID, userName, message string, history []llm.Message) (Reply, error) {
	sess := s.Sessions.Session(userID)
	sess.LockTurn()
	defer sess.UnlockTurn()

	emails := sess.Emails()
	pending := sess.Pending()

	prompt := buildPrompt(userName, message, history, emails, pending, s.HistoryWindow)
	raw, err := s.LLM.Complete(ctx, prompt, 0.7, 1000)
	if err != nil {
		return Reply{}, fmt.Errorf("process chat message: %w", err)
	}

	display, action := Parse(raw)
	if action == nil {
		return Reply{Message: display}, nil
	}

	s.Logger.Info("executing action", "user", userID, "action", action.Kind)
	msg, data, err := s.execute(ctx, userID, sess, action, pending, display)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Message: msg, Action: string(action.Kind), Data: data}, nil
}
