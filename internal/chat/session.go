package chat

import (
	"sync"

	"github.com/mailmindhq/mailmind/internal/mail"
)

// Session is one user's volatile chat state: the working set (the most
// recently fetched email list, referenced by 1-based indices in
// conversation) and at most one pending action awaiting confirmation.
// Lives in process memory only; a restart drops everything.
type Session struct {
	mu      sync.Mutex // guards emails and pending
	turn    sync.Mutex // serializes whole chat turns for this user
	emails  []mail.Email
	pending *Action
}

// LockTurn serializes chat turns: two simultaneous requests from the same
// user would otherwise race on the pending action and working set.
func (s *Session) LockTurn()   { s.turn.Lock() }
func (s *Session) UnlockTurn() { s.turn.Unlock() }

// Emails returns a copy of the working set.
func (s *Session) Emails() []mail.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mail.Email, len(s.emails))
	copy(out, s.emails)
	return out
}

// SetEmails replaces the working set wholesale. Reads never merge.
func (s *Session) SetEmails(emails []mail.Email) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = emails
}

// Pending returns the pending action, or nil.
func (s *Session) Pending() *Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetPending stores (or, with nil, clears) the pending action.
func (s *Session) SetPending(a *Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = a
}

// SetSuggestedReply attaches a drafted reply to the working-set email at
// the given 0-based index.
func (s *Session) SetSuggestedReply(idx int, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < len(s.emails) {
		s.emails[idx].SuggestedReply = reply
	}
}

// RemoveEmail filters one id out of the working set, keeping order.
func (s *Session) RemoveEmail(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.emails[:0]
	for _, e := range s.emails {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.emails = kept
}

// Store keeps sessions keyed by authenticated user id (the mail account
// address). Sessions are created lazily and dropped on logout.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Session returns the user's session, creating an empty one on first use.
func (s *Store) Session(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	return sess
}

// Clear drops the user's session entirely.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
