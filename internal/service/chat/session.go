package chat

import (
	"sync"
	"time"

	"investchat/internal/faq"
	"investchat/internal/models"
)

// Session is the state of one visitor conversation. Turns on a session are
// serialized; sessions share nothing mutable.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	transcript  *Transcript
	faq         *faq.Matcher
	formPending bool
}

func newSession(id, systemPrompt string, matcher *faq.Matcher) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		transcript: NewTranscript(systemPrompt),
		faq:        matcher,
	}
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID          string           `json:"session_id"`
	CreatedAt   time.Time        `json:"created_at"`
	Messages    []models.Message `json:"messages"`
	FormPending bool             `json:"form_pending"`
}

// Snapshot returns the visible transcript and form state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		Messages:    s.transcript.Visible(),
		FormPending: s.formPending,
	}
}

// Transcript returns a copy of the full transcript, system message included.
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// FormPending reports whether the contract form should be shown.
func (s *Session) FormPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formPending
}

// CompleteForm leaves form pending mode.
func (s *Session) CompleteForm() {
	s.mu.Lock()
	s.formPending = false
	s.mu.Unlock()
}
