package chat

import "investchat/internal/models"

// Transcript is the ordered, append-only message history of one session.
// Index 0 always holds the system message.
type Transcript struct {
	messages []models.Message
}

// NewTranscript seeds a transcript with the system prompt.
func NewTranscript(systemPrompt string) *Transcript {
	return &Transcript{
		messages: []models.Message{{Role: models.RoleSystem, Content: systemPrompt}},
	}
}

// Append adds a message at the end.
func (t *Transcript) Append(role models.Role, content string) {
	t.messages = append(t.messages, models.Message{Role: role, Content: content})
}

// Messages returns a copy of the whole transcript, system message included.
func (t *Transcript) Messages() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Visible returns a copy of every message after the system message.
func (t *Transcript) Visible() []models.Message {
	out := make([]models.Message, len(t.messages)-1)
	copy(out, t.messages[1:])
	return out
}

// Len counts all messages, system message included.
func (t *Transcript) Len() int {
	return len(t.messages)
}
