// Package history records transcript messages in an append-only store.
package history

import (
	"context"
	"errors"
	"fmt"

	"investchat/internal/models"
)

var (
	ErrInvalidRole    = errors.New("invalid role")
	ErrMissingSession = errors.New("session_id is required")
)

// Recorder is the durable sink for transcript messages.
type Recorder interface {
	Record(ctx context.Context, sessionID string, role models.Role, content string) error
	Messages(ctx context.Context, sessionID string) ([]models.Message, error)
}

// PersistError reports a message the store failed to record.
type PersistError struct {
	SessionID string
	Role      models.Role
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s message for session %s: %v", e.Role, e.SessionID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func checkRecord(sessionID string, role models.Role) error {
	if sessionID == "" {
		return ErrMissingSession
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return nil
}
