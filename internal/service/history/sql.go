package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"investchat/internal/models"
)

// SQLRecorder stores messages in the messages table created by storage.Migrate.
type SQLRecorder struct {
	db *sql.DB
}

func NewSQLRecorder(db *sql.DB) *SQLRecorder {
	return &SQLRecorder{db: db}
}

// Record inserts one message row.
func (r *SQLRecorder) Record(ctx context.Context, sessionID string, role models.Role, content string) error {
	if err := checkRecord(sessionID, role); err != nil {
		return &PersistError{SessionID: sessionID, Role: role, Err: err}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, role, content, time.Now().UTC(),
	)
	if err != nil {
		return &PersistError{SessionID: sessionID, Role: role, Err: fmt.Errorf("insert message: %w", err)}
	}
	return nil
}

// Messages returns the recorded messages of a session in insertion order.
func (r *SQLRecorder) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
