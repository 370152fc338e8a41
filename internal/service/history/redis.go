package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"investchat/internal/models"
	"investchat/internal/redis"
)

const redisKeyPrefix = "investchat:messages:"

// RedisRecorder appends messages as JSON records to one list per session.
type RedisRecorder struct {
	client *redis.Client
}

func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: client}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Record pushes one message onto the session list.
func (r *RedisRecorder) Record(ctx context.Context, sessionID string, role models.Role, content string) error {
	if err := checkRecord(sessionID, role); err != nil {
		return &PersistError{SessionID: sessionID, Role: role, Err: err}
	}
	payload, err := json.Marshal(models.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return &PersistError{SessionID: sessionID, Role: role, Err: err}
	}
	if err := r.client.RPush(ctx, redisKey(sessionID), payload); err != nil {
		return &PersistError{SessionID: sessionID, Role: role, Err: fmt.Errorf("rpush message: %w", err)}
	}
	return nil
}

// Messages returns every record of the session list. IDs are list positions, starting at 1.
func (r *RedisRecorder) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	raw, err := r.client.LRange(ctx, redisKey(sessionID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange messages: %w", err)
	}
	messages := make([]models.Message, 0, len(raw))
	for i, item := range raw {
		var m models.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decode message %d: %w", i, err)
		}
		m.ID = int64(i + 1)
		messages = append(messages, m)
	}
	return messages, nil
}
