package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frankrogerrm/Jobsity/pkg/models"
)

const (
	keyPrefix = "room:"

	// maxKept caps the per-room list so history does not grow unbounded
	maxKept = 500
)

// Compile-time check to ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// RedisStore keeps each room's messages in a Redis list, newest first.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func roomKey(roomID int) string {
	return fmt.Sprintf("%s%d:messages", keyPrefix, roomID)
}

// Append stores a message for the room and returns it with the timestamp set.
func (r *RedisStore) Append(ctx context.Context, roomID int, username, text string, isBot bool) (models.ChatMessage, error) {
	msg := models.ChatMessage{
		Username:   username,
		Message:    text,
		Timestamp:  time.Now().UTC(),
		IsBot:      isBot,
		ChatRoomID: roomID,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to encode chat message: %w", err)
	}

	key := roomKey(roomID)

	// LPUSH + LTRIM in a single pipeline keeps the cap atomic with the write
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, maxKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to persist chat message: %w", err)
	}

	return msg, nil
}

// Recent returns up to limit messages for the room, oldest first.
func (r *RedisStore) Recent(ctx context.Context, roomID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := r.client.LRange(ctx, roomKey(roomID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	// The list is newest-first; reverse while decoding so callers replay in order
	messages := make([]models.ChatMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
