package history

import (
	"context"

	"github.com/frankrogerrm/Jobsity/pkg/models"
)

// Store persists room messages and serves them back oldest-first.
type Store interface {
	Append(ctx context.Context, roomID int, username, text string, isBot bool) (models.ChatMessage, error)
	Recent(ctx context.Context, roomID, limit int) ([]models.ChatMessage, error)
	Close() error
}
