package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/pkg/models"
)

// Publisher abstracts the queue client for testability
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Dispatcher turns a recognized stock command into a persistent queue
// message. It keeps no state between calls; retry policy on publish failure
// belongs to the caller.
type Dispatcher struct {
	logger    *zap.Logger
	publisher Publisher
	queue     string
}

func NewDispatcher(logger *zap.Logger, publisher Publisher, queue string) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		publisher: publisher,
		queue:     queue,
	}
}

// Dispatch publishes a StockCommand for the given room and user. Exactly one
// publish per call; an error means the command never reached the queue and
// the requester must be told.
func (d *Dispatcher) Dispatch(ctx context.Context, roomID int, username, code string) error {
	cmd := models.StockCommand{
		RequestID:   uuid.NewString(),
		StockCode:   code,
		Username:    username,
		ChatRoomID:  roomID,
		RequestedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to encode stock command: %w", err)
	}

	if err := d.publisher.Publish(ctx, d.queue, body); err != nil {
		return fmt.Errorf("failed to publish stock command: %w", err)
	}

	d.logger.Info("Stock command published",
		zap.String("request_id", cmd.RequestID),
		zap.String("stock_code", code),
		zap.String("username", username),
		zap.Int("room_id", roomID))

	return nil
}
