// Package listener consumes stock quote responses from the response queue,
// persists them as bot messages and fans them out to the originating room.
package listener

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/history"
	"github.com/frankrogerrm/Jobsity/pkg/models"
	"github.com/frankrogerrm/Jobsity/pkg/queue"
)

const botUsername = "StockBot"

// Settler settles deliveries on the broker channel
type Settler interface {
	Ack(tag uint64) error
	Nack(tag uint64, requeue bool) error
}

// Broadcaster fans a stored message out to a room's connected clients
type Broadcaster interface {
	BroadcastToRoom(roomID int, msg models.ChatMessage)
}

type Listener struct {
	logger      *zap.Logger
	settler     Settler
	store       history.Store
	broadcaster Broadcaster
}

func New(logger *zap.Logger, settler Settler, store history.Store, broadcaster Broadcaster) *Listener {
	return &Listener{
		logger:      logger,
		settler:     settler,
		store:       store,
		broadcaster: broadcaster,
	}
}

// Run processes deliveries sequentially until the channel closes or ctx is
// cancelled. A delivery already picked up is always settled before return.
func (l *Listener) Run(ctx context.Context, deliveries <-chan queue.Delivery) {
	l.logger.Info("Response listener started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Response listener stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				l.logger.Info("Response subscription closed")
				return
			}
			l.Handle(ctx, d)
		}
	}
}

// Handle settles exactly one delivery: ack on success, ack-and-drop on
// poison payloads, nack-with-requeue when persistence fails.
func (l *Listener) Handle(ctx context.Context, d queue.Delivery) {
	var resp models.StockQuoteResponse
	if err := json.Unmarshal(d.Body, &resp); err != nil {
		// Poison message: requeueing would loop forever, drop it
		l.logger.Error("Dropping undecodable response", zap.Error(err))
		l.settler.Ack(d.Tag)
		return
	}

	msg, err := l.store.Append(ctx, resp.ChatRoomID, botUsername, resp.Message, true)
	if err != nil {
		l.logger.Error("Failed to persist bot message, requeueing",
			zap.String("request_id", resp.RequestID),
			zap.Int("room_id", resp.ChatRoomID),
			zap.Error(err))
		l.settler.Nack(d.Tag, true)
		return
	}

	// Broadcast is best-effort: the message is durable in the store already
	l.broadcaster.BroadcastToRoom(resp.ChatRoomID, msg)

	l.settler.Ack(d.Tag)

	l.logger.Info("Stock response delivered",
		zap.String("request_id", resp.RequestID),
		zap.String("stock_code", resp.StockCode),
		zap.Int("room_id", resp.ChatRoomID),
		zap.Bool("is_error", resp.IsError))
}
