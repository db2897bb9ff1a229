// Package bot implements the quote worker: it consumes stock commands one at
// a time, resolves each against the quote provider and publishes the answer
// to the response queue. Throughput scales by running more bot processes
// against the same durable queue.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/stockbot/internal/stooq"
	"github.com/frankrogerrm/Jobsity/pkg/models"
	"github.com/frankrogerrm/Jobsity/pkg/queue"
)

type Worker struct {
	logger        *zap.Logger
	broker        Broker
	provider      QuoteProvider
	commandQueue  string
	responseQueue string
	maxRetries    int
}

func NewWorker(logger *zap.Logger, broker Broker, provider QuoteProvider, commandQueue, responseQueue string, maxRetries int) *Worker {
	return &Worker{
		logger:        logger,
		broker:        broker,
		provider:      provider,
		commandQueue:  commandQueue,
		responseQueue: responseQueue,
		maxRetries:    maxRetries,
	}
}

// Run processes deliveries sequentially until the channel closes or ctx is
// cancelled. A delivery already picked up is always settled before return.
func (w *Worker) Run(ctx context.Context, deliveries <-chan queue.Delivery) {
	w.logger.Info("Stock bot worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stock bot worker stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Info("Command subscription closed")
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle runs one command through Received -> Resolving -> published -> ack.
// The original delivery is acked only after the response is durably
// published; a crash in between redelivers the command and produces a
// harmless duplicate answer instead of losing it.
func (w *Worker) Handle(ctx context.Context, d queue.Delivery) {
	var cmd models.StockCommand
	if err := json.Unmarshal(d.Body, &cmd); err != nil {
		// Poison message: requeueing would loop forever, drop it
		w.logger.Error("Dropping undecodable command", zap.Error(err))
		w.broker.Ack(d.Tag)
		return
	}

	w.logger.Info("Processing stock command",
		zap.String("request_id", cmd.RequestID),
		zap.String("stock_code", cmd.StockCode),
		zap.String("username", cmd.Username),
		zap.Int("room_id", cmd.ChatRoomID),
		zap.Int("retry_count", d.RetryCount))

	resp := w.resolve(ctx, cmd)

	body, err := json.Marshal(resp)
	if err != nil {
		w.logger.Error("Failed to encode response", zap.Error(err))
		w.broker.Ack(d.Tag)
		return
	}

	if err := w.broker.Publish(ctx, w.responseQueue, body); err != nil {
		w.logger.Error("Failed to publish response",
			zap.String("request_id", cmd.RequestID), zap.Error(err))
		w.retry(ctx, d, cmd)
		return
	}

	w.broker.Ack(d.Tag)

	w.logger.Info("Stock command processed",
		zap.String("request_id", cmd.RequestID),
		zap.String("message", resp.Message))
}

// resolve never fails: provider errors become is_error responses so the room
// sees a readable error line instead of a silently dropped command.
func (w *Worker) resolve(ctx context.Context, cmd models.StockCommand) models.StockQuoteResponse {
	q, err := w.provider.Resolve(ctx, cmd.StockCode)

	switch {
	case errors.Is(err, stooq.ErrNotFound):
		return errorResponse(cmd,
			fmt.Sprintf("Stock %s not found or has invalid data.", cmd.StockCode),
			fmt.Sprintf("Unable to retrieve quote for %s. Please check the stock code.", cmd.StockCode))

	case err != nil:
		w.logger.Error("Quote provider error",
			zap.String("stock_code", cmd.StockCode), zap.Error(err))
		return errorResponse(cmd,
			"Network error while fetching stock data.",
			fmt.Sprintf("Error retrieving quote for %s: Network error while fetching stock data.", cmd.StockCode))

	default:
		return models.StockQuoteResponse{
			RequestID:  cmd.RequestID,
			StockCode:  q.Symbol,
			Price:      q.Price,
			ChatRoomID: cmd.ChatRoomID,
			Message:    fmt.Sprintf("%s quote is $%.2f per share", q.Symbol, q.Price),
		}
	}
}

// retry re-enqueues a command whose response could not be published,
// carrying an explicit attempt counter so a persistently failing command
// cannot livelock the queue. Past the cap it is dropped with an error log;
// if the republish itself fails, plain nack-with-requeue is the fallback.
func (w *Worker) retry(ctx context.Context, d queue.Delivery, cmd models.StockCommand) {
	if d.RetryCount >= w.maxRetries {
		w.logger.Error("Dropping command after max retries",
			zap.String("request_id", cmd.RequestID),
			zap.String("stock_code", cmd.StockCode),
			zap.Int("retry_count", d.RetryCount))
		w.broker.Ack(d.Tag)
		return
	}

	if err := w.broker.PublishRetry(ctx, w.commandQueue, d.Body, d.RetryCount+1); err != nil {
		w.logger.Error("Failed to re-enqueue command, nacking",
			zap.String("request_id", cmd.RequestID), zap.Error(err))
		w.broker.Nack(d.Tag, true)
		return
	}

	w.broker.Ack(d.Tag)
}

func errorResponse(cmd models.StockCommand, errMsg, userMsg string) models.StockQuoteResponse {
	return models.StockQuoteResponse{
		RequestID:    cmd.RequestID,
		StockCode:    cmd.StockCode,
		ChatRoomID:   cmd.ChatRoomID,
		IsError:      true,
		ErrorMessage: errMsg,
		Message:      userMsg,
	}
}
