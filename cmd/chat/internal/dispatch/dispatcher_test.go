package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/dispatch"
	"github.com/frankrogerrm/Jobsity/pkg/models"
)

type spyPublisher struct {
	queue string
	body  []byte
	calls int
	err   error
}

func (s *spyPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	s.calls++
	s.queue = queue
	s.body = body
	return s.err
}

func TestDispatch_PublishesCommand(t *testing.T) {
	spy := &spyPublisher{}
	d := dispatch.NewDispatcher(zap.NewNop(), spy, "stock_commands")

	before := time.Now().UTC()
	if err := d.Dispatch(context.Background(), 1, "Alice", "AAPL.US"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if spy.calls != 1 {
		t.Fatalf("Expected exactly one publish, got %d", spy.calls)
	}
	if spy.queue != "stock_commands" {
		t.Errorf("Expected publish to stock_commands, got %s", spy.queue)
	}

	var cmd models.StockCommand
	if err := json.Unmarshal(spy.body, &cmd); err != nil {
		t.Fatalf("Published body is not a valid StockCommand: %v", err)
	}

	if cmd.StockCode != "AAPL.US" {
		t.Errorf("Expected stock_code AAPL.US, got %s", cmd.StockCode)
	}
	if cmd.Username != "Alice" {
		t.Errorf("Expected username Alice, got %s", cmd.Username)
	}
	if cmd.ChatRoomID != 1 {
		t.Errorf("Expected room 1, got %d", cmd.ChatRoomID)
	}
	if cmd.RequestID == "" {
		t.Error("Expected a non-empty request id")
	}
	if cmd.RequestedAt.Before(before) {
		t.Error("Expected requested_at to be set to dispatch time")
	}
}

func TestDispatch_PublishFailure(t *testing.T) {
	spy := &spyPublisher{err: errors.New("broker unreachable")}
	d := dispatch.NewDispatcher(zap.NewNop(), spy, "stock_commands")

	if err := d.Dispatch(context.Background(), 1, "Alice", "AAPL.US"); err == nil {
		t.Fatal("Expected an error when the broker is unreachable")
	}
	if spy.calls != 1 {
		t.Errorf("Expected no retry on publish failure, got %d calls", spy.calls)
	}
}
