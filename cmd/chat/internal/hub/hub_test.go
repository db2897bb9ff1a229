package hub_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/hub"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/protocol"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/testutils"
	"github.com/frankrogerrm/Jobsity/pkg/models"
)

func setup() (*hub.Hub, *testutils.MockStore, *testutils.MockDispatcher) {
	store := testutils.NewMockStore()
	dispatcher := &testutils.MockDispatcher{}
	return hub.NewHub(store, dispatcher, zap.NewNop(), 50), store, dispatcher
}

func join(h *hub.Hub, client hub.ClientInterface, roomID int) {
	h.HandleRequest(client, protocol.ChatRequest{Action: protocol.ActionJoin, RoomID: roomID})
}

func TestHub_StockCommand_Dispatched(t *testing.T) {
	h, store, dispatcher := setup()
	client := testutils.NewMockClient("c1", "Alice")
	join(h, client, 1)

	h.HandleRequest(client, protocol.ChatRequest{
		Action: protocol.ActionMessage, RoomID: 1, Text: "/stock=AAPL.US", ID: "req-1",
	})

	dispatcher.Mu.Lock()
	defer dispatcher.Mu.Unlock()
	if len(dispatcher.Codes) != 1 || dispatcher.Codes[0] != "AAPL.US" {
		t.Fatalf("Expected AAPL.US dispatched, got %v", dispatcher.Codes)
	}
	if dispatcher.Rooms[0] != 1 || dispatcher.Users[0] != "Alice" {
		t.Errorf("Expected room 1 / Alice, got %d / %s", dispatcher.Rooms[0], dispatcher.Users[0])
	}

	last := client.LastMsg()
	if last.Type != "ack" || !strings.Contains(last.Message, "Processing stock quote for AAPL.US") {
		t.Errorf("Expected processing ack, got %+v", last)
	}

	store.Mu.Lock()
	defer store.Mu.Unlock()
	if len(store.Appended) != 0 {
		t.Error("Stock commands must not be stored as chat messages")
	}
}

func TestHub_MalformedStockCommand_RejectedNotPosted(t *testing.T) {
	h, store, dispatcher := setup()
	client := testutils.NewMockClient("c1", "Alice")
	join(h, client, 1)

	h.HandleRequest(client, protocol.ChatRequest{
		Action: protocol.ActionMessage, RoomID: 1, Text: "/stock=", ID: "req-2",
	})

	last := client.LastMsg()
	if last.Type != "error" || !strings.Contains(last.Message, "Invalid stock command format") {
		t.Errorf("Expected invalid format error, got %+v", last)
	}

	dispatcher.Mu.Lock()
	if len(dispatcher.Codes) != 0 {
		t.Error("Malformed command must not be dispatched")
	}
	dispatcher.Mu.Unlock()

	store.Mu.Lock()
	if len(store.Appended) != 0 {
		t.Error("Malformed command must not be posted as a chat message")
	}
	store.Mu.Unlock()
}

func TestHub_DispatchFailure_SurfacedToRequester(t *testing.T) {
	store := testutils.NewMockStore()
	dispatcher := &testutils.MockDispatcher{Err: errors.New("broker unreachable")}
	h := hub.NewHub(store, dispatcher, zap.NewNop(), 50)
	client := testutils.NewMockClient("c1", "Alice")
	join(h, client, 1)

	h.HandleRequest(client, protocol.ChatRequest{
		Action: protocol.ActionMessage, RoomID: 1, Text: "/stock=TSLA", ID: "req-3",
	})

	last := client.LastMsg()
	if last.Type != "error" {
		t.Errorf("Expected error response when publish fails, got %+v", last)
	}
}

func TestHub_PlainMessage_StoredAndBroadcast(t *testing.T) {
	h, store, _ := setup()
	alice := testutils.NewMockClient("c1", "Alice")
	bob := testutils.NewMockClient("c2", "Bob")
	outsider := testutils.NewMockClient("c3", "Eve")
	join(h, alice, 1)
	join(h, bob, 1)
	join(h, outsider, 2)

	h.HandleRequest(alice, protocol.ChatRequest{
		Action: protocol.ActionMessage, RoomID: 1, Text: "hello room",
	})

	store.Mu.Lock()
	if len(store.Appended) != 1 || store.Appended[0].Message != "hello room" {
		t.Fatalf("Expected message stored, got %v", store.Appended)
	}
	store.Mu.Unlock()

	if bob.LastMsg().Message != "hello room" {
		t.Errorf("Expected Bob to receive the broadcast, got %+v", bob.LastMsg())
	}
	outsider.Mu.Lock()
	for _, msg := range outsider.Messages {
		if msg.Message == "hello room" {
			t.Error("Broadcast leaked into another room")
		}
	}
	outsider.Mu.Unlock()
}

func TestHub_Join_ReplaysHistory(t *testing.T) {
	h, store, _ := setup()
	store.History[1] = []models.ChatMessage{
		{Username: "Alice", Message: "earlier", ChatRoomID: 1},
	}

	client := testutils.NewMockClient("c1", "Bob")
	join(h, client, 1)

	// History replay runs async
	deadline := time.After(time.Second)
	for client.MessageCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Timed out waiting for history replay, got %d messages", client.MessageCount())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	if client.LastMsg().Message != "earlier" {
		t.Errorf("Expected history message replayed, got %+v", client.LastMsg())
	}
}

func TestHub_Unregister_RemovesFromRooms(t *testing.T) {
	h, _, _ := setup()
	alice := testutils.NewMockClient("c1", "Alice")
	bob := testutils.NewMockClient("c2", "Bob")
	join(h, alice, 1)
	join(h, bob, 1)

	h.Unregister(bob)
	if !bob.Closed {
		t.Error("Expected client closed on unregister")
	}

	before := bob.MessageCount()
	h.BroadcastToRoom(1, models.ChatMessage{Username: "Alice", Message: "after leave", ChatRoomID: 1})

	if bob.MessageCount() != before {
		t.Error("Unregistered client should not receive broadcasts")
	}
	if alice.LastMsg().Message != "after leave" {
		t.Error("Remaining client should still receive broadcasts")
	}
}

func TestHub_RaceCondition(t *testing.T) {
	// Run with `go test -race ./...`
	h, _, _ := setup()
	client := testutils.NewMockClient("c1", "Alice")

	go func() { join(h, client, 1) }()
	go func() {
		h.HandleRequest(client, protocol.ChatRequest{Action: protocol.ActionMessage, RoomID: 1, Text: "hi"})
	}()
	go func() { h.Unregister(client) }()
}
