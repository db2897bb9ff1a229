package testutils

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/protocol"
	"github.com/frankrogerrm/Jobsity/pkg/models"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal    string
	User     string
	Messages []protocol.ChatResponse
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id, username string) *MockClient {
	return &MockClient{IDVal: id, User: username, Messages: make([]protocol.ChatResponse, 0)}
}

func (m *MockClient) ID() string       { return m.IDVal }
func (m *MockClient) Username() string { return m.User }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if resp, ok := v.(protocol.ChatResponse); ok {
		m.Messages = append(m.Messages, resp)
	}
}

func (m *MockClient) LastMsg() protocol.ChatResponse {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return protocol.ChatResponse{}
	}
	return m.Messages[len(m.Messages)-1]
}

func (m *MockClient) MessageCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Messages)
}

// MockStore simulates the Redis-backed history store
type MockStore struct {
	Appended  []models.ChatMessage
	History   map[int][]models.ChatMessage
	AppendErr error
	Mu        sync.Mutex
}

func NewMockStore() *MockStore {
	return &MockStore{History: make(map[int][]models.ChatMessage)}
}

func (m *MockStore) Append(ctx context.Context, roomID int, username, text string, isBot bool) (models.ChatMessage, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.AppendErr != nil {
		return models.ChatMessage{}, m.AppendErr
	}
	msg := models.ChatMessage{Username: username, Message: text, IsBot: isBot, ChatRoomID: roomID}
	m.Appended = append(m.Appended, msg)
	m.History[roomID] = append(m.History[roomID], msg)
	return msg, nil
}

func (m *MockStore) Recent(ctx context.Context, roomID, limit int) ([]models.ChatMessage, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	msgs := m.History[roomID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *MockStore) Close() error { return nil }

// MockDispatcher records dispatched stock commands
type MockDispatcher struct {
	Codes []string
	Rooms []int
	Users []string
	Err   error
	Mu    sync.Mutex
}

func (m *MockDispatcher) Dispatch(ctx context.Context, roomID int, username, code string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Codes = append(m.Codes, code)
	m.Rooms = append(m.Rooms, roomID)
	m.Users = append(m.Users, username)
	return nil
}

// MockSettler records ack/nack decisions made by a consumer loop
type MockSettler struct {
	Acked   []uint64
	Nacked  []uint64
	Requeue []bool
	Mu      sync.Mutex
}

func (m *MockSettler) Ack(tag uint64) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Acked = append(m.Acked, tag)
	return nil
}

func (m *MockSettler) Nack(tag uint64, requeue bool) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Nacked = append(m.Nacked, tag)
	m.Requeue = append(m.Requeue, requeue)
	return nil
}

var ErrStoreDown = errors.New("store unavailable")

func AssertTrue(t *testing.T, condition bool, msg string) {
	if !condition {
		t.Errorf("Assertion failed: %s", msg)
	}
}
