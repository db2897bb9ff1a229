package testutils

import (
	"context"
	"sync"

	"github.com/frankrogerrm/Jobsity/cmd/stockbot/internal/stooq"
)

// PublishedMessage records one publish call on the mock broker
type PublishedMessage struct {
	Queue      string
	Body       []byte
	RetryCount int
}

// MockBroker records publishes and ack/nack decisions
type MockBroker struct {
	Published  []PublishedMessage
	Acked      []uint64
	Nacked     []uint64
	Requeue    []bool
	PublishErr error
	RetryErr   error
	Mu         sync.Mutex
}

func (m *MockBroker) Publish(ctx context.Context, queue string, body []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, PublishedMessage{Queue: queue, Body: body})
	return nil
}

func (m *MockBroker) PublishRetry(ctx context.Context, queue string, body []byte, retryCount int) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.RetryErr != nil {
		return m.RetryErr
	}
	m.Published = append(m.Published, PublishedMessage{Queue: queue, Body: body, RetryCount: retryCount})
	return nil
}

func (m *MockBroker) Ack(tag uint64) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Acked = append(m.Acked, tag)
	return nil
}

func (m *MockBroker) Nack(tag uint64, requeue bool) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Nacked = append(m.Nacked, tag)
	m.Requeue = append(m.Requeue, requeue)
	return nil
}

// MockProvider returns a canned quote or error per stock code
type MockProvider struct {
	Quotes map[string]stooq.Quote
	Errs   map[string]error
	Calls  []string
	Mu     sync.Mutex
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		Quotes: make(map[string]stooq.Quote),
		Errs:   make(map[string]error),
	}
}

func (m *MockProvider) Resolve(ctx context.Context, code string) (stooq.Quote, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, code)
	if err, ok := m.Errs[code]; ok {
		return stooq.Quote{}, err
	}
	return m.Quotes[code], nil
}
