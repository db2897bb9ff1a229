package bot

import (
	"context"

	"github.com/frankrogerrm/Jobsity/cmd/stockbot/internal/stooq"
)

// Broker abstracts the queue client operations the worker needs
type Broker interface {
	Publish(ctx context.Context, queue string, body []byte) error
	PublishRetry(ctx context.Context, queue string, body []byte, retryCount int) error
	Ack(tag uint64) error
	Nack(tag uint64, requeue bool) error
}

// QuoteProvider abstracts the external quote source
type QuoteProvider interface {
	Resolve(ctx context.Context, code string) (stooq.Quote, error)
}
