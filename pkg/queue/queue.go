package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const retryCountHeader = "x-retry-count"

// Delivery is one message handed to a consumer. Tag is only valid for the
// lifetime of the connection and must be settled with Ack or Nack before
// the consumer moves to the next delivery.
type Delivery struct {
	Body        []byte
	Tag         uint64
	RetryCount  int
	Redelivered bool
}

// Client owns one AMQP connection and channel. Channel operations
// (publish/ack/nack/cancel) are serialized with a mutex; an amqp channel is
// not safe for interleaved use from multiple goroutines.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
}

// Dial connects to the broker. Callers treat a failure here as fatal: a
// process that cannot reach its queues cannot serve anything.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open channel: %w", err), conn.Close())
	}

	return &Client{conn: conn, channel: ch}, nil
}

// Declare creates the named queue if it does not exist. Queues are always
// durable, non-exclusive and non-auto-delete: messages survive a broker
// restart and multiple worker processes may share one queue.
func (c *Client) Declare(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.channel.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// Publish sends body to the named queue as a persistent message.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	return c.publish(ctx, queue, body, 0)
}

// PublishRetry is Publish with an explicit retry counter carried in the
// message headers. Consumers use it to re-enqueue a delivery they could not
// process, keeping an attempt count across redeliveries.
func (c *Client) PublishRetry(ctx context.Context, queue string, body []byte, retryCount int) error {
	return c.publish(ctx, queue, body, retryCount)
}

func (c *Client) publish(ctx context.Context, queue string, body []byte, retryCount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if retryCount > 0 {
		pub.Headers = amqp.Table{retryCountHeader: int32(retryCount)}
	}

	if err := c.channel.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Ack marks the delivery identified by tag as processed.
func (c *Client) Ack(tag uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel.Ack(tag, false)
}

// Nack returns the delivery to the broker. With requeue the broker hands the
// same message back to this or another consumer (at-least-once semantics).
func (c *Client) Nack(tag uint64, requeue bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel.Nack(tag, false, requeue)
}

// Subscription is the handle returned by Consume. Deliveries() yields one
// message at a time; Cancel stops the flow and closes the channel, letting
// a consumer loop drain and exit cleanly.
type Subscription struct {
	client     *Client
	tag        string
	deliveries chan Delivery
	done       chan struct{}
	once       sync.Once
}

// Consume attaches a consumer to the named queue with manual acknowledgement.
func (c *Client) Consume(queue string) (*Subscription, error) {
	c.mu.Lock()
	// One unacked message in flight per consumer: handlers settle each
	// delivery before the broker sends the next
	if err := c.channel.Qos(1, 0, false); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}
	tag := fmt.Sprintf("%s-%d", queue, time.Now().UnixNano())
	msgs, err := c.channel.Consume(
		queue,
		tag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", queue, err)
	}

	sub := &Subscription{
		client:     c,
		tag:        tag,
		deliveries: make(chan Delivery),
		done:       make(chan struct{}),
	}

	go func() {
		defer close(sub.deliveries)
		for {
			select {
			case <-sub.done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case sub.deliveries <- Delivery{
					Body:        msg.Body,
					Tag:         msg.DeliveryTag,
					RetryCount:  retryCountFrom(msg.Headers),
					Redelivered: msg.Redelivered,
				}:
				case <-sub.done:
					return
				}
			}
		}
	}()

	return sub, nil
}

// Deliveries returns the channel the consumer loop ranges over. It is closed
// after Cancel, or when the broker closes the consumer.
func (s *Subscription) Deliveries() <-chan Delivery {
	return s.deliveries
}

// Cancel stops delivery to this subscription. A message already handed to the
// consumer loop can still be settled through the owning Client.
func (s *Subscription) Cancel() error {
	var err error
	s.once.Do(func() {
		s.client.mu.Lock()
		err = s.client.channel.Cancel(s.tag, false)
		s.client.mu.Unlock()
		close(s.done)
	})
	return err
}

// Close tears down the channel and connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var chanErr error
	if c.channel != nil {
		chanErr = c.channel.Close()
	}
	if c.conn != nil {
		return errors.Join(chanErr, c.conn.Close())
	}
	return chanErr
}

func retryCountFrom(headers amqp.Table) int {
	switch v := headers[retryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
