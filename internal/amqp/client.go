package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"spendwise/internal/core"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// Queues names the two durable queues bound to the exchange. Each queue is
// bound with its own name as routing key.
type Queues struct {
	Reminders string
	Expenses  string
}

func (q Queues) names() []string {
	var out []string
	for _, n := range []string{q.Reminders, q.Expenses} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

type Client struct {
	url          string
	exchangeName string
	queues       Queues

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time

	// send replaces the channel publish in tests.
	send func(ctx context.Context, exchange, key string, msg amqp091.Publishing) error
}

func NewClient(url, exchangeName string, queues Queues) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queues:       queues,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queues: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	return nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range c.queues.names() {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// reconnect replaces a dead connection. It is called after a publish fails
// with a connection error.
func (c *Client) reconnect() error {
	c.mu.Lock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.channel, c.conn = nil, nil
	c.mu.Unlock()

	return c.connect()
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// isCircuitOpen reports whether publishes should be refused. An open circuit
// moves to half-open once openTimeout has passed since the last failure.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) publish(ctx context.Context, queue string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, refusing to publish to %s", queue)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}

	var err error
	if c.send != nil {
		err = c.send(ctx, c.exchangeName, queue, msg)
	} else {
		err = c.sendOnChannel(ctx, queue, msg)
	}
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

func (c *Client) sendOnChannel(ctx context.Context, queue string, msg amqp091.Publishing) error {
	ch := c.currentChannel()
	if ch == nil {
		if err := c.reconnect(); err != nil {
			return err
		}
		ch = c.currentChannel()
	}

	err := ch.PublishWithContext(ctx, c.exchangeName, queue, false, false, msg)
	if err != nil && isConnectionError(err) {
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting", "error", err)
		if rerr := c.reconnect(); rerr == nil {
			err = c.currentChannel().PublishWithContext(ctx, c.exchangeName, queue, false, false, msg)
		}
	}
	return err
}

// PublishExpenseSync asks the worker to export an expense.
func (c *Client) PublishExpenseSync(ctx context.Context, id, version int64) error {
	msg := NewExpenseSyncMessage(id, version)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.queues.Expenses, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published expense sync message",
		"id", id,
		"version", version,
		"exchange", c.exchangeName,
		"queue", c.queues.Expenses)

	return nil
}

// PublishBillReminder hands a reminder to the worker for delivery.
func (c *Client) PublishBillReminder(ctx context.Context, r core.BillReminder) error {
	body, err := NewBillReminderMessage(r).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.queues.Reminders, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published bill reminder message",
		"bill_id", r.BillID,
		"exchange", c.exchangeName,
		"queue", c.queues.Reminders)

	return nil
}

// consume delivers raw bodies to handle with manual acknowledgement.
// Undecodable messages are dropped; handler failures are requeued.
func (c *Client) consume(ctx context.Context, queue string, handle func(context.Context, []byte) (decoded bool, err error)) error {
	ch := c.currentChannel()
	if ch == nil {
		return fmt.Errorf("start consuming %s: %w", queue, amqp091.ErrClosed)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", queue, err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed: %w", amqp091.ErrClosed)
			}

			decoded, err := handle(ctx, delivery.Body)
			switch {
			case !decoded:
				slog.ErrorContext(ctx, "Failed to unmarshal message", "queue", queue, "error", err)
				delivery.Nack(false, false) // reject and don't requeue
			case err != nil:
				slog.ErrorContext(ctx, "Failed to handle message", "queue", queue, "error", err)
				delivery.Nack(false, true) // reject and requeue
			default:
				delivery.Ack(false)
			}
		}
	}
}

// consumeWithRetry keeps a consumer alive across broker restarts, backing
// off between reconnect attempts until ctx is cancelled.
func (c *Client) consumeWithRetry(ctx context.Context, queue string, handle func(context.Context, []byte) (bool, error)) error {
	attempt := 0
	for {
		err := c.consume(ctx, queue, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Consumer lost connection, retrying", "queue", queue, "error", err, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if rerr := c.reconnect(); rerr != nil {
			slog.ErrorContext(ctx, "Reconnect failed", "queue", queue, "error", rerr)
			attempt++
			continue
		}
		attempt = 0
	}
}

// ConsumeExpenseSync consumes expense sync messages until ctx is cancelled.
func (c *Client) ConsumeExpenseSync(ctx context.Context, handler func(context.Context, *ExpenseSyncMessage) error) error {
	return c.consumeWithRetry(ctx, c.queues.Expenses, func(ctx context.Context, body []byte) (bool, error) {
		msg, err := ExpenseSyncMessageFromJSON(body)
		if err != nil {
			return false, err
		}
		return true, handler(ctx, msg)
	})
}

// ConsumeBillReminders consumes bill reminder messages until ctx is
// cancelled.
func (c *Client) ConsumeBillReminders(ctx context.Context, handler func(context.Context, *BillReminderMessage) error) error {
	return c.consumeWithRetry(ctx, c.queues.Reminders, func(ctx context.Context, body []byte) (bool, error) {
		msg, err := BillReminderMessageFromJSON(body)
		if err != nil {
			return false, err
		}
		return true, handler(ctx, msg)
	})
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
