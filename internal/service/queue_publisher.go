package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/stock-inventory/internal/queue"
)

// Publisher emits inventory events.  Publishing is best effort: services
// log a failure and carry on, the request never fails because of it.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NoopPublisher drops every event.  Used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, queue.Event) error { return nil }

// ErrBrokerUnavailable is returned while a failed dial is cooling down.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

const (
	defaultDialTimeout  = 2 * time.Second
	defaultDialCooldown = 10 * time.Second
)

// AMQPPublisher publishes events as persistent JSON messages to a durable
// queue on the default exchange.  The connection and channel are opened
// lazily and reopened after the broker drops them.  A failed dial is not
// retried before the cooldown has passed, and no call waits longer than
// its context allows.
type AMQPPublisher struct {
	url   string
	queue string
	log   *slog.Logger

	dialTimeout time.Duration
	cooldown    time.Duration

	// sem is a one-slot lock that callers can give up on when ctx ends
	sem     chan struct{}
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

func NewAMQPPublisher(url, queueName string, log *slog.Logger) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.QueueName
	}
	return &AMQPPublisher{
		url:         url,
		queue:       queueName,
		log:         log,
		dialTimeout: defaultDialTimeout,
		cooldown:    defaultDialCooldown,
		sem:         make(chan struct{}, 1),
	}
}

func (p *AMQPPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AMQPPublisher) unlock() { <-p.sem }

// Ping opens the connection now.  main uses it to fall back to
// NoopPublisher when the broker cannot be reached at startup.
func (p *AMQPPublisher) Ping(ctx context.Context) error {
	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()
	_, err := p.channel(ctx)
	return err
}

// Publish sends ev.  On failure the channel is discarded so a later call
// reconnects.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		p.log.Warn("rabbitmq: connect failed", "err", err, "event", ev.Type)
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         ev.Type,
			Body:         body,
		})
	if err != nil {
		p.log.Warn("rabbitmq: publish failed", "err", err, "event", ev.Type)
		p.reset()
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	p.reset()
	return nil
}

// channel returns the open channel, dialing when needed.  The lock must be
// held.
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.retryAt) {
		return nil, ErrBrokerUnavailable
	}

	ch, err := p.open(ctx)
	if err != nil {
		p.retryAt = time.Now().Add(p.cooldown)
		return nil, err
	}
	return ch, nil
}

func (p *AMQPPublisher) open(ctx context.Context) (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      p.dialer(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// dialer bounds the TCP connect and the AMQP handshake by dialTimeout or
// the deadline of ctx, whichever comes first.  The library clears the
// connection deadline once the handshake completes.
func (p *AMQPPublisher) dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		deadline := time.Now().Add(p.dialTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		dctx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()

		var d net.Dialer
		conn, err := d.DialContext(dctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
