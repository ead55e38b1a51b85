package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// DefaultExchange receives interview lifecycle events.
const DefaultExchange = "interview_updates"

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events as JSON on a topic exchange with routing key
// interview.<id>.
type AMQPPublisher struct {
	exchange string
	closer   func() error

	mu      sync.Mutex
	channel Channel
}

// DialAMQP connects to a broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := NewAMQPPublisher(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.closer = conn.Close
	return p, nil
}

// NewAMQPPublisher declares a durable topic exchange on ch.
func NewAMQPPublisher(ch Channel, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &AMQPPublisher{exchange: exchange, channel: ch}, nil
}

// RoutingKey returns the key events for one interview are published under.
func RoutingKey(interviewID string) string {
	return "interview." + interviewID
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return errors.New("amqp publisher is closed")
	}
	return p.channel.Publish(p.exchange, RoutingKey(event.InterviewID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        string(event.Type),
		Timestamp:   ts,
		Body:        body,
	})
}

// Close releases the channel and any connection opened by DialAMQP.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	ch := p.channel
	p.channel = nil
	closer := p.closer
	p.closer = nil
	p.mu.Unlock()

	var errs []error
	if ch != nil {
		errs = append(errs, ch.Close())
	}
	if closer != nil {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}
