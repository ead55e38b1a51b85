package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
)

func TestBusSinceAndTrim(t *testing.T) {
	bus := NewBus(3)
	for i := range 5 {
		bus.Append(Event{InterviewID: "iv", Type: TypeState, QuestionIndex: i})
	}

	events := bus.Since(0)
	require.Len(t, events, 3)
	require.Equal(t, int64(3), events[0].Seq)
	require.Equal(t, int64(5), events[2].Seq)
	require.False(t, events[0].Timestamp.IsZero())

	require.Len(t, bus.Since(4), 1)
	require.Empty(t, bus.Since(5))
	require.Equal(t, int64(5), bus.Last())
}

func TestBusKeepsExplicitTimestamp(t *testing.T) {
	bus := NewBus(0)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, bus.Publish(context.Background(), Event{Timestamp: ts}))
	require.Equal(t, ts, bus.Since(0)[0].Timestamp)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}

func TestMultiContinuesPastFailures(t *testing.T) {
	bus := NewBus(10)
	failing := &failingPublisher{}
	multi := NewMulti(nil, failing, nil, bus)

	err := multi.Publish(context.Background(), Event{InterviewID: "iv", Type: TypeCompleted})
	require.ErrorContains(t, err, "broker down")
	require.Equal(t, 1, failing.calls)
	require.Len(t, bus.Since(0), 1)
}

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	exchanges []string
	declErr   error
	closed    int
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declErr
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchanges = append(f.exchanges, exchange)
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed++
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewAMQPPublisher(ch, "")
	require.NoError(t, err)
	require.Equal(t, []string{DefaultExchange + ":topic"}, ch.declared)

	event := Event{Seq: 7, InterviewID: "abc", Type: TypeFeedback, State: "feedback", QuestionIndex: 1, Score: 72}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Equal(t, []string{"interview.abc"}, ch.keys)
	require.Equal(t, []string{DefaultExchange}, ch.exchanges)

	msg := ch.published[0]
	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, "feedback", msg.Type)
	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	require.Equal(t, 72, decoded.Score)
	require.Equal(t, "abc", decoded.InterviewID)

	require.NoError(t, p.Close())
	require.Equal(t, 1, ch.closed)
	require.ErrorContains(t, p.Publish(context.Background(), event), "closed")
	require.NoError(t, p.Close())
}

func TestAMQPPublisherDeclareFailure(t *testing.T) {
	ch := &fakeChannel{declErr: errors.New("access refused")}
	_, err := NewAMQPPublisher(ch, "custom")
	require.ErrorContains(t, err, `declare exchange "custom"`)
	require.Equal(t, 1, ch.closed)
}

func TestAMQPPublisherCanceledContext(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewAMQPPublisher(ch, "x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Publish(ctx, Event{}), context.Canceled)
	require.Empty(t, ch.published)
}

func TestDialAMQPRequiresURL(t *testing.T) {
	_, err := DialAMQP("", "")
	require.Error(t, err)
}
