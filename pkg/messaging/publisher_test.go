package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishDeclaresQueueOnce(t *testing.T) {
	ch := &fakeChannel{}
	dials := 0
	p := NewPublisher("amqp://test", "ledger", nil)
	p.dial = func(string) (channel, func() error, error) {
		dials++
		return ch, func() error { return nil }, nil
	}

	require.NoError(t, p.Publish(context.Background(), map[string]int{"amount": 799}))
	require.NoError(t, p.Publish(context.Background(), map[string]int{"amount": 1000}))

	assert.Equal(t, 1, dials)
	assert.Equal(t, []string{"ledger"}, ch.declared)
	require.Len(t, ch.published, 2)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var body map[string]int
	require.NoError(t, json.Unmarshal(ch.published[1].Body, &body))
	assert.Equal(t, 1000, body["amount"])
}

func TestPublishResetsAfterFailure(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	dials := 0
	p := NewPublisher("amqp://test", "ledger", nil)
	p.dial = func(string) (channel, func() error, error) {
		dials++
		return ch, func() error { return nil }, nil
	}

	assert.Error(t, p.Publish(context.Background(), "x"))
	assert.True(t, ch.closed)

	ch.publishErr = nil
	require.NoError(t, p.Publish(context.Background(), "y"))
	assert.Equal(t, 2, dials)
}

func TestPublishDialFailure(t *testing.T) {
	p := NewPublisher("amqp://test", "ledger", nil)
	p.dial = func(string) (channel, func() error, error) { return nil, nil, errors.New("refused") }
	assert.Error(t, p.Publish(context.Background(), "x"))
}
