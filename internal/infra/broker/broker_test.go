package broker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DeliverySlotService/pkg/logger"
)

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	published  []amqp.Publishing
	publishErr error
	deliveries chan amqp.Delivery
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{exchanges: make(map[string]string), deliveries: make(chan amqp.Delivery, 8)}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges[name] = kind
	return nil
}

func (c *fakeChannel) QueueDeclare(string, bool, bool, bool, bool, amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: "amq.gen-test"}, nil
}

func (c *fakeChannel) QueueBind(string, string, string, bool, amqp.Table) error { return nil }

func (c *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeConnection struct {
	ch     *fakeChannel
	closed bool
}

func (c *fakeConnection) Channel() (Channel, error) { return c.ch, nil }
func (c *fakeConnection) IsClosed() bool            { return c.closed }
func (c *fakeConnection) Close() error              { c.closed = true; return nil }

type fakeDialer struct {
	mu       sync.Mutex
	channels []*fakeChannel
	fail     bool
}

func (d *fakeDialer) dial(string) (Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, errors.New("connection refused")
	}
	ch := newFakeChannel()
	d.channels = append(d.channels, ch)
	return &fakeConnection{ch: ch}, nil
}

func discard() Logger { return logger.NewWithWriter(io.Discard, "debug") }

func TestPublisher_PublishesJSONToFanoutExchange(t *testing.T) {
	dialer := &fakeDialer{}
	p := NewPublisher("amqp://test", "delivery_slots", dialer.dial, discard())

	msg := CapacityChangedMessage{InstanceID: "a", SlotID: 1, DeliveryDate: "2025-03-10", Generation: 4}
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, dialer.channels, 1)
	ch := dialer.channels[0]
	assert.Equal(t, "fanout", ch.exchanges["delivery_slots"])
	require.Len(t, ch.published, 1)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var decoded CapacityChangedMessage
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &decoded))
	assert.Equal(t, msg.SlotID, decoded.SlotID)
	assert.Equal(t, msg.Generation, decoded.Generation)
}

func TestPublisher_ReconnectsAfterFailure(t *testing.T) {
	dialer := &fakeDialer{}
	p := NewPublisher("amqp://test", "delivery_slots", dialer.dial, discard())

	require.NoError(t, p.Connect())
	dialer.channels[0].publishErr = errors.New("channel closed")

	err := p.Publish(context.Background(), CapacityChangedMessage{SlotID: 1})
	assert.ErrorIs(t, err, ErrPublish)
	assert.True(t, dialer.channels[0].closed)

	require.NoError(t, p.Publish(context.Background(), CapacityChangedMessage{SlotID: 1}))
	require.Len(t, dialer.channels, 2)
	assert.Len(t, dialer.channels[1].published, 1)
}

func TestPublisher_ConnectFailure(t *testing.T) {
	dialer := &fakeDialer{fail: true}
	p := NewPublisher("amqp://test", "delivery_slots", dialer.dial, discard())

	assert.ErrorIs(t, p.Connect(), ErrConnect)
	assert.ErrorIs(t, p.Publish(context.Background(), CapacityChangedMessage{}), ErrConnect)
}

func TestSubscriber_DispatchSkipsOwnAndMalformed(t *testing.T) {
	s := NewSubscriber("amqp://test", "delivery_slots", "self", nil, discard())

	var got []CapacityChangedMessage
	handle := func(m CapacityChangedMessage) { got = append(got, m) }

	own, _ := json.Marshal(CapacityChangedMessage{InstanceID: "self", SlotID: 1})
	foreign, _ := json.Marshal(CapacityChangedMessage{InstanceID: "other", SlotID: 2})

	assert.False(t, s.dispatch(own, handle))
	assert.False(t, s.dispatch([]byte("{not json"), handle))
	assert.True(t, s.dispatch(foreign, handle))
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].SlotID)
}

func TestSubscriber_RunDeliversUntilCancelled(t *testing.T) {
	dialer := &fakeDialer{}
	s := NewSubscriber("amqp://test", "delivery_slots", "self", dialer.dial, discard())

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan CapacityChangedMessage, 1)
	done := make(chan struct{})

	go func() {
		s.Run(ctx, func(m CapacityChangedMessage) { received <- m })
		close(done)
	}()

	require.Eventually(t, func() bool {
		dialer.mu.Lock()
		defer dialer.mu.Unlock()
		return len(dialer.channels) == 1
	}, time.Second, 10*time.Millisecond)

	body, _ := json.Marshal(CapacityChangedMessage{InstanceID: "other", SlotID: 3})
	dialer.channels[0].deliveries <- amqp.Delivery{Body: body}

	select {
	case m := <-received:
		assert.Equal(t, int64(3), m.SlotID)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}
