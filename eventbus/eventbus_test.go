package eventbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/seb7887/gofw/backoff/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	msgs []eventbus.Message
}

func (c *collector) Receive(_ context.Context, msg eventbus.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *collector) received() []eventbus.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]eventbus.Message(nil), c.msgs...)
}

func TestInMem_DeliversByTopicInOrder(t *testing.T) {
	bus := eventbus.NewInMemBus()

	events, other := &collector{}, &collector{}
	require.NoError(t, bus.Subscribe(eventbus.DefaultTopic, events))
	require.NoError(t, bus.Subscribe("other", other))

	for i := 1; i <= 3; i++ {
		require.NoError(t, bus.Publish(eventbus.DefaultTopic, eventbus.Event{Session: "s1", Kind: eventbus.KindRetry, Attempt: i}))
	}
	require.NoError(t, bus.Close())

	got := events.received()
	require.Len(t, got, 3)
	for i, msg := range got {
		assert.Equal(t, i+1, msg.(eventbus.Event).Attempt)
	}
	assert.Empty(t, other.received())
}

func TestInMem_Closed(t *testing.T) {
	bus := eventbus.NewInMemBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(eventbus.DefaultTopic, eventbus.Event{}), eventbus.ErrClosed)
	assert.ErrorIs(t, bus.Subscribe(eventbus.DefaultTopic, &collector{}), eventbus.ErrClosed)
}

func TestEvent_Serialize(t *testing.T) {
	data, err := eventbus.Event{
		Session: "01J",
		Kind:    eventbus.KindAbort,
		Attempt: 4,
		Elapsed: 1500 * time.Millisecond,
		Error:   "boom",
		At:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}.Serialize()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"session": "01J",
		"kind": "abort",
		"attempt": 4,
		"elapsed": 1500000000,
		"error": "boom",
		"at": "2024-01-02T03:04:05Z"
	}`, string(data))
}

func TestNatsBus_RoundTrip(t *testing.T) {
	bus, err := eventbus.NewNatsBus[eventbus.Event](nats.DefaultURL, nats.Timeout(time.Second))
	if err != nil {
		t.Skip("NATS not available for testing:", err)
	}

	received := make(chan eventbus.Message, 1)
	require.NoError(t, bus.Subscribe("backoff.test", eventbus.ReceiverFunc(func(_ context.Context, msg eventbus.Message) {
		received <- msg
	})))

	sent := eventbus.Event{Session: "nats", Kind: eventbus.KindSuccess, Attempt: 2}
	require.NoError(t, bus.Publish("backoff.test", sent))

	select {
	case msg := <-received:
		assert.Equal(t, sent, msg.(eventbus.Event))
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
	require.NoError(t, bus.Close())
}
