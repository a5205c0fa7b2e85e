package eventbus

import (
	"context"
	"errors"
)

// DefaultTopic is the topic retry lifecycle events are published on.
const DefaultTopic = "backoff.events"

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("eventbus: bus is closed")

type Bus interface {
	Publish(topic string, msg Message) error
	Subscribe(topic string, handler MessageReceiver) error
	Close() error
}

// Message is anything that can travel on a bus.
type Message interface {
	Serialize() ([]byte, error)
}

type MessageReceiver interface {
	Receive(ctx context.Context, msg Message)
}

// ReceiverFunc adapts a function into a MessageReceiver.
type ReceiverFunc func(ctx context.Context, msg Message)

func (f ReceiverFunc) Receive(ctx context.Context, msg Message) {
	f(ctx, msg)
}
