package eventbus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// NatsConn publishes messages as NATS subjects and decodes received payloads into T.
type NatsConn[T Message] struct {
	nc *nats.Conn
}

func NewNatsBus[T Message](url string, opts ...nats.Option) (*NatsConn[T], error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsConn[T]{nc: nc}, nil
}

func (eb *NatsConn[T]) Publish(topic string, msg Message) error {
	data, err := msg.Serialize()
	if err != nil {
		return err
	}
	return eb.nc.Publish(topic, data)
}

func (eb *NatsConn[T]) Subscribe(topic string, handler MessageReceiver) error {
	_, err := eb.nc.Subscribe(topic, eb.consumedMessages(context.Background(), handler.Receive))
	return err
}

// Close flushes pending messages and closes the connection.
func (eb *NatsConn[T]) Close() error {
	return eb.nc.Drain()
}

func (eb *NatsConn[T]) consumedMessages(ctx context.Context, receiver func(ctx context.Context, msg Message)) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		decoded, err := deserialize[T](msg)
		if err != nil {
			return
		}
		receiver(ctx, decoded)
	}
}

func deserialize[T any](message *nats.Msg) (T, error) {
	var msg T
	err := json.Unmarshal(message.Data, &msg)
	return msg, err
}
