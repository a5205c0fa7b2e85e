package eventbus

import (
	"context"
	"sync"
)

var _ Bus = (*InMem)(nil)

type envelope struct {
	topic string
	msg   Message
}

// InMem delivers messages to the receivers subscribed to their topic, in publish order,
// from a single dispatch goroutine.
type InMem struct {
	ch chan envelope

	mu       sync.RWMutex
	handlers map[string][]MessageReceiver
	closed   bool

	done chan struct{}
}

func NewInMemBus() *InMem {
	b := &InMem{
		ch:       make(chan envelope, 100),
		handlers: make(map[string][]MessageReceiver),
		done:     make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Publish queues msg for delivery. It blocks while the queue is full.
func (b *InMem) Publish(topic string, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	b.ch <- envelope{topic: topic, msg: msg}
	return nil
}

func (b *InMem) Subscribe(topic string, handler MessageReceiver) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Close stops accepting messages and waits until the queued ones are delivered.
func (b *InMem) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	<-b.done
	return nil
}

func (b *InMem) dispatch() {
	defer close(b.done)

	for m := range b.ch {
		b.mu.RLock()
		handlers := b.handlers[m.topic]
		b.mu.RUnlock()

		for _, h := range handlers {
			h.Receive(context.Background(), m.msg)
		}
	}
}
