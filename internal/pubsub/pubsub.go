package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher defines the interface for publishing notification messages
type Publisher interface {
	// Publish publishes a message on topic
	Publish(ctx context.Context, topic string, msg *message.Message) error
	// Close closes the publisher
	Close() error
}

// Subscriber defines the interface for consuming notification messages.
// It satisfies watermill's message.Subscriber so it can feed a router directly.
type Subscriber interface {
	// Subscribe starts consuming messages from topic
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close closes the subscriber
	Close() error
}

// PubSub combines both Publisher and Subscriber interfaces
type PubSub interface {
	Publisher
	Subscriber
}

// AsWatermillPublisher exposes a Publisher through watermill's message.Publisher
func AsWatermillPublisher(p Publisher) message.Publisher {
	return &watermillPublisher{p: p}
}

type watermillPublisher struct {
	p Publisher
}

func (w *watermillPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if err := w.p.Publish(msg.Context(), topic, msg); err != nil {
			return err
		}
	}
	return nil
}

func (w *watermillPublisher) Close() error {
	return nil
}
