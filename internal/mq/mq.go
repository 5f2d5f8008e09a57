// Package mq carries club activity notifications over a message broker.
package mq

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Outgoing is a message about to be published. Messages sharing an
// OrderingKey are delivered in publish order by brokers that support it.
type Outgoing struct {
	Body        []byte
	Attributes  map[string]string
	OrderingKey string
}

// Delivery is a message handed to a subscriber.
type Delivery struct {
	ID         string
	Body       []byte
	Attributes map[string]string
}

// Handler processes a delivery. A non-nil error asks the broker to
// redeliver it.
type Handler func(ctx context.Context, d Delivery) error

// Broker is implemented by each supported message broker. Topics are
// activity kinds.
type Broker interface {
	Publish(ctx context.Context, topic string, msg Outgoing) (string, error)
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// MQ publishes and consumes club activity through a Broker.
type MQ struct {
	broker Broker
	logger *zap.Logger
}

func New(broker Broker, logger *zap.Logger) *MQ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQ{broker: broker, logger: logger}
}

// PublishActivity publishes a on the topic of its kind and returns the
// broker's message id.
func (m *MQ) PublishActivity(ctx context.Context, a Activity) (string, error) {
	msg, err := encodeActivity(a)
	if err != nil {
		return "", err
	}
	return m.broker.Publish(ctx, string(a.Kind), msg)
}

// SubscribeActivity calls handle for every activity of kind until ctx is
// done. Deliveries that cannot be decoded are logged and acknowledged so
// they are not redelivered forever.
func (m *MQ) SubscribeActivity(ctx context.Context, kind ActivityKind, handle func(context.Context, Activity) error) error {
	err := m.broker.Subscribe(ctx, string(kind), func(ctx context.Context, d Delivery) error {
		a, err := DecodeActivity(d)
		if err != nil {
			m.logger.Warn("dropping malformed activity", zap.String("message_id", d.ID), zap.Error(err))
			return nil
		}
		return handle(ctx, a)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *MQ) Close() error {
	return m.broker.Close()
}
