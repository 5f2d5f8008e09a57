package mq

import (
	"context"
	"fmt"

	"github.com/clubroom/apiserver/config"
	"go.uber.org/zap"
)

// NewFromConfig connects the configured broker. It returns nil when
// notifications are disabled.
func NewFromConfig(ctx context.Context, cfg config.MQConfig, logger *zap.Logger) (*MQ, error) {
	var broker Broker
	switch cfg.Backend {
	case "", config.MQBackendNone:
		return nil, nil
	case config.MQBackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		broker = client
	case config.MQBackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		broker = client
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
	return New(broker, logger), nil
}
