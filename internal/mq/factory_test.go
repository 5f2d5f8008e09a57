package mq

import (
	"context"
	"testing"

	"github.com/clubroom/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigDisabled(t *testing.T) {
	queue, err := NewFromConfig(context.Background(), config.MQConfig{Backend: config.MQBackendNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, queue)
}

func TestNewFromConfigRejectsUnknownBackend(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"}, nil)
	assert.ErrorContains(t, err, `unknown mq backend "kafka"`)
}

func TestNewFromConfigValidatesBrokerSettings(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.MQConfig{Backend: config.MQBackendRabbitMQ}, nil)
	assert.ErrorContains(t, err, "rabbitmq url is required")

	_, err = NewFromConfig(context.Background(), config.MQConfig{
		Backend:  config.MQBackendRabbitMQ,
		RabbitMQ: config.RabbitMQConfig{URL: "amqp://localhost"},
	}, nil)
	assert.ErrorContains(t, err, "rabbitmq exchange is required")

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: config.MQBackendPubSub}, nil)
	assert.ErrorContains(t, err, "pubsub project id is required")
}
