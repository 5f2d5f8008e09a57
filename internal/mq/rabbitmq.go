package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clubroom/apiserver/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes to a topic exchange with the activity kind as
// routing key. Publishes wait for the broker's confirmation.
type RabbitMQClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	cfg      config.RabbitMQConfig

	// mu serializes use of the shared channel.
	mu sync.Mutex
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if strings.TrimSpace(cfg.Exchange) == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := &RabbitMQClient{conn: conn, exchange: cfg.Exchange, cfg: cfg}
	if err := client.open(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return client, nil
}

func (r *RabbitMQClient) open() error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(r.exchange, amqp.ExchangeTopic, r.cfg.QueueDurable, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %s: %w", r.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("enable publisher confirms: %w", err)
	}
	if r.cfg.PrefetchCount > 0 {
		if err := ch.Qos(r.cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			return err
		}
	}
	r.channel = ch
	return nil
}

// Publish routes msg to every queue bound to topic. A message no queue is
// bound to is dropped by the broker; activity is best effort.
func (r *RabbitMQClient) Publish(ctx context.Context, topic string, msg Outgoing) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("rabbitmq topic is required")
	}

	headers := amqp.Table{}
	for key, value := range msg.Attributes {
		headers[key] = value
	}
	deliveryMode := amqp.Transient
	if r.cfg.QueueDurable {
		deliveryMode = amqp.Persistent
	}
	messageID := uuid.NewString()

	r.mu.Lock()
	confirmation, err := r.channel.PublishWithDeferredConfirmWithContext(ctx, r.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: deliveryMode,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         msg.Body,
	})
	r.mu.Unlock()
	if err != nil {
		return "", err
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return "", err
	}
	if !acked {
		return "", fmt.Errorf("rabbitmq rejected message %s", messageID)
	}
	return messageID, nil
}

// Subscribe consumes from the queue named topic+QueueSuffix, declaring it
// and binding it to topic first.
func (r *RabbitMQClient) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if strings.TrimSpace(topic) == "" {
		return errors.New("rabbitmq topic is required")
	}
	queue := topic + r.cfg.QueueSuffix
	consumerTag := fmt.Sprintf("clubroom-%s", uuid.NewString())

	r.mu.Lock()
	deliveries, err := r.bindAndConsume(queue, topic, consumerTag)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	defer func() {
		r.mu.Lock()
		_ = r.channel.Cancel(consumerTag, false)
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			d := Delivery{
				ID:         delivery.MessageId,
				Body:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, d); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// bindAndConsume is called with mu held.
func (r *RabbitMQClient) bindAndConsume(queue, topic, consumerTag string) (<-chan amqp.Delivery, error) {
	if _, err := r.channel.QueueDeclare(queue, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := r.channel.QueueBind(queue, topic, r.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s: %w", queue, err)
	}
	return r.channel.Consume(queue, consumerTag, false, false, false, false, nil)
}

func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
