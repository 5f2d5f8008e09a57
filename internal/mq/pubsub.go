package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/clubroom/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubClient publishes each activity kind on its own topic with message
// ordering enabled, so one club's activity is delivered in order.
type PubSubClient struct {
	client             *pubsub.Client
	subscriptionSuffix string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSubClient{
		client:             client,
		subscriptionSuffix: suffix,
		topics:             make(map[string]*pubsub.Topic),
	}, nil
}

// Publish blocks until the server acknowledges msg. After a failed ordered
// publish the ordering key is resumed so later activity of the same club
// is not rejected.
func (p *PubSubClient) Publish(ctx context.Context, topic string, msg Outgoing) (string, error) {
	t, err := p.topic(ctx, topic)
	if err != nil {
		return "", err
	}

	id, err := t.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  msg.Attributes,
		OrderingKey: msg.OrderingKey,
	}).Get(ctx)
	if err != nil {
		if msg.OrderingKey != "" {
			t.ResumePublish(msg.OrderingKey)
		}
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	return id, nil
}

// Subscribe receives from the subscription named topic+suffix, creating it
// with ordered delivery when missing.
func (p *PubSubClient) Subscribe(ctx context.Context, topic string, handler Handler) error {
	t, err := p.topic(ctx, topic)
	if err != nil {
		return err
	}

	name := topic + p.subscriptionSuffix
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		sub, err = p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
			Topic:                 t,
			EnableMessageOrdering: true,
		})
		if err != nil {
			return fmt.Errorf("create subscription %s: %w", name, err)
		}
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		d := Delivery{ID: msg.ID, Body: msg.Data, Attributes: msg.Attributes}
		if err := handler(ctx, d); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for name, topic := range p.topics {
		topic.Stop()
		delete(p.topics, name)
	}
	p.mu.Unlock()
	return p.client.Close()
}

// topic returns a cached handle, creating the topic on first use.
func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("pubsub topic is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[name]; ok {
		return t, nil
	}

	t := p.client.Topic(name)
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if t, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", name, err)
		}
	}
	t.EnableMessageOrdering = true
	p.topics[name] = t
	return t, nil
}
