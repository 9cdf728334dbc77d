// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package events carries committed visits from the allocator to display
// layers over Redis pub/sub. Channels are namespaced per ward, so a
// subscriber only ever sees its own ward.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/squareledger/models"
)

// Client publishes and subscribes to visit events.
// It is safe for concurrent use.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a client from Redis connection options.
func NewClient(opts *redis.Options) *Client {
	return &Client{rdb: redis.NewClient(opts)}
}

// NewClientFromURL creates a client from a redis:// URL.
func NewClientFromURL(url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewClient(opts), nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// VisitEventsChannel returns the pub/sub channel for a ward.
func VisitEventsChannel(wardID string) string {
	return "squareledger:" + wardID + ":visit_events"
}

// PublishVisit publishes a committed visit to the ward's channel.
func (c *Client) PublishVisit(ctx context.Context, ev models.VisitEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal visit event: %w", err)
	}
	if err := c.rdb.Publish(ctx, VisitEventsChannel(ev.WardID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish visit event: %w", err)
	}
	return nil
}

// Subscription is an active subscription to one ward's visit events.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan *models.VisitEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events is closed when the subscription is closed or its context ends.
func (s *Subscription) Events() <-chan *models.VisitEvent {
	return s.events
}

// Errors delivers decode failures; the offending message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeVisits subscribes to a ward's visit events. It returns once Redis
// has confirmed the subscription, so nothing published afterwards is missed.
func (c *Client) SubscribeVisits(ctx context.Context, wardID string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, VisitEventsChannel(wardID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to visit events: %w", err)
	}

	eventsChan := make(chan *models.VisitEvent, 16)
	errorsChan := make(chan error, 4)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev models.VisitEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal visit event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: eventsChan, errors: errorsChan, cancel: cancel}, nil
}
