package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/config"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// channel carries one message per durably stored event, so a process
// without its own subscription broker can still surface its writes to
// realtime subscribers held by the API process.
const channel = "events:stored"

type storedEvent struct {
	WebsiteID string        `json:"website_id"`
	Event     *domain.Event `json:"event"`
}

// Publisher broadcasts stored events over a Valkey channel. Delivery is
// best-effort: a failed publish is logged and dropped, never retried,
// matching the delivery guarantees of in-process notification.
type Publisher struct {
	client *redis.Client
	log    *zap.Logger
}

// NewPublisher creates the relay publisher and verifies connectivity.
func NewPublisher(ctx context.Context, cfg config.Valkey, log *zap.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	return &Publisher{
		client: client,
		log:    log,
	}, nil
}

// Notify publishes one stored event to the relay channel.
func (p *Publisher) Notify(ctx context.Context, websiteID string, event *domain.Event) {
	payload, err := json.Marshal(storedEvent{WebsiteID: websiteID, Event: event})
	if err != nil {
		p.log.Error("Failed to marshal stored event for relay",
			zap.String("website_id", websiteID),
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Warn("Failed to publish stored event to relay",
			zap.String("website_id", websiteID),
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Sink receives events relayed from other processes.
type Sink interface {
	Notify(ctx context.Context, websiteID string, event *domain.Event)
}

// Subscriber drains the relay channel and hands each event to the sink.
type Subscriber struct {
	client *redis.Client
	sink   Sink
	log    *zap.Logger
}

// NewSubscriber creates the relay subscriber.
func NewSubscriber(cfg config.Valkey, sink Sink, log *zap.Logger) *Subscriber {
	return &Subscriber{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		}),
		sink: sink,
		log:  log,
	}
}

// Run blocks draining the relay channel until the context is cancelled.
// Malformed messages are discarded with a warning.
func (s *Subscriber) Run(ctx context.Context) {
	pubsub := s.client.Subscribe(ctx, channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			s.log.Error("Failed to close relay subscription", zap.Error(err))
		}
	}()

	s.log.Info("Event relay subscriber started", zap.String("channel", channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Event relay subscriber shutting down")
			return
		case msg, ok := <-ch:
			if !ok {
				s.log.Warn("Event relay channel closed")
				return
			}

			var stored storedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &stored); err != nil {
				s.log.Warn("Discarding malformed relay message", zap.Error(err))
				continue
			}
			if stored.Event == nil {
				continue
			}

			s.sink.Notify(ctx, stored.WebsiteID, stored.Event)
		}
	}
}
