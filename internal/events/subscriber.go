package events

import (
	"context"
	"encoding/json"
	"fmt"

	"dmgo/backend/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscriber receives events from redis, drops envelopes it has already seen and queues the rest.
type Subscriber struct {
	rdb     redis.UniversalClient
	out     Publisher
	channel string
	log     *zap.SugaredLogger
}

func NewSubscriber(rdb redis.UniversalClient, out Publisher, log *zap.SugaredLogger) *Subscriber {
	return &Subscriber{rdb: rdb, out: out, channel: config.EventsChannel, log: log}
}

// Run blocks until ctx is done or the subscription fails.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.log.Infow("Event subscriber started.", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handlePayload(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handlePayload(ctx context.Context, payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.log.Warnw("Failed to decode event", "error", err)
		return
	}
	if err := ev.Validate(); err != nil {
		s.log.Warnw("Dropping invalid event", "error", err)
		return
	}

	if ev.DeliveryID != "" {
		first, err := s.rdb.SetNX(ctx, config.DeliveryDedupePrefix+ev.DeliveryID, 1, config.DeliveryDedupeTTL).Result()
		switch {
		case err != nil:
			// at-least-once: deliver when the dedupe store is unavailable
			s.log.Warnw("Failed to record delivery id", "deliveryId", ev.DeliveryID, "error", err)
		case !first:
			s.log.Debugw("Skipping duplicate event", "deliveryId", ev.DeliveryID)
			return
		}
	}

	if err := s.out.Publish(ctx, ev); err != nil {
		s.log.Errorw("Failed to queue event", "kind", ev.Kind, "messageId", ev.MessageID, "error", err)
	}
}
