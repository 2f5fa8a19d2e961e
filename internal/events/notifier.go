package events

import (
	"context"
	"encoding/json"

	"dmgo/backend/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier forwards events to the gateway over redis pub/sub. Delivery is fire-and-forget.
type Notifier struct {
	rdb     redis.UniversalClient
	channel string
	log     *zap.SugaredLogger
}

func NewNotifier(rdb redis.UniversalClient, log *zap.SugaredLogger) *Notifier {
	return &Notifier{rdb: rdb, channel: config.EventsChannel, log: log}
}

// Handle publishes ev and logs failures. It has the Handler signature so it can drain a Bus.
func (n *Notifier) Handle(ctx context.Context, ev Event) {
	if err := n.Send(ctx, ev); err != nil {
		n.log.Errorw("Failed to publish event", "kind", ev.Kind, "messageId", ev.MessageID, "deliveryId", ev.DeliveryID, "error", err)
	}
}

// Send publishes ev and returns the redis error, if any.
func (n *Notifier) Send(ctx context.Context, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, config.PublishTimeout)
	defer cancel()

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, payload).Err()
}
