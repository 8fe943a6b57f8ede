package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Announcer повторно публикует заказ в канал персонала.
type Announcer interface {
	Announce(ctx context.Context, orderID int64) error
}

// Router — паблишер outbox: order.announce уходит в канал персонала,
// остальные события во внешний паблишер, если он задан.
type Router struct {
	announcer Announcer
	events    domain.OutboxPublisher
	logger    *log.Entry
}

// NewRouter создаёт маршрутизатор; events может быть nil.
func NewRouter(announcer Announcer, events domain.OutboxPublisher, logger *log.Entry) *Router {
	if logger == nil {
		logger = log.WithField("component", "outbox-router")
	}
	return &Router{announcer: announcer, events: events, logger: logger}
}

// Publish реализует domain.OutboxPublisher.
func (r *Router) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.EventType == domain.EventOrderAnnounce {
		var event OrderEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("%w: decode announce payload: %w", domain.ErrOutboxPublish, err)
		}
		if event.OrderID == 0 {
			return fmt.Errorf("%w: announce payload has no order id", domain.ErrOutboxPublish)
		}
		return r.announcer.Announce(ctx, event.OrderID)
	}

	if r.events == nil {
		r.logger.WithFields(log.Fields{
			"outbox_id":  msg.ID,
			"event_type": msg.EventType,
		}).Debug("no event publisher configured, dropping outbox message")
		return nil
	}
	return r.events.Publish(ctx, msg)
}

var _ domain.OutboxPublisher = (*Router)(nil)
