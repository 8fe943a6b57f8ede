package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Envelope — формат события заказа в топике.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// OutboxTopicPublisher публикует outbox-сообщения в заданный топик.
type OutboxTopicPublisher struct {
	producer      *Producer
	topic         string
	originalTopic string
	now           func() time.Time
}

// NewOutboxPublisher создаёт паблишер событий заказов.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, now: time.Now}
}

// NewDLQPublisher создаёт паблишер для сообщений, которые не удалось доставить в originalTopic.
func NewDLQPublisher(producer *Producer, topic, originalTopic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	if originalTopic == "" {
		originalTopic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, originalTopic: originalTopic, now: time.Now}
}

// Topic возвращает топик публикации.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

// Publish реализует domain.OutboxPublisher; ключ сообщения — идентификатор заказа.
func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("%w: kafka publisher is not initialized", domain.ErrOutboxPublish)
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}
	payload := json.RawMessage(event.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	now := p.now().UTC()

	headers := []Header{
		{Key: HeaderEventType, Value: event.EventType},
		{Key: HeaderAggregateType, Value: event.AggregateType},
	}
	if p.originalTopic != "" {
		headers = append(headers,
			Header{Key: HeaderOriginalTopic, Value: p.originalTopic},
			Header{Key: HeaderFailedAt, Value: now.Format(time.RFC3339Nano)},
		)
	}

	return p.producer.PublishEvent(ctx, p.topic, key, Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		PublishedAt:   now,
	}, headers...)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
