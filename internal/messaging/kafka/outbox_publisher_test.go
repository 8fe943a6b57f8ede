package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	producer, mockProducer := testProducer(t)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		if env.EventType != "order.printed" || env.AggregateID != "17" {
			return fmt.Errorf("unexpected envelope %+v", env)
		}
		if string(env.Payload) != `{"status":"printed"}` {
			return fmt.Errorf("unexpected payload %s", env.Payload)
		}
		if got := headerValue(msg, HeaderEventType); got != "order.printed" {
			return fmt.Errorf("unexpected event type header %q", got)
		}
		if got := headerValue(msg, HeaderOriginalTopic); got != "" {
			return fmt.Errorf("regular topic must not carry %s, got %q", HeaderOriginalTopic, got)
		}
		return nil
	})

	publisher := NewOutboxPublisher(producer, "")
	if publisher.Topic() != TopicOrderEvents {
		t.Fatalf("expected default topic %s, got %s", TopicOrderEvents, publisher.Topic())
	}

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "17",
		EventType:     "order.printed",
		Payload:       []byte(`{"status":"printed"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_DLQHeaders(t *testing.T) {
	t.Parallel()

	producer, mockProducer := testProducer(t)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicDeadLetterQueue {
			return fmt.Errorf("unexpected topic %q", msg.Topic)
		}
		if got := headerValue(msg, HeaderOriginalTopic); got != TopicOrderEvents {
			return fmt.Errorf("unexpected original topic %q", got)
		}
		if headerValue(msg, HeaderFailedAt) == "" {
			return errors.New("missing failed-at header")
		}
		return nil
	})

	publisher := NewDLQPublisher(producer, "", "")
	if err := publisher.Publish(context.Background(), domain.OutboxMessage{ID: "outbox-2", EventType: "order.created"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	producer, mockProducer := testProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(producer, TopicOrderEvents)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-3",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "18",
		EventType:     "order.cancelled",
		Payload:       []byte(`{"status":"cancelled"}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{ID: "outbox-4"})
	if !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}
