package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// eventSink — публикация событий заказов во внешнюю шину.
type eventSink struct {
	producer *kafka.Producer
	events   domain.OutboxPublisher
	dlq      domain.OutboxPublisher
}

// initKafka подключает Kafka, если заданы брокеры.
// Ошибка подключения не останавливает витрину: события тогда не уходят наружу.
func initKafka(cfg Config, logger *log.Entry) eventSink {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Debug("kafka brokers are not configured, order events stay local")
		return eventSink{}
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, logger.WithField("component", "kafka"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return eventSink{}
	}
	logger.WithFields(log.Fields{
		"brokers": cfg.KafkaBrokers,
		"topic":   cfg.KafkaTopic,
	}).Info("kafka producer initialized")
	return newEventSink(producer, cfg.KafkaTopic)
}

func newEventSink(producer *kafka.Producer, topic string) eventSink {
	if topic == "" {
		topic = kafka.TopicOrderEvents
	}
	return eventSink{
		producer: producer,
		events:   kafka.NewOutboxPublisher(producer, topic),
		dlq:      kafka.NewDLQPublisher(producer, kafka.TopicDeadLetterQueue, topic),
	}
}

// close закрывает producer, если он был создан.
func (s eventSink) close(logger *log.Entry) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
