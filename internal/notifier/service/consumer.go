package service

import (
	"context"
	"fmt"

	"parkly/pkg/config"
	"parkly/pkg/events"
	"parkly/pkg/kafka"
	kafka_config "parkly/pkg/kafka/config"
	kafka_middleware "parkly/pkg/kafka/middleware"
	"parkly/pkg/metrics"
)

// consumerGroupID keeps every notifier replica in one consumer group so each
// lifecycle event is delivered to exactly one of them.
const consumerGroupID = "parkly-notifier"

// NotifierService is the consuming side of the lifecycle topic: it decodes
// each record, renders it and hands it to the notification channel. It
// implements contracts.Worker.
type NotifierService struct {
	cfg      *config.Config
	kafkaCfg *kafka_config.Config
	sender   Notifier
}

func NewNotifierService(cfg *config.Config, kafkaCfg *kafka_config.Config, sender Notifier) *NotifierService {
	return &NotifierService{
		cfg:      cfg,
		kafkaCfg: kafkaCfg,
		sender:   sender,
	}
}

// Run consumes the lifecycle topic until ctx is cancelled.
func (s *NotifierService) Run(ctx context.Context) error {
	consumer, err := kafka.NewConsumer(s.kafkaCfg, s.cfg.Log,
		s.kafkaCfg.Topic, consumerGroupID, s.kafkaCfg.DLQTopic, s.handle)
	if err != nil {
		return fmt.Errorf("notifier consumer: %w", err)
	}

	if s.kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(s.cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	s.cfg.Log.Info("Notifier consuming lifecycle events",
		"topic", s.kafkaCfg.Topic,
		"group_id", consumerGroupID,
		"dlq_topic", s.kafkaCfg.DLQTopic,
	)

	runErr := consumer.Start(ctx)
	if err := consumer.Close(); err != nil {
		s.cfg.Log.Warn("Notifier consumer close failed", "error", err)
	}
	return runErr
}

// handle processes one record from the topic. Undecodable payloads are
// permanent failures bound for the DLQ; unknown event types are logged and
// acknowledged so newer producers never wedge older consumers.
func (s *NotifierService) handle(ctx context.Context, msg kafka.Message) error {
	var evt envelope
	if err := msg.DecodeValue(&evt); err != nil {
		return kafka.NewPermanentError("invalid message: undecodable event payload", err)
	}

	if evt.Event == "" {
		evt.Event = msg.GetEventType()
	}
	if evt.Event == "" {
		return kafka.NewPermanentError("invalid message: no event type", nil)
	}

	if evt.Version != events.SchemaVersion {
		s.cfg.Log.Warn("Event schema version differs from supported",
			"event", evt.Event,
			"version", evt.Version,
			"supported", events.SchemaVersion,
		)
	}

	subject, message, ok := render(&evt)
	if !ok {
		s.cfg.Log.Warn("No notification template for event type",
			"event", evt.Event, "event_id", msg.GetEventID())
		metrics.IncNotificationHandled(evt.Event)
		return nil
	}

	if err := s.sender.Notify(ctx, subject, message); err != nil {
		return kafka.NewTransientError("notification delivery failed", err)
	}

	metrics.IncNotificationHandled(evt.Event)
	return nil
}
