package kafka_middleware

import (
	"context"
	"time"

	"parkly/pkg/kafka"
	"parkly/pkg/metrics"
)

// MetricsProducerMiddleware records publish outcomes and latency in Prometheus
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		metrics.ObserveKafkaPublishDuration(time.Since(start).Seconds())

		if err != nil {
			metrics.IncKafkaPublished("error")
		} else {
			metrics.IncKafkaPublished("success")
		}

		return err
	}
}

// MetricsConsumerMiddleware records consume outcomes and latency in Prometheus
func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		metrics.ObserveKafkaConsumeDuration(time.Since(start).Seconds())

		if err != nil {
			metrics.IncKafkaConsumed("error")
		} else {
			metrics.IncKafkaConsumed("success")
		}

		return err
	}
}
