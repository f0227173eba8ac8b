package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "bookings_created_total",
			Help:      "Count of booking creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "booking_transitions_total",
			Help:      "Count of booking lifecycle transitions.",
		},
		[]string{"from", "to"},
	)

	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "reservation_conflicts_total",
			Help:      "Count of reservation attempts rejected due to overlap.",
		},
	)

	slotLockRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "slot_lock_retries_total",
			Help:      "Count of slot lock acquisition retries.",
		},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "webhook_events_total",
			Help:      "Count of gateway webhook events by type and outcome.",
		},
		[]string{"event", "outcome"},
	)

	paymentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "payment_operations_total",
			Help:      "Count of payment operations by kind and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)

	noShowsMarked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "no_shows_marked_total",
			Help:      "Count of bookings marked no-show by the sweeper.",
		},
	)

	flowExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "flow_executions_total",
			Help:      "Count of gateway flow executions by flow and outcome.",
		},
		[]string{"flow", "outcome"},
	)

	notificationsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "notifications_handled_total",
			Help:      "Count of notification events handled by type.",
		},
		[]string{"event_type"},
	)

	kafkaPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "kafka_messages_published_total",
			Help:      "Count of Kafka messages published by result.",
		},
		[]string{"result"},
	)

	kafkaConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkly",
			Name:      "kafka_messages_consumed_total",
			Help:      "Count of Kafka messages consumed by result.",
		},
		[]string{"result"},
	)

	kafkaPublishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "parkly",
			Name:      "kafka_publish_duration_seconds",
			Help:      "Time to publish a Kafka message.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2},
		},
	)

	kafkaConsumeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "parkly",
			Name:      "kafka_consume_duration_seconds",
			Help:      "Time to process a consumed Kafka message.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		},
	)
)

// Register registers all metrics with the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingsCreated,
			bookingTransitions,
			reservationConflicts,
			slotLockRetries,
			webhookEvents,
			paymentOperations,
			availabilityCache,
			noShowsMarked,
			flowExecutions,
			notificationsHandled,
			kafkaPublished,
			kafkaConsumed,
			kafkaPublishDuration,
			kafkaConsumeDuration,
		)
	})
}

func IncBookingCreated(outcome string) {
	bookingsCreated.WithLabelValues(outcome).Inc()
}

func IncBookingTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

func IncReservationConflict() {
	reservationConflicts.Inc()
}

func IncSlotLockRetry() {
	slotLockRetries.Inc()
}

func IncWebhookEvent(event, outcome string) {
	webhookEvents.WithLabelValues(event, outcome).Inc()
}

func IncPaymentOperation(operation, outcome string) {
	paymentOperations.WithLabelValues(operation, outcome).Inc()
}

func IncCacheHit() {
	availabilityCache.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	availabilityCache.WithLabelValues("miss").Inc()
}

func IncCacheInvalidation() {
	availabilityCache.WithLabelValues("invalidate").Inc()
}

func IncNoShowsMarked(count int) {
	noShowsMarked.Add(float64(count))
}

func IncFlowExecuted(flow, outcome string) {
	flowExecutions.WithLabelValues(flow, outcome).Inc()
}

func IncNotificationHandled(eventType string) {
	notificationsHandled.WithLabelValues(eventType).Inc()
}

func IncKafkaPublished(result string) {
	kafkaPublished.WithLabelValues(result).Inc()
}

func IncKafkaConsumed(result string) {
	kafkaConsumed.WithLabelValues(result).Inc()
}

func ObserveKafkaPublishDuration(seconds float64) {
	kafkaPublishDuration.Observe(seconds)
}

func ObserveKafkaConsumeDuration(seconds float64) {
	kafkaConsumeDuration.Observe(seconds)
}
