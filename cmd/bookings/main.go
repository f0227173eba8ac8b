package main

import (
	"context"

	bookinghandler "parkly/internal/bookings/handler"
	bookingrepo "parkly/internal/bookings/repository"
	bookingservice "parkly/internal/bookings/service"
	bookingvalidator "parkly/internal/bookings/validator"
	facilityrepo "parkly/internal/facilities/repository"
	paymentgateway "parkly/internal/payments/gateway"
	paymenthandler "parkly/internal/payments/handler"
	paymentservice "parkly/internal/payments/service"
	paymentvalidator "parkly/internal/payments/validator"
	slotrepo "parkly/internal/slots/repository"
	slotservice "parkly/internal/slots/service"
	"parkly/pkg/app"
	"parkly/pkg/cache"
	"parkly/pkg/config"
	"parkly/pkg/contracts"
	"parkly/pkg/events"
	"parkly/pkg/kafka"
	kafka_config "parkly/pkg/kafka/config"
	kafka_middleware "parkly/pkg/kafka/middleware"
	"parkly/pkg/sealer"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	sink := newEventSink(cfg)
	defer func() {
		if err := sink.Close(); err != nil {
			cfg.Log.Error("Failed to close event sink", "error", err)
		}
	}()

	bookingService, paymentService := initServices(cfg, sink)

	serverApp := app.NewApplication()
	serverApp.EnableWebhookVerification(cfg.PaymentWebhookSecret, "/api/v1/payments/webhook")
	serverApp.AddWorker(contracts.WorkerFunc(func(ctx context.Context) error {
		bookingService.RunNoShowSweep(ctx)
		return nil
	}))
	serverApp.SetApp(cfg, contracts.Handlers{
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		paymenthandler.NewPaymentHandler(paymentService, cfg.Log),
	})
	serverApp.Run()
}

func newEventSink(cfg *config.Config) *events.KafkaSink {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, kafkaCfg.Topic, kafkaCfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	return events.NewKafkaSink(producer, ServiceName)
}

func initServices(cfg *config.Config, sink events.Sink) (bookingservice.BookingService, paymentservice.PaymentService) {
	store := cache.NewStore(cfg.Client.Redis, cfg.AvailabilityCacheTTL)

	facilities := facilityrepo.NewMongoFacilityRepository(cfg)
	slots := slotrepo.NewMongoSlotRepository(cfg)
	locks := slotrepo.NewSlotLockRepository(cfg)
	bookings := bookingrepo.NewMongoBookingRepository(cfg)

	ledger := slotservice.NewLedger(slots, locks, bookings, facilities, store, sink, cfg)

	tokens, err := sealer.New(cfg.BookingTokenKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize booking token sealer", "error", err)
	}

	bookingValidator := bookingvalidator.NewBookingValidator(cfg.Log, cfg.MaxBookingDays)
	bookingService := bookingservice.NewBookingService(bookings, facilities, ledger, tokens, sink, bookingValidator, cfg)

	gw := paymentgateway.NewClient(cfg)
	paymentValidator := paymentvalidator.NewPaymentValidator(cfg.Log)
	paymentService := paymentservice.NewPaymentService(bookings, ledger, gw, sink, paymentValidator, cfg)

	cfg.Log.Info("Booking and payment services initialized", "database", cfg.MongoDatabaseName)
	return bookingService, paymentService
}
