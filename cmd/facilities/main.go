package main

import (
	bookingrepo "parkly/internal/bookings/repository"
	"parkly/internal/facilities/handler"
	facilityrepo "parkly/internal/facilities/repository"
	"parkly/internal/facilities/service"
	"parkly/internal/facilities/validator"
	slotrepo "parkly/internal/slots/repository"
	slotservice "parkly/internal/slots/service"
	"parkly/pkg/app"
	"parkly/pkg/cache"
	"parkly/pkg/config"
	"parkly/pkg/events"
	"parkly/pkg/kafka"
	kafka_config "parkly/pkg/kafka/config"
	kafka_middleware "parkly/pkg/kafka/middleware"
)

const ServiceName = "facilities"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Facilities service")
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	sink := newEventSink(cfg)
	defer func() {
		if err := sink.Close(); err != nil {
			cfg.Log.Error("Failed to close event sink", "error", err)
		}
	}()

	facilityService := initServices(cfg, sink)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewFacilityHandler(facilityService, cfg.Log))
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

func initServices(cfg *config.Config, sink events.Sink) service.FacilityService {
	store := cache.NewStore(cfg.Client.Redis, cfg.AvailabilityCacheTTL)

	facilities := facilityrepo.NewMongoFacilityRepository(cfg)
	slots := slotrepo.NewMongoSlotRepository(cfg)
	locks := slotrepo.NewSlotLockRepository(cfg)
	bookings := bookingrepo.NewMongoBookingRepository(cfg)

	ledger := slotservice.NewLedger(slots, locks, bookings, facilities, store, sink, cfg)

	facilityValidator := validator.NewFacilityValidator(cfg.Log)
	facilityService := service.NewFacilityService(facilities, slots, ledger, store, facilityValidator, cfg)

	cfg.Log.Info("Facility service initialized", "database", cfg.MongoDatabaseName)
	return facilityService
}
