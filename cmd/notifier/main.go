package main

import (
	"parkly/internal/notifier/service"
	"parkly/pkg/app"
	"parkly/pkg/config"
	kafka_config "parkly/pkg/kafka/config"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "notifier"

// routes is empty on purpose. The notifier exposes only the shared health
// and metrics endpoints; all of its work happens on the consumer worker.
type routes struct{}

func (routes) RegisterRoutes(_ *httprouter.Router) {}

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	cfg.Log.Info("Starting Notifier service")
	notifier := service.NewNotifierService(cfg, kafkaCfg, service.NewLogNotifier(cfg.Log))

	serverApp := app.NewApplication()
	serverApp.AddWorker(notifier)
	serverApp.SetApp(cfg, routes{})
	serverApp.Run()
}
