package main

import (
	"parkly/internal/gateway/core"
	"parkly/internal/gateway/flows"
	"parkly/internal/gateway/handler"
	"parkly/pkg/app"
	"parkly/pkg/client"
	"parkly/pkg/config"
)

const ServiceName = "gateway"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Gateway service")
	engine := initEngine(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewFlowHandler(engine, cfg.Log))
	serverApp.Run()
}

func initEngine(cfg *config.Config) *core.Engine {
	// Payment endpoints are hosted by the bookings service.
	clients := &core.Clients{
		Facilities: client.NewFacilityClient(cfg.FacilitiesBaseURL),
		Bookings:   client.NewBookingClient(cfg.BookingsBaseURL),
		Payments:   client.NewPaymentClient(cfg.BookingsBaseURL),
	}

	engine := core.NewEngine(clients, cfg.Log,
		flows.ReserveAndPay{},
		flows.FacilityOverview{},
		flows.OwnerDaySheet{},
	)

	cfg.Log.Info("Gateway engine initialized",
		"facilities_base_url", cfg.FacilitiesBaseURL,
		"bookings_base_url", cfg.BookingsBaseURL,
	)
	return engine
}
