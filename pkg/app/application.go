package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkly/pkg/config"
	"parkly/pkg/contracts"
	"parkly/pkg/metrics"
	"parkly/pkg/middleware"
)

// Application owns the HTTP server of one service: the middleware stack
// around the domain router, the health and metrics endpoints, and any
// background workers tied to the server's lifetime.
type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	appHandler       http.Handler
	webhookSecret    string
	webhookPath      string
	workers          []contracts.Worker
	workerWG         sync.WaitGroup
}

func NewApplication() *Application {
	return &Application{}
}

// EnableWebhookVerification turns on signature checking for the given path.
// Must be called before SetApp.
func (a *Application) EnableWebhookVerification(secret, path string) {
	a.webhookSecret = secret
	a.webhookPath = path
}

// AddWorker registers a background worker started alongside the server and
// stopped on shutdown. Must be called before Run.
func (a *Application) AddWorker(w contracts.Worker) {
	a.workers = append(a.workers, w)
}

func (a *Application) SetApp(cfg *config.Config, appHandler contracts.Handler) {
	a.cfg = cfg
	metrics.Register()
	a.setHealthHandler()
	a.setAppHandler(appHandler)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.UserRefExtractor,
		a.cfg.Log,
	)

	// Middleware order: Recovery → Logging → MaxSize → ContentType → Signature → RateLimit → Timeout → Idempotency → Router
	var appHTTPHandler http.Handler = appRouter
	appHTTPHandler = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(appHTTPHandler)
	appHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHTTPHandler)
	appHTTPHandler = middleware.RateLimit(a.rateLimiter)(appHTTPHandler)

	if a.webhookSecret != "" {
		appHTTPHandler = middleware.WebhookSignatureVerification(a.webhookSecret, a.webhookPath, a.cfg.Log)(appHTTPHandler)
		a.cfg.Log.Info("Webhook signature verification enabled", "path", a.webhookPath)
	}

	appHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHTTPHandler)
	appHTTPHandler = middleware.RequestLogging(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.Recovery(a.cfg.Log)(appHTTPHandler)
	a.appHandler = appHTTPHandler
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", a.appHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	for _, w := range a.workers {
		a.workerWG.Add(1)
		go func(w contracts.Worker) {
			defer a.workerWG.Done()
			if err := w.Run(workerCtx); err != nil && workerCtx.Err() == nil {
				a.cfg.Log.Error("Worker stopped unexpectedly", "error", err)
			}
		}(w)
	}

	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown(cancelWorkers)
	}
}

func (a *Application) gracefulShutdown(cancelWorkers context.CancelFunc) {
	a.cfg.Log.Info("Starting graceful shutdown...")

	cancelWorkers()
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()

	workersDone := make(chan struct{})
	go func() {
		a.workerWG.Wait()
		close(workersDone)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-workersDone:
		a.cfg.Log.Info("Background workers stopped")
	case <-ctx.Done():
		a.cfg.Log.Warn("Background workers did not stop before the deadline")
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
