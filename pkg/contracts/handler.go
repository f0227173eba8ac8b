package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Handlers registers several handlers on one router, for services that host
// more than one domain surface.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(router *httprouter.Router) {
	for _, h := range hs {
		h.RegisterRoutes(router)
	}
}

// Worker is a long-running background component. Run blocks until the
// context is cancelled or the worker fails.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a plain function to the Worker interface.
type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
