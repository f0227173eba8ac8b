package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "parkly/pkg/errors"
	"parkly/pkg/logger"
	"parkly/pkg/metrics"
)

// Flow is a named pipeline of steps executed in order against a shared
// FlowContext.
type Flow interface {
	Name() string
	Steps() []*Step
}

type Engine struct {
	flows   map[string]Flow
	clients *Clients
	log     *logger.Logger
}

func NewEngine(clients *Clients, log *logger.Logger, flows ...Flow) *Engine {
	m := make(map[string]Flow, len(flows))
	for _, f := range flows {
		m[f.Name()] = f
	}
	return &Engine{
		flows:   m,
		clients: clients,
		log:     log,
	}
}

// Run executes the named flow and returns its output. The first failing
// step aborts the pipeline; its error is wrapped with the step name so the
// caller can tell where a composite request died.
func (e *Engine) Run(ctx context.Context, flowName string, input map[string]any) (map[string]any, error) {
	f, ok := e.flows[flowName]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown flow %q", flowName))
	}

	flow := NewFlowContext(input, e.clients, e.log)
	start := time.Now()

	for _, step := range f.Steps() {
		if err := ctx.Err(); err != nil {
			metrics.IncFlowExecuted(flowName, "cancelled")
			return nil, apperrors.Timeout(fmt.Sprintf("Flow %q cancelled", flowName))
		}
		if err := step.Run(ctx, flow); err != nil {
			e.log.Warn("Flow step failed",
				"flow", flowName,
				"step", step.Name,
				"error", err,
			)
			metrics.IncFlowExecuted(flowName, "error")
			if apperrors.IsAppError(err) {
				return nil, err
			}
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	metrics.IncFlowExecuted(flowName, "success")
	e.log.Info("Flow completed",
		"flow", flowName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return flow.Output, nil
}

// Flows lists the registered flow names sorted for stable output.
func (e *Engine) Flows() []string {
	names := make([]string, 0, len(e.flows))
	for name := range e.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
