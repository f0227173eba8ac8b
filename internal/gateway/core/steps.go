package core

import "context"

// Step is one named stage of a flow pipeline. Steps communicate through the
// FlowContext's Process map and must be safe to skip on earlier failure,
// which the engine guarantees by stopping at the first error.
type Step struct {
	Name string
	Run  func(ctx context.Context, flow *FlowContext) error
}

func NewStep(name string, run func(ctx context.Context, flow *FlowContext) error) *Step {
	return &Step{
		Name: name,
		Run:  run,
	}
}
