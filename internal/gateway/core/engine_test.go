package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	apperrors "parkly/pkg/errors"
	"parkly/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

type fakeFlow struct {
	name  string
	steps []*Step
}

func (f fakeFlow) Name() string   { return f.name }
func (f fakeFlow) Steps() []*Step { return f.steps }

func TestRun_ExecutesStepsInOrder(t *testing.T) {
	var order []string
	flow := fakeFlow{
		name: "greet",
		steps: []*Step{
			NewStep("load", func(ctx context.Context, fc *FlowContext) error {
				order = append(order, "load")
				fc.Process["name"] = strings.ToUpper(fc.ExtractString("name"))
				return nil
			}),
			NewStep("emit", func(ctx context.Context, fc *FlowContext) error {
				order = append(order, "emit")
				fc.Output["greeting"] = "hello " + fc.Process["name"].(string)
				return nil
			}),
		},
	}
	engine := NewEngine(&Clients{}, testLogger(), flow)

	output, err := engine.Run(context.Background(), "greet", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "load" || order[1] != "emit" {
		t.Errorf("expected both steps in order, got %v", order)
	}
	if output["greeting"] != "hello ADA" {
		t.Errorf("unexpected output: %v", output["greeting"])
	}
}

func TestRun_UnknownFlow(t *testing.T) {
	engine := NewEngine(&Clients{}, testLogger())

	_, err := engine.Run(context.Background(), "no_such_flow", nil)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	secondRan := false
	flow := fakeFlow{
		name: "failing",
		steps: []*Step{
			NewStep("explode", func(ctx context.Context, fc *FlowContext) error {
				return errors.New("remote unavailable")
			}),
			NewStep("after", func(ctx context.Context, fc *FlowContext) error {
				secondRan = true
				return nil
			}),
		},
	}
	engine := NewEngine(&Clients{}, testLogger(), flow)

	_, err := engine.Run(context.Background(), "failing", nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "step explode") {
		t.Errorf("expected the step name in the error, got %q", err)
	}
	if secondRan {
		t.Error("expected the pipeline to stop at the failing step")
	}
}

func TestRun_AppErrorPassesThrough(t *testing.T) {
	flow := fakeFlow{
		name: "validating",
		steps: []*Step{
			NewStep("validate", func(ctx context.Context, fc *FlowContext) error {
				return MissingParamErr("facility_id")
			}),
		},
	}
	engine := NewEngine(&Clients{}, testLogger(), flow)

	_, err := engine.Run(context.Background(), "validating", nil)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT to survive the pipeline, got %v", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	flow := fakeFlow{
		name: "slow",
		steps: []*Step{
			NewStep("never", func(ctx context.Context, fc *FlowContext) error {
				t.Error("expected no step to run with a cancelled context")
				return nil
			}),
		},
	}
	engine := NewEngine(&Clients{}, testLogger(), flow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, "slow", nil)
	if !apperrors.HasCode(err, apperrors.CodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
}

func TestFlows_SortedNames(t *testing.T) {
	engine := NewEngine(&Clients{}, testLogger(),
		fakeFlow{name: "zeta"},
		fakeFlow{name: "alpha"},
		fakeFlow{name: "mid"},
	)

	names := engine.Flows()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("expected %d flows, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, names[i])
		}
	}
}

func TestExtractTime(t *testing.T) {
	fc := NewFlowContext(map[string]any{
		"good": "2026-03-14T10:00:00Z",
		"bad":  "tomorrow-ish",
	}, nil, testLogger())

	parsed, err := fc.ExtractTime("good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time: %v", parsed)
	}

	if _, err := fc.ExtractTime("bad"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for a malformed timestamp, got %v", err)
	}
	if _, err := fc.ExtractTime("absent"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for a missing timestamp, got %v", err)
	}
}

func TestExtractStringList(t *testing.T) {
	fc := NewFlowContext(map[string]any{
		"json_array": []any{"a", "b", 3},
		"single":     "only",
		"typed":      []string{"x", "y"},
	}, nil, testLogger())

	if got := fc.ExtractStringList("json_array"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected non-strings dropped, got %v", got)
	}
	if got := fc.ExtractStringList("single"); len(got) != 1 || got[0] != "only" {
		t.Errorf("expected a single value wrapped, got %v", got)
	}
	if got := fc.ExtractStringList("typed"); len(got) != 2 {
		t.Errorf("expected typed slice passed through, got %v", got)
	}
	if got := fc.ExtractStringList("absent"); got != nil {
		t.Errorf("expected nil for a missing key, got %v", got)
	}
}

func TestRunLimited_ReleasesSlots(t *testing.T) {
	ran := 0
	for i := 0; i < maxConcurrentCalls*3; i++ {
		RunLimited(func() { ran++ })
	}
	if ran != maxConcurrentCalls*3 {
		t.Errorf("expected every call to run, got %d", ran)
	}
}

func TestRunLimited_ReleasesSlotOnPanic(t *testing.T) {
	func() {
		defer func() { _ = recover() }()
		RunLimited(func() { panic("boom") })
	}()

	// Exhausting the semaphore afterwards proves the panicking call
	// released its slot.
	for i := 0; i < maxConcurrentCalls; i++ {
		RunLimited(func() {})
	}
}
