package core

import (
	"fmt"
	"time"

	"parkly/pkg/client"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/logger"
)

// Clients bundles the downstream service clients a flow may call.
type Clients struct {
	Facilities *client.FacilityClient
	Bookings   *client.BookingClient
	Payments   *client.PaymentClient
}

// FlowContext carries one flow execution. Input is the caller's payload,
// Process holds intermediate results passed between steps, and Output is
// what the caller gets back.
type FlowContext struct {
	Input   map[string]any
	Process map[string]any
	Output  map[string]any
	Clients *Clients
	Log     *logger.Logger
}

func NewFlowContext(input map[string]any, clients *Clients, log *logger.Logger) *FlowContext {
	return &FlowContext{
		Input:   input,
		Process: make(map[string]any),
		Output:  make(map[string]any),
		Clients: clients,
		Log:     log,
	}
}

// ExtractString returns the input value for key, or "" when absent or not a
// string. Required parameters are checked by the flow's validation step.
func (c *FlowContext) ExtractString(key string) string {
	raw, ok := c.Input[key]
	if !ok {
		return ""
	}
	str, _ := raw.(string)
	return str
}

// ExtractTime parses the input value for key as RFC 3339.
func (c *FlowContext) ExtractTime(key string) (time.Time, error) {
	str := c.ExtractString(key)
	if str == "" {
		return time.Time{}, MissingParamErr(key)
	}
	parsed, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("Param [%v] is not a valid RFC 3339 timestamp", key))
	}
	return parsed, nil
}

// ExtractStringList accepts either a JSON array or a single string value.
func (c *FlowContext) ExtractStringList(key string) []string {
	raw, ok := c.Input[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// ExtractMap returns the input value for key as a JSON object, or nil.
func (c *FlowContext) ExtractMap(key string) map[string]any {
	raw, ok := c.Input[key]
	if !ok {
		return nil
	}
	m, _ := raw.(map[string]any)
	return m
}
