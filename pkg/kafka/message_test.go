package kafka

import (
	"errors"
	"testing"
)

func TestMessageBuilder_Defaults(t *testing.T) {
	msg := NewMessage().
		WithKey("facility-1").
		WithValue(map[string]string{"hello": "world"}).
		Build()

	if msg.Key != "facility-1" {
		t.Errorf("expected key facility-1, got %s", msg.Key)
	}
	if len(msg.Value) == 0 {
		t.Error("expected encoded value")
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}
}

func TestMessageBuilder_Headers(t *testing.T) {
	msg := NewMessage().
		WithKey("facility-1").
		WithRawValue([]byte(`{}`)).
		WithEventID("evt-123").
		WithEventType("booking.created").
		WithCorrelationID("corr-456").
		WithSchemaVersion("1").
		WithSource("bookings").
		Build()

	if msg.GetEventID() != "evt-123" {
		t.Errorf("expected event id evt-123, got %s", msg.GetEventID())
	}
	if msg.GetEventType() != "booking.created" {
		t.Errorf("expected event type booking.created, got %s", msg.GetEventType())
	}
	if msg.GetCorrelationID() != "corr-456" {
		t.Errorf("expected correlation id corr-456, got %s", msg.GetCorrelationID())
	}
	if v, _ := msg.GetHeader(HeaderSource); v != "bookings" {
		t.Errorf("expected source bookings, got %s", v)
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := NewMessage().WithKey("k").WithRawValue([]byte(`{}`)).Build()

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("expected initial retry count 0, got %d", got)
	}

	// Counts past 9 must survive the string round trip.
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("expected retry count 12, got %d", got)
	}
}

func TestMessage_RetryCountMalformedHeader(t *testing.T) {
	msg := NewMessage().WithKey("k").WithRawValue([]byte(`{}`)).Build()
	msg.Headers[HeaderRetryCount] = "not-a-number"

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("expected malformed retry count to read as 0, got %d", got)
	}
}

func TestMessage_DecodeValue(t *testing.T) {
	type payload struct {
		BookingID string `json:"booking_id"`
	}

	msg := NewMessage().WithKey("k").WithValue(payload{BookingID: "abc"}).Build()

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.BookingID != "abc" {
		t.Errorf("expected booking_id abc, got %s", decoded.BookingID)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil error", nil, ErrorTypeUnknown},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"timeout", errors.New("request timeout exceeded"), ErrorTypeTransient},
		{"broken pipe", errors.New("write: broken pipe"), ErrorTypeTransient},
		{"invalid message", errors.New("invalid message format"), ErrorTypePermanent},
		{"deserialization failure", errors.New("deserialization failed for record"), ErrorTypePermanent},
		{"unrecognised defaults to permanent", errors.New("something else entirely"), ErrorTypePermanent},
		{"typed transient", NewTransientError("broker unavailable", nil), ErrorTypeTransient},
		{"typed permanent", NewPermanentError("bad payload", nil), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := errors.New("connection refused")
	permanent := errors.New("invalid message format")

	tests := []struct {
		name       string
		err        error
		retries    int
		maxRetries int
		want       bool
	}{
		{"nil error", nil, 0, 3, false},
		{"transient under limit", transient, 0, 3, true},
		{"transient at limit", transient, 3, 3, false},
		{"permanent never retries", permanent, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err, tt.retries, tt.maxRetries); got != tt.want {
				t.Errorf("ShouldRetry(%v, %d, %d) = %v, want %v", tt.err, tt.retries, tt.maxRetries, got)
			}
		})
	}
}
