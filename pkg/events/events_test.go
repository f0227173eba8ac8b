package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"parkly/pkg/config"
	"parkly/pkg/model"
)

func sampleBooking() *model.Booking {
	return &model.Booking{
		ID:         "64f1c2a9b3d4e5f6a7b8c9d0",
		Reference:  "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
		UserRef:    "user-42",
		FacilityID: "64f1c2a9b3d4e5f6a7b8c9d1",
		SlotID:     "64f1c2a9b3d4e5f6a7b8c9d2",
		SlotNumber: "A-12",
		StartTime:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Amount:     100,
		Currency:   "INR",
		Status:     config.Pending,
	}
}

func TestNewBookingCreated(t *testing.T) {
	b := sampleBooking()
	evt := NewBookingCreated(b)

	if evt.EventType() != TypeBookingCreated {
		t.Errorf("expected event type %s, got %s", TypeBookingCreated, evt.EventType())
	}
	if evt.Version != SchemaVersion {
		t.Errorf("expected version %s, got %s", SchemaVersion, evt.Version)
	}
	if evt.OccurredAt.IsZero() {
		t.Error("expected occurred_at to be stamped")
	}
	if evt.BookingID != b.ID || evt.FacilityID != b.FacilityID || evt.SlotID != b.SlotID {
		t.Error("expected identifiers copied from booking")
	}
	if evt.Amount != 100 || evt.Currency != "INR" {
		t.Errorf("expected amount 100 INR, got %v %s", evt.Amount, evt.Currency)
	}
	if evt.Status != "pending" {
		t.Errorf("expected status pending, got %s", evt.Status)
	}
}

func TestNewBookingConfirmed_PaymentOptional(t *testing.T) {
	b := sampleBooking()

	evt := NewBookingConfirmed(b)
	if evt.PaymentID != "" {
		t.Errorf("expected empty payment id without payment record, got %s", evt.PaymentID)
	}

	b.Payment = &model.PaymentRecord{GatewayPaymentID: "pay_123"}
	evt = NewBookingConfirmed(b)
	if evt.PaymentID != "pay_123" {
		t.Errorf("expected payment id pay_123, got %s", evt.PaymentID)
	}
}

func TestNewBookingCancelled(t *testing.T) {
	b := sampleBooking()
	b.Cancellation = &model.Cancellation{
		Reason:      "change of plans",
		CancelledBy: config.CancelledByUser,
		CancelledAt: time.Now(),
		RefundOwed:  true,
	}

	evt := NewBookingCancelled(b)
	if evt.EventType() != TypeBookingCancelled {
		t.Errorf("expected event type %s, got %s", TypeBookingCancelled, evt.EventType())
	}
	if evt.CancelledBy != "user" {
		t.Errorf("expected cancelled_by user, got %s", evt.CancelledBy)
	}
	if !evt.RefundOwed {
		t.Error("expected refund_owed true")
	}
}

func TestEventTypes(t *testing.T) {
	b := sampleBooking()

	tests := []struct {
		name string
		evt  Event
		want string
	}{
		{"created", NewBookingCreated(b), TypeBookingCreated},
		{"confirmed", NewBookingConfirmed(b), TypeBookingConfirmed},
		{"cancelled", NewBookingCancelled(b), TypeBookingCancelled},
		{"completed", NewBookingCompleted(b), TypeBookingCompleted},
		{"no show", NewBookingNoShow(b), TypeBookingNoShow},
		{"refunded", NewBookingRefunded(b), TypeBookingRefunded},
		{"availability", NewAvailabilityChanged(b.FacilityID, 3, 10), TypeAvailabilityChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.evt.EventType(); got != tt.want {
				t.Errorf("expected event type %s, got %s", tt.want, got)
			}
		})
	}
}

// Records must stay flat: one JSON object, no nested payload envelope.
func TestAvailabilityChanged_FlatJSON(t *testing.T) {
	evt := NewAvailabilityChanged("64f1c2a9b3d4e5f6a7b8c9d1", 7, 10)

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	for _, key := range []string{"event", "version", "occurred_at", "facility_id", "available_slots", "total_slots"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("expected top-level key %q in %s", key, data)
		}
	}
	if _, ok := flat["Meta"]; ok {
		t.Error("expected embedded meta fields to be inlined")
	}
}

func TestNoopSink(t *testing.T) {
	var sink Sink = NoopSink{}
	if err := sink.Publish(context.Background(), "key", NewAvailabilityChanged("f", 1, 2)); err != nil {
		t.Errorf("unexpected error from noop sink: %v", err)
	}
}
