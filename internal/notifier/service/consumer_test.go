package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"parkly/pkg/config"
	"parkly/pkg/events"
	"parkly/pkg/kafka"
	kafka_config "parkly/pkg/kafka/config"
	"parkly/pkg/logger"
	"parkly/pkg/model"
)

const (
	testBookingID  = "665f1c2ab1e4a93f0c2d7e11"
	testFacilityID = "665f1c2ab1e4a93f0c2d7e22"
	testSlotID     = "665f1c2ab1e4a93f0c2d7e33"
	testReference  = "3f0e8a9c-4b1d-4a6e-9c2f-7d5b8e1a0c44"
)

type sentNotification struct {
	subject string
	message string
}

type mockNotifier struct {
	notifyFunc func(ctx context.Context, subject, message string) error
	sent       []sentNotification
}

func (m *mockNotifier) Notify(ctx context.Context, subject, message string) error {
	m.sent = append(m.sent, sentNotification{subject: subject, message: message})
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, subject, message)
	}
	return nil
}

func newTestService(sender Notifier) *NotifierService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Output: io.Discard}),
	}
	kafkaCfg := &kafka_config.Config{
		Brokers:  []string{"localhost:9092"},
		Topic:    "parkly.events",
		DLQTopic: "parkly.events.dlq",
	}
	return NewNotifierService(cfg, kafkaCfg, sender)
}

func eventMessage(t *testing.T, event events.Event) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return kafka.Message{
		Key:   testFacilityID,
		Value: value,
		Headers: map[string]string{
			kafka.HeaderEventID:   "evt-test-1",
			kafka.HeaderEventType: event.EventType(),
		},
		Topic: "parkly.events",
	}
}

func confirmedBooking() *model.Booking {
	paidAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &model.Booking{
		ID:         testBookingID,
		Reference:  testReference,
		UserRef:    "user-77",
		FacilityID: testFacilityID,
		SlotID:     testSlotID,
		SlotNumber: "B-07",
		StartTime:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Amount:     150,
		Currency:   "INR",
		Status:     config.Confirmed,
		Payment: &model.PaymentRecord{
			Status:           config.PaymentCompleted,
			GatewayOrderID:   "order_N9f2kQ7TbXw31a",
			GatewayPaymentID: "pay_M4x8sdQ2LpYe77",
			PaidAt:           &paidAt,
		},
	}
}

func TestHandle_BookingCreatedNotifies(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	booking := confirmedBooking()
	booking.Status = config.Pending
	booking.Payment = nil
	msg := eventMessage(t, events.NewBookingCreated(booking))

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.subject != "Booking received" {
		t.Errorf("subject = %q, want %q", got.subject, "Booking received")
	}
	for _, want := range []string{testReference, "B-07", "2026-03-14 10:00", "150.00 INR"} {
		if !strings.Contains(got.message, want) {
			t.Errorf("message %q does not mention %q", got.message, want)
		}
	}
}

func TestHandle_BookingConfirmedMentionsPayment(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	msg := eventMessage(t, events.NewBookingConfirmed(confirmedBooking()))

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.subject != "Booking confirmed" {
		t.Errorf("subject = %q, want %q", got.subject, "Booking confirmed")
	}
	if !strings.Contains(got.message, "pay_M4x8sdQ2LpYe77") {
		t.Errorf("message %q does not mention the payment id", got.message)
	}
}

func TestHandle_CancellationMentionsRefund(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	booking := confirmedBooking()
	booking.Status = config.Cancelled
	booking.Cancellation = &model.Cancellation{
		Reason:      "Change of plans",
		CancelledBy: config.CancelledByUser,
		RefundOwed:  true,
		CancelledAt: time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC),
	}
	msg := eventMessage(t, events.NewBookingCancelled(booking))

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	for _, want := range []string{"cancelled by user", "Change of plans", "refund"} {
		if !strings.Contains(got.message, want) {
			t.Errorf("message %q does not mention %q", got.message, want)
		}
	}
}

func TestHandle_AvailabilityChangedNotifies(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	msg := eventMessage(t, events.NewAvailabilityChanged(testFacilityID, 7, 40))

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].message, "7 of 40") {
		t.Errorf("message %q does not carry the slot counts", sender.sent[0].message)
	}
}

func TestHandle_UndecodablePayloadIsPermanent(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	msg := kafka.Message{
		Key:     testFacilityID,
		Value:   []byte("{not json"),
		Headers: map[string]string{kafka.HeaderEventType: events.TypeBookingCreated},
	}

	err := svc.handle(context.Background(), msg)
	if err == nil {
		t.Fatal("handle() error = nil, want permanent error")
	}
	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) || !kafkaErr.IsPermanent() {
		t.Errorf("handle() error = %v, want permanent KafkaError", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d notifications, want 0", len(sender.sent))
	}
}

func TestHandle_MissingEventTypeIsPermanent(t *testing.T) {
	svc := newTestService(&mockNotifier{})

	msg := kafka.Message{
		Key:     testFacilityID,
		Value:   []byte(`{"booking_id":"abc"}`),
		Headers: map[string]string{},
	}

	err := svc.handle(context.Background(), msg)
	if err == nil {
		t.Fatal("handle() error = nil, want permanent error")
	}
	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) || !kafkaErr.IsPermanent() {
		t.Errorf("handle() error = %v, want permanent KafkaError", err)
	}
}

func TestHandle_EventTypeFallsBackToHeader(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	// Payload without the embedded event field; the header still names it.
	msg := kafka.Message{
		Key:     testFacilityID,
		Value:   []byte(`{"booking_id":"` + testBookingID + `","version":"1"}`),
		Headers: map[string]string{kafka.HeaderEventType: events.TypeBookingCompleted},
	}

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	if sender.sent[0].subject != "Booking completed" {
		t.Errorf("subject = %q, want %q", sender.sent[0].subject, "Booking completed")
	}
}

func TestHandle_UnknownEventTypeIsAcked(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	msg := kafka.Message{
		Key:     testFacilityID,
		Value:   []byte(`{"event":"facility.demolished","version":"1"}`),
		Headers: map[string]string{kafka.HeaderEventType: "facility.demolished"},
	}

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Errorf("handle() error = %v, want nil for unknown event type", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d notifications, want 0", len(sender.sent))
	}
}

func TestHandle_SchemaDriftStillDelivers(t *testing.T) {
	sender := &mockNotifier{}
	svc := newTestService(sender)

	msg := kafka.Message{
		Key:     testFacilityID,
		Value:   []byte(`{"event":"booking.completed","version":"2","booking_id":"` + testBookingID + `"}`),
		Headers: map[string]string{kafka.HeaderEventType: events.TypeBookingCompleted},
	}

	if err := svc.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d notifications, want 1", len(sender.sent))
	}
}

func TestHandle_DeliveryFailureIsTransient(t *testing.T) {
	sender := &mockNotifier{
		notifyFunc: func(ctx context.Context, subject, message string) error {
			return errors.New("channel unavailable")
		},
	}
	svc := newTestService(sender)

	msg := eventMessage(t, events.NewBookingCompleted(confirmedBooking()))

	err := svc.handle(context.Background(), msg)
	if err == nil {
		t.Fatal("handle() error = nil, want transient error")
	}
	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) || !kafkaErr.IsTransient() {
		t.Errorf("handle() error = %v, want transient KafkaError", err)
	}
}

func TestFormatWindow(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{
			name:  "same day",
			start: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC),
			want:  "from 2026-03-14 10:00 to 12:30 UTC",
		},
		{
			name:  "crosses midnight",
			start: time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC),
			want:  "from 2026-03-14 22:00 to 2026-03-15 02:00 UTC",
		},
		{
			name:  "zero times",
			start: time.Time{},
			end:   time.Time{},
			want:  "window unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatWindow(tt.start, tt.end); got != tt.want {
				t.Errorf("formatWindow() = %q, want %q", got, tt.want)
			}
		})
	}
}
