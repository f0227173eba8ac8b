// Package events defines the flat, versioned lifecycle records published to
// downstream subscribers. Each record carries enough context to project
// facility availability without re-querying the services.
package events

import (
	"time"

	"parkly/pkg/model"
)

const SchemaVersion = "1"

const (
	TypeBookingCreated      = "booking.created"
	TypeBookingConfirmed    = "booking.confirmed"
	TypeBookingCancelled    = "booking.cancelled"
	TypeBookingCompleted    = "booking.completed"
	TypeBookingNoShow       = "booking.no_show"
	TypeBookingRefunded     = "booking.refunded"
	TypeAvailabilityChanged = "availability.changed"
)

// Meta is embedded in every record; embedding keeps the JSON flat.
type Meta struct {
	Event      string    `json:"event"`
	Version    string    `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (m Meta) EventType() string { return m.Event }

func newMeta(event string) Meta {
	return Meta{
		Event:      event,
		Version:    SchemaVersion,
		OccurredAt: time.Now().UTC(),
	}
}

type BookingCreated struct {
	Meta
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	UserRef    string    `json:"user_ref"`
	FacilityID string    `json:"facility_id"`
	SlotID     string    `json:"slot_id"`
	SlotNumber string    `json:"slot_number"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
}

func NewBookingCreated(b *model.Booking) BookingCreated {
	return BookingCreated{
		Meta:       newMeta(TypeBookingCreated),
		BookingID:  b.ID,
		Reference:  b.Reference,
		UserRef:    b.UserRef,
		FacilityID: b.FacilityID,
		SlotID:     b.SlotID,
		SlotNumber: b.SlotNumber,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Amount:     b.Amount,
		Currency:   b.Currency,
		Status:     string(b.Status),
	}
}

type BookingConfirmed struct {
	Meta
	BookingID  string  `json:"booking_id"`
	FacilityID string  `json:"facility_id"`
	SlotID     string  `json:"slot_id"`
	PaymentID  string  `json:"payment_id"`
	Amount     float64 `json:"amount"`
}

func NewBookingConfirmed(b *model.Booking) BookingConfirmed {
	evt := BookingConfirmed{
		Meta:       newMeta(TypeBookingConfirmed),
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		SlotID:     b.SlotID,
		Amount:     b.Amount,
	}
	if b.Payment != nil {
		evt.PaymentID = b.Payment.GatewayPaymentID
	}
	return evt
}

type BookingCancelled struct {
	Meta
	BookingID   string `json:"booking_id"`
	FacilityID  string `json:"facility_id"`
	SlotID      string `json:"slot_id"`
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
	RefundOwed  bool   `json:"refund_owed"`
}

func NewBookingCancelled(b *model.Booking) BookingCancelled {
	evt := BookingCancelled{
		Meta:       newMeta(TypeBookingCancelled),
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		SlotID:     b.SlotID,
	}
	if b.Cancellation != nil {
		evt.CancelledBy = string(b.Cancellation.CancelledBy)
		evt.Reason = b.Cancellation.Reason
		evt.RefundOwed = b.Cancellation.RefundOwed
	}
	return evt
}

type BookingCompleted struct {
	Meta
	BookingID  string `json:"booking_id"`
	FacilityID string `json:"facility_id"`
	SlotID     string `json:"slot_id"`
}

func NewBookingCompleted(b *model.Booking) BookingCompleted {
	return BookingCompleted{
		Meta:       newMeta(TypeBookingCompleted),
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		SlotID:     b.SlotID,
	}
}

type BookingNoShow struct {
	Meta
	BookingID  string `json:"booking_id"`
	FacilityID string `json:"facility_id"`
	SlotID     string `json:"slot_id"`
}

func NewBookingNoShow(b *model.Booking) BookingNoShow {
	return BookingNoShow{
		Meta:       newMeta(TypeBookingNoShow),
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		SlotID:     b.SlotID,
	}
}

type BookingRefunded struct {
	Meta
	BookingID  string  `json:"booking_id"`
	FacilityID string  `json:"facility_id"`
	SlotID     string  `json:"slot_id"`
	RefundID   string  `json:"refund_id,omitempty"`
	Amount     float64 `json:"amount"`
}

func NewBookingRefunded(b *model.Booking) BookingRefunded {
	evt := BookingRefunded{
		Meta:       newMeta(TypeBookingRefunded),
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		SlotID:     b.SlotID,
	}
	if b.Payment != nil {
		evt.RefundID = b.Payment.RefundID
		evt.Amount = b.Payment.RefundAmount
	}
	return evt
}

type AvailabilityChanged struct {
	Meta
	FacilityID     string `json:"facility_id"`
	AvailableSlots int    `json:"available_slots"`
	TotalSlots     int    `json:"total_slots"`
}

func NewAvailabilityChanged(facilityID string, available, total int) AvailabilityChanged {
	return AvailabilityChanged{
		Meta:           newMeta(TypeAvailabilityChanged),
		FacilityID:     facilityID,
		AvailableSlots: available,
		TotalSlots:     total,
	}
}
