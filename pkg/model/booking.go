package model

import (
	"time"

	"parkly/pkg/config/enums"
)

type Booking struct {
	ID           string               `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Reference    string               `json:"reference,omitempty" bson:"reference,omitempty" validate:"omitempty,uuid4"`
	UserRef      string               `json:"user_ref" bson:"user_ref" validate:"required,min=2,max=100"`
	FacilityID   string               `json:"facility_id" bson:"facility_id" validate:"required,mongodb"`
	SlotID       string               `json:"slot_id" bson:"slot_id" validate:"required,mongodb"`
	SlotNumber   string               `json:"slot_number,omitempty" bson:"slot_number,omitempty"`
	Vehicle      Vehicle              `json:"vehicle" bson:"vehicle" validate:"required"`
	StartTime    time.Time            `json:"start_time" bson:"start_time" validate:"required"`
	EndTime      time.Time            `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Amount       float64              `json:"amount" bson:"amount" validate:"omitempty,gte=0"`
	Currency     string               `json:"currency,omitempty" bson:"currency,omitempty" validate:"omitempty,iso4217"`
	Status       enums.BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed no_show refunded"`
	Token        string               `json:"token,omitempty" bson:"token,omitempty"`
	Payment      *PaymentRecord       `json:"payment,omitempty" bson:"payment,omitempty"`
	Cancellation *Cancellation        `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	CheckInTime  *time.Time           `json:"check_in_time,omitempty" bson:"check_in_time,omitempty"`
	CheckOutTime *time.Time           `json:"check_out_time,omitempty" bson:"check_out_time,omitempty"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time            `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

type Vehicle struct {
	Type   enums.SlotType `json:"type" bson:"type" validate:"required,oneof=car bike ev handicap truck"`
	Number string          `json:"number" bson:"number" validate:"required,vehicle_plate"`
	Make   string          `json:"make,omitempty" bson:"make,omitempty" validate:"omitempty,max=50"`
	Model  string          `json:"model,omitempty" bson:"model,omitempty" validate:"omitempty,max=50"`
	Color  string          `json:"color,omitempty" bson:"color,omitempty" validate:"omitempty,max=30"`
}

type PaymentRecord struct {
	Method           string               `json:"method,omitempty" bson:"method,omitempty"`
	Status           enums.PaymentStatus `json:"status" bson:"status" validate:"required,oneof=pending completed failed refunded partially_refunded"`
	GatewayOrderID   string               `json:"gateway_order_id,omitempty" bson:"gateway_order_id,omitempty"`
	GatewayPaymentID string               `json:"gateway_payment_id,omitempty" bson:"gateway_payment_id,omitempty"`
	TransactionID    string               `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	RefundID         string               `json:"refund_id,omitempty" bson:"refund_id,omitempty"`
	RefundAmount     float64              `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	FailureReason    string               `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	PaidAt           *time.Time           `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}

type Cancellation struct {
	Reason      string             `json:"reason,omitempty" bson:"reason,omitempty"`
	CancelledBy enums.CancelActor `json:"cancelled_by" bson:"cancelled_by" validate:"required,oneof=user owner system admin"`
	CancelledAt time.Time          `json:"cancelled_at" bson:"cancelled_at"`
	// RefundAmount is what was owed back at cancellation time; the executed
	// refund is tracked on the payment record.
	RefundAmount float64 `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	RefundOwed   bool    `json:"refund_owed" bson:"refund_owed"`
}

// BookingRequest is the payload accepted by the create endpoint. The slot,
// amount, token and timestamps on Booking are filled in by the service.
type BookingRequest struct {
	UserRef    string    `json:"user_ref" validate:"required,min=2,max=100"`
	FacilityID string    `json:"facility_id" validate:"required,mongodb"`
	SlotID     string    `json:"slot_id" validate:"required,mongodb"`
	Vehicle    Vehicle   `json:"vehicle" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

type CancelRequest struct {
	Reason      string             `json:"reason,omitempty" validate:"omitempty,max=500"`
	CancelledBy enums.CancelActor `json:"cancelled_by,omitempty" validate:"omitempty,oneof=user owner system admin"`
}

type BookingStatusUpdate struct {
	Status enums.BookingStatus `json:"status" validate:"required,oneof=pending confirmed cancelled completed no_show refunded"`
	Actor  enums.CancelActor   `json:"actor,omitempty" validate:"omitempty,oneof=user owner system admin"`
	Reason string               `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// bookingTransitions is the single source of truth for lifecycle moves.
// Terminal states map to an empty list.
var bookingTransitions = map[enums.BookingStatus][]enums.BookingStatus{
	enums.Pending:   {enums.Confirmed, enums.Cancelled},
	enums.Confirmed: {enums.Completed, enums.Cancelled, enums.Refunded, enums.NoShow},
	enums.Cancelled: {},
	enums.Completed: {},
	enums.NoShow:    {},
	enums.Refunded:  {},
}

func CanTransition(from, to enums.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalStatus(s enums.BookingStatus) bool {
	next, ok := bookingTransitions[s]
	return ok && len(next) == 0
}

// ActiveBookingStatuses are the statuses that hold a slot's time window.
func ActiveBookingStatuses() []enums.BookingStatus {
	return []enums.BookingStatus{enums.Pending, enums.Confirmed}
}
