package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkly/pkg/events"
	"parkly/pkg/logger"
)

// Notifier delivers one rendered notification to its channel. The log
// implementation is the only channel today; an email or SMS sender slots in
// behind the same interface.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, subject, message string) error {
	n.log.Info("Notification", "subject", subject, "message", message)
	return nil
}

// envelope is the superset of the fields lifecycle records carry. Absent
// fields decode to their zero values, so one struct covers every record.
type envelope struct {
	Event      string    `json:"event"`
	Version    string    `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`

	BookingID   string    `json:"booking_id"`
	Reference   string    `json:"reference"`
	UserRef     string    `json:"user_ref"`
	FacilityID  string    `json:"facility_id"`
	SlotID      string    `json:"slot_id"`
	SlotNumber  string    `json:"slot_number"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	PaymentID   string    `json:"payment_id"`
	RefundID    string    `json:"refund_id"`
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	RefundOwed  bool      `json:"refund_owed"`

	AvailableSlots int `json:"available_slots"`
	TotalSlots     int `json:"total_slots"`
}

// bookingLabel prefers the human-facing reference over the raw id. Only
// booking.created carries the reference; the other records identify the
// booking by id.
func (e *envelope) bookingLabel() string {
	if e.Reference != "" {
		return e.Reference
	}
	return e.BookingID
}

// render produces the subject and body for one lifecycle record. ok is false
// for event types the notifier has no template for.
func render(evt *envelope) (subject, message string, ok bool) {
	switch evt.Event {
	case events.TypeBookingCreated:
		msg := fmt.Sprintf("Booking %s for slot %s, %s.",
			evt.bookingLabel(), evt.SlotNumber, formatWindow(evt.StartTime, evt.EndTime))
		if evt.Amount > 0 {
			msg += fmt.Sprintf(" Amount due: %s.", formatAmount(evt.Amount, evt.Currency))
		}
		return "Booking received", msg, true

	case events.TypeBookingConfirmed:
		msg := fmt.Sprintf("Booking %s is confirmed.", evt.bookingLabel())
		if evt.PaymentID != "" {
			msg += fmt.Sprintf(" Payment %s captured for %s.",
				evt.PaymentID, formatAmount(evt.Amount, evt.Currency))
		}
		return "Booking confirmed", msg, true

	case events.TypeBookingCancelled:
		msg := fmt.Sprintf("Booking %s was cancelled", evt.bookingLabel())
		if evt.CancelledBy != "" {
			msg += " by " + evt.CancelledBy
		}
		msg += "."
		if evt.Reason != "" {
			msg += " Reason: " + evt.Reason + "."
		}
		if evt.RefundOwed {
			msg += " A refund will follow."
		}
		return "Booking cancelled", msg, true

	case events.TypeBookingCompleted:
		return "Booking completed",
			fmt.Sprintf("Booking %s is completed.", evt.bookingLabel()), true

	case events.TypeBookingNoShow:
		return "Booking marked no-show",
			fmt.Sprintf("Booking %s was marked a no-show after its window ended.", evt.bookingLabel()), true

	case events.TypeBookingRefunded:
		msg := fmt.Sprintf("Booking %s was refunded", evt.bookingLabel())
		if evt.Amount > 0 {
			msg += " for " + formatAmount(evt.Amount, evt.Currency)
		}
		msg += "."
		if evt.RefundID != "" {
			msg += fmt.Sprintf(" Refund reference %s.", evt.RefundID)
		}
		return "Booking refunded", msg, true

	case events.TypeAvailabilityChanged:
		return "Availability changed",
			fmt.Sprintf("Facility %s has %d of %d slots available.",
				evt.FacilityID, evt.AvailableSlots, evt.TotalSlots), true
	}

	return "", "", false
}

func formatAmount(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}

// formatWindow renders a booking window in UTC, repeating the date only when
// the window crosses midnight.
func formatWindow(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "window unavailable"
	}
	s, e := start.UTC(), end.UTC()
	endLayout := "15:04"
	if s.Format("2006-01-02") != e.Format("2006-01-02") {
		endLayout = "2006-01-02 15:04"
	}
	return fmt.Sprintf("from %s to %s UTC", s.Format("2006-01-02 15:04"), e.Format(endLayout))
}
