package flows

import (
	"context"
	"encoding/json"
	"net/http"

	"parkly/internal/gateway/core"
	"parkly/pkg/config"
	"parkly/pkg/model"
)

// ReserveAndPay creates a booking and opens its payment order in one call.
// If the order cannot be opened the booking is cancelled again, so the slot
// never stays reserved for a booking nobody can pay.
type ReserveAndPay struct{}

func (ReserveAndPay) Name() string { return "reserve_and_pay" }

func (ReserveAndPay) Steps() []*core.Step {
	return []*core.Step{
		core.NewStep("validate_input", validateReserveAndPay),
		core.NewStep("create_booking", createBooking),
		core.NewStep("create_payment_order", createPaymentOrder),
	}
}

func validateReserveAndPay(ctx context.Context, flow *core.FlowContext) error {
	if flow.ExtractMap(keyBooking) == nil {
		return core.MissingParamErr(keyBooking)
	}
	return nil
}

// createBooking forwards the caller's booking object untouched; the
// bookings service owns validation and slot reservation.
func createBooking(ctx context.Context, flow *core.FlowContext) error {
	raw, err := json.Marshal(flow.ExtractMap(keyBooking))
	if err != nil {
		return err
	}

	resp, err := flow.Clients.Bookings.CreateRaw(ctx, raw)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return remoteErr("create booking", resp)
	}

	booking, err := flow.Clients.Bookings.DecodeBooking(resp)
	if err != nil {
		return err
	}
	flow.Process[procBooking] = booking
	flow.Output["booking"] = booking
	return nil
}

func createPaymentOrder(ctx context.Context, flow *core.FlowContext) error {
	booking := flow.Process[procBooking].(*model.Booking)

	resp, err := flow.Clients.Payments.CreateOrder(ctx, &model.OrderRequest{
		BookingID: booking.ID,
		Method:    flow.ExtractString(keyMethod),
	})
	if err != nil {
		cancelReservation(ctx, flow, booking)
		return err
	}
	if resp.StatusCode != http.StatusOK {
		cancelReservation(ctx, flow, booking)
		return remoteErr("create payment order", resp)
	}

	order, err := flow.Clients.Payments.DecodeOrder(resp)
	if err != nil {
		return err
	}
	flow.Output["order"] = order
	return nil
}

// cancelReservation compensates the booking created earlier in the flow.
// Failure here is logged, not returned: the caller already gets the order
// error, and a leftover pending booking only blocks its own time window.
func cancelReservation(ctx context.Context, flow *core.FlowContext, booking *model.Booking) {
	resp, err := flow.Clients.Bookings.Cancel(ctx, booking.ID, &model.CancelRequest{
		Reason:      "Payment order could not be created",
		CancelledBy: config.CancelledBySystem,
	})
	if err != nil {
		flow.Log.Error("Failed to cancel booking after order failure", "booking_id", booking.ID, "error", err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		flow.Log.Error("Failed to cancel booking after order failure", "booking_id", booking.ID, "status", resp.StatusCode)
		return
	}
	flow.Log.Info("Booking cancelled after payment order failure", "booking_id", booking.ID)
}
