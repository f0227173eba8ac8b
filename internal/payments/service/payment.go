package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "parkly/internal/bookings/errors"
	bookingrepo "parkly/internal/bookings/repository"
	"parkly/internal/payments/gateway"
	"parkly/internal/payments/validator"
	slotservice "parkly/internal/slots/service"
	"parkly/pkg/config"
	"parkly/pkg/currency"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/events"
	"parkly/pkg/metrics"
	"parkly/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	webhookPaymentCaptured = "payment.captured"
	webhookPaymentFailed   = "payment.failed"
	webhookRefundProcessed = "refund.processed"
)

// PaymentService reconciles gateway payment state with booking state. All
// idempotency decisions come from the booking document itself: the stored
// gateway order and payment ids say whether an operation already happened.
type PaymentService interface {
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)
	Verify(ctx context.Context, req *model.VerifyRequest) (*model.Booking, error)
	HandleWebhook(ctx context.Context, event *model.WebhookEvent) error
	Refund(ctx context.Context, req *model.RefundRequest) (*model.Booking, error)
}

type paymentService struct {
	bookings  bookingrepo.BookingRepository
	ledger    slotservice.Ledger
	gateway   gateway.Client
	sink      events.Sink
	validator *validator.PaymentValidator
	cfg       *config.Config
}

func NewPaymentService(
	bookings bookingrepo.BookingRepository,
	ledger slotservice.Ledger,
	gw gateway.Client,
	sink events.Sink,
	validator *validator.PaymentValidator,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		bookings:  bookings,
		ledger:    ledger,
		gateway:   gw,
		sink:      sink,
		validator: validator,
		cfg:       cfg,
	}
}

// CreateOrder opens a gateway order for a pending booking. Amount and
// currency always come from the booking; the request may repeat them only to
// be checked against it.
func (s *paymentService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validator.ValidateOrder(req); err != nil {
		s.cfg.Log.Warn("Order validation failed", "error", err)
		return nil, apperrors.Validation("Invalid order input", map[string]any{"error": err.Error()})
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Payment != nil && booking.Payment.Status == config.PaymentCompleted {
		return nil, apperrors.InvalidBookingState("Booking is already paid")
	}
	if booking.Status != config.Pending {
		return nil, apperrors.InvalidBookingState(fmt.Sprintf("Cannot create a payment order for a %s booking", booking.Status))
	}

	cur := s.bookingCurrency(booking)
	if req.Amount > 0 && req.Amount != booking.Amount {
		return nil, apperrors.InvalidInput("Amount does not match the booking amount")
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, cur) {
		return nil, apperrors.InvalidInput("Currency does not match the booking currency")
	}

	minor := currency.ToMinorUnits(booking.Amount, cur)
	order, err := s.gateway.CreateOrder(ctx, &gateway.OrderRequest{
		Amount:   minor,
		Currency: cur,
		Receipt:  booking.Reference,
		Notes: map[string]string{
			"booking_id":  booking.ID,
			"facility_id": booking.FacilityID,
		},
	})
	if err != nil {
		metrics.IncPaymentOperation("order", "error")
		return nil, err
	}

	if booking.Payment == nil {
		booking.Payment = &model.PaymentRecord{}
	}
	booking.Payment.Status = config.PaymentPending
	booking.Payment.GatewayOrderID = order.ID
	if req.Method != "" {
		booking.Payment.Method = req.Method
	}

	updated, err := s.bookings.UpdateIfStatus(ctx, booking.ID, config.Pending, booking)
	if err != nil {
		metrics.IncPaymentOperation("order", "error")
		return nil, apperrors.Internal("Failed to attach payment order", err)
	}
	if !updated {
		metrics.IncPaymentOperation("order", "error")
		return nil, apperrors.Conflict("Booking was updated concurrently")
	}

	metrics.IncPaymentOperation("order", "success")
	s.cfg.Log.Info("Payment order created",
		"booking_id", booking.ID,
		"order_id", order.ID,
		"amount_minor", minor,
		"currency", cur,
	)

	return &model.Order{
		OrderID:     order.ID,
		BookingID:   booking.ID,
		Amount:      booking.Amount,
		AmountMinor: minor,
		Currency:    cur,
		KeyID:       s.cfg.PaymentKeyID,
		Status:      order.Status,
	}, nil
}

// Verify checks the checkout signature and confirms the booking. Replays of
// an already-verified payment return the booking unchanged.
func (s *paymentService) Verify(ctx context.Context, req *model.VerifyRequest) (*model.Booking, error) {
	if err := s.validator.ValidateVerify(req); err != nil {
		s.cfg.Log.Warn("Verify validation failed", "error", err)
		return nil, apperrors.Validation("Invalid verify input", map[string]any{"error": err.Error()})
	}

	if !s.signatureValid(req.OrderID, req.PaymentID, req.Signature) {
		metrics.IncPaymentOperation("verify", "invalid_signature")
		s.cfg.Log.Warn("Payment signature mismatch", "booking_id", req.BookingID, "order_id", req.OrderID)
		return nil, apperrors.InvalidSignature("Payment signature verification failed")
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == config.Confirmed && booking.Payment != nil && booking.Payment.GatewayPaymentID == req.PaymentID {
		metrics.IncPaymentOperation("verify", "duplicate")
		return booking, nil
	}

	if booking.Status != config.Pending {
		return nil, apperrors.InvalidBookingState(fmt.Sprintf("Cannot verify payment for a %s booking", booking.Status))
	}
	if booking.Payment == nil || booking.Payment.GatewayOrderID != req.OrderID {
		return nil, apperrors.InvalidBookingState("No matching payment order for this booking")
	}

	if err := s.confirmBooking(ctx, booking, req.PaymentID, ""); err != nil {
		metrics.IncPaymentOperation("verify", "error")
		return nil, err
	}

	metrics.IncPaymentOperation("verify", "success")
	s.cfg.Log.Info("Payment verified",
		"booking_id", booking.ID,
		"order_id", req.OrderID,
		"payment_id", req.PaymentID,
	)
	return booking, nil
}

// HandleWebhook dispatches a gateway delivery. The transport middleware has
// already authenticated the raw body; everything here is reconciliation, and
// replays resolve to no-ops against current booking state.
func (s *paymentService) HandleWebhook(ctx context.Context, event *model.WebhookEvent) error {
	switch event.Event {
	case webhookPaymentCaptured:
		return s.handlePaymentCaptured(ctx, event)
	case webhookPaymentFailed:
		return s.handlePaymentFailed(ctx, event)
	case webhookRefundProcessed:
		return s.handleRefundProcessed(ctx, event)
	default:
		s.cfg.Log.Info("Ignoring webhook event", "event", event.Event)
		metrics.IncWebhookEvent(event.Event, "ignored")
		return nil
	}
}

// Refund sends a refund to the gateway and records the outcome. A zero or
// over-sized amount means a full refund; a full refund releases the slot and
// moves a confirmed booking to refunded, while completed stays completed.
func (s *paymentService) Refund(ctx context.Context, req *model.RefundRequest) (*model.Booking, error) {
	if err := s.validator.ValidateRefund(req); err != nil {
		s.cfg.Log.Warn("Refund validation failed", "error", err)
		return nil, apperrors.Validation("Invalid refund input", map[string]any{"error": err.Error()})
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Payment == nil || booking.Payment.GatewayPaymentID == "" || booking.Payment.Status != config.PaymentCompleted {
		return nil, apperrors.InvalidBookingState("Booking has no completed payment to refund")
	}

	amount := req.Amount
	full := amount <= 0 || amount >= booking.Amount
	if full {
		amount = booking.Amount
	}
	cur := s.bookingCurrency(booking)

	notes := map[string]string{"booking_id": booking.ID}
	if req.Reason != "" {
		notes["reason"] = req.Reason
	}

	refund, err := s.gateway.CreateRefund(ctx, booking.Payment.GatewayPaymentID, &gateway.RefundRequest{
		Amount: currency.ToMinorUnits(amount, cur),
		Notes:  notes,
	})
	if err != nil {
		metrics.IncPaymentOperation("refund", "error")
		return nil, err
	}

	booking.Payment.RefundID = refund.ID
	booking.Payment.RefundAmount = amount

	from := booking.Status
	if full {
		booking.Payment.Status = config.PaymentRefunded
		if model.CanTransition(from, config.Refunded) {
			booking.Status = config.Refunded
		}
	} else {
		booking.Payment.Status = config.PaymentPartiallyRefunded
	}

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		updated, err := s.bookings.UpdateIfStatus(sessCtx, booking.ID, from, booking)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.Conflict("Booking was updated concurrently")
		}
		if !full {
			return nil
		}
		return s.ledger.Release(sessCtx, booking.SlotID)
	})
	if err != nil {
		metrics.IncPaymentOperation("refund", "error")
		s.cfg.Log.Error("Failed to record refund", "booking_id", booking.ID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to record refund", err)
	}

	s.ledger.SyncAvailability(ctx, booking.FacilityID)
	if booking.Status == config.Refunded && from != config.Refunded {
		s.publish(ctx, booking.FacilityID, events.NewBookingRefunded(booking))
		metrics.IncBookingTransition(string(from), string(config.Refunded))
	}
	metrics.IncPaymentOperation("refund", "success")

	s.cfg.Log.Info("Refund processed",
		"booking_id", booking.ID,
		"refund_id", refund.ID,
		"amount", amount,
		"full", full,
	)
	return booking, nil
}

// --- Webhook handlers ---

func (s *paymentService) handlePaymentCaptured(ctx context.Context, event *model.WebhookEvent) error {
	entity := paymentEntity(event)
	if entity == nil || entity.OrderID == "" {
		metrics.IncWebhookEvent(event.Event, "error")
		return apperrors.InvalidInput("Webhook payload has no payment entity")
	}

	booking, err := s.findByOrderID(ctx, event.Event, entity.OrderID)
	if booking == nil {
		return err
	}

	if booking.Status == config.Confirmed || booking.Status == config.Completed {
		metrics.IncWebhookEvent(event.Event, "duplicate")
		return nil
	}
	if booking.Status != config.Pending {
		metrics.IncWebhookEvent(event.Event, "skipped")
		s.cfg.Log.Warn("Payment captured for a booking that can no longer confirm",
			"booking_id", booking.ID,
			"status", string(booking.Status),
		)
		return nil
	}

	if err := s.confirmBooking(ctx, booking, entity.ID, entity.Method); err != nil {
		metrics.IncWebhookEvent(event.Event, "error")
		return err
	}

	metrics.IncWebhookEvent(event.Event, "processed")
	s.cfg.Log.Info("Booking confirmed by webhook", "booking_id", booking.ID, "order_id", entity.OrderID)
	return nil
}

func (s *paymentService) handlePaymentFailed(ctx context.Context, event *model.WebhookEvent) error {
	entity := paymentEntity(event)
	if entity == nil || entity.OrderID == "" {
		metrics.IncWebhookEvent(event.Event, "error")
		return apperrors.InvalidInput("Webhook payload has no payment entity")
	}

	booking, err := s.findByOrderID(ctx, event.Event, entity.OrderID)
	if booking == nil {
		return err
	}

	// A failure delivery after the booking left pending carries no news:
	// either a retry already succeeded or the booking was cancelled.
	if booking.Status != config.Pending {
		metrics.IncWebhookEvent(event.Event, "duplicate")
		return nil
	}

	booking.Status = config.Cancelled
	if booking.Payment == nil {
		booking.Payment = &model.PaymentRecord{}
	}
	booking.Payment.Status = config.PaymentFailed
	booking.Payment.FailureReason = entity.ErrorReason
	booking.Cancellation = &model.Cancellation{
		Reason:      "Payment failed",
		CancelledBy: config.CancelledBySystem,
		CancelledAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		updated, err := s.bookings.UpdateIfStatus(sessCtx, booking.ID, config.Pending, booking)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.Conflict("Booking was updated concurrently")
		}
		return s.ledger.Release(sessCtx, booking.SlotID)
	})
	if err != nil {
		metrics.IncWebhookEvent(event.Event, "error")
		s.cfg.Log.Error("Failed to cancel booking after payment failure", "booking_id", booking.ID, "error", err)
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Failed to cancel booking", err)
	}

	s.ledger.SyncAvailability(ctx, booking.FacilityID)
	s.publish(ctx, booking.FacilityID, events.NewBookingCancelled(booking))
	metrics.IncBookingTransition(string(config.Pending), string(config.Cancelled))
	metrics.IncWebhookEvent(event.Event, "processed")

	s.cfg.Log.Info("Booking cancelled after payment failure",
		"booking_id", booking.ID,
		"order_id", entity.OrderID,
		"reason", entity.ErrorReason,
	)
	return nil
}

func (s *paymentService) handleRefundProcessed(ctx context.Context, event *model.WebhookEvent) error {
	entity := refundEntity(event)
	if entity == nil || entity.PaymentID == "" {
		metrics.IncWebhookEvent(event.Event, "error")
		return apperrors.InvalidInput("Webhook payload has no refund entity")
	}

	booking, err := s.bookings.FindByGatewayPaymentID(ctx, entity.PaymentID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			metrics.IncWebhookEvent(event.Event, "skipped")
			s.cfg.Log.Warn("Refund webhook for unknown payment", "payment_id", entity.PaymentID)
			return nil
		}
		metrics.IncWebhookEvent(event.Event, "error")
		return apperrors.Internal("Failed to look up booking by payment", err)
	}

	if booking.Payment == nil {
		metrics.IncWebhookEvent(event.Event, "skipped")
		return nil
	}
	if booking.Payment.Status == config.PaymentRefunded {
		metrics.IncWebhookEvent(event.Event, "duplicate")
		return nil
	}

	booking.Payment.Status = config.PaymentRefunded
	booking.Payment.RefundID = entity.ID
	if entity.Amount > 0 {
		booking.Payment.RefundAmount = currency.FromMinorUnits(entity.Amount, s.bookingCurrency(booking))
	} else {
		booking.Payment.RefundAmount = booking.Amount
	}

	from := booking.Status
	if model.CanTransition(from, config.Refunded) {
		booking.Status = config.Refunded
	}

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		updated, err := s.bookings.UpdateIfStatus(sessCtx, booking.ID, from, booking)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.Conflict("Booking was updated concurrently")
		}
		return s.ledger.Release(sessCtx, booking.SlotID)
	})
	if err != nil {
		metrics.IncWebhookEvent(event.Event, "error")
		s.cfg.Log.Error("Failed to record processed refund", "booking_id", booking.ID, "error", err)
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Failed to record refund", err)
	}

	s.ledger.SyncAvailability(ctx, booking.FacilityID)
	if booking.Status == config.Refunded && from != config.Refunded {
		s.publish(ctx, booking.FacilityID, events.NewBookingRefunded(booking))
		metrics.IncBookingTransition(string(from), string(config.Refunded))
	}
	metrics.IncWebhookEvent(event.Event, "processed")

	s.cfg.Log.Info("Refund recorded from webhook",
		"booking_id", booking.ID,
		"refund_id", entity.ID,
		"booking_status", string(booking.Status),
	)
	return nil
}

// --- Helpers ---

func (s *paymentService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// findByOrderID resolves a webhook delivery to its booking. A nil booking
// means the delivery was already answered: unknown orders are acked and
// skipped, lookup failures are returned for the handler to log.
func (s *paymentService) findByOrderID(ctx context.Context, event, orderID string) (*model.Booking, error) {
	booking, err := s.bookings.FindByGatewayOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			metrics.IncWebhookEvent(event, "skipped")
			s.cfg.Log.Warn("Webhook for unknown order", "event", event, "order_id", orderID)
			return nil, nil
		}
		metrics.IncWebhookEvent(event, "error")
		return nil, apperrors.Internal("Failed to look up booking by order", err)
	}
	return booking, nil
}

// confirmBooking flips a pending booking to confirmed with its payment
// completed. The slot stays reserved, so only the cache entry and listeners
// need to hear about it.
func (s *paymentService) confirmBooking(ctx context.Context, booking *model.Booking, paymentID, method string) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.Status = config.Confirmed
	if booking.Payment == nil {
		booking.Payment = &model.PaymentRecord{}
	}
	booking.Payment.Status = config.PaymentCompleted
	booking.Payment.GatewayPaymentID = paymentID
	if method != "" {
		booking.Payment.Method = method
	}
	booking.Payment.PaidAt = &now

	updated, err := s.bookings.UpdateIfStatus(ctx, booking.ID, config.Pending, booking)
	if err != nil {
		return apperrors.Internal("Failed to confirm booking", err)
	}
	if !updated {
		return apperrors.Conflict("Booking was updated concurrently")
	}

	s.ledger.SyncAvailability(ctx, booking.FacilityID)
	s.publish(ctx, booking.FacilityID, events.NewBookingConfirmed(booking))
	metrics.IncBookingTransition(string(config.Pending), string(config.Confirmed))
	return nil
}

func (s *paymentService) bookingCurrency(booking *model.Booking) string {
	if booking.Currency != "" {
		return booking.Currency
	}
	return s.cfg.DefaultCurrency
}

func (s *paymentService) signatureValid(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.PaymentKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *paymentService) publish(ctx context.Context, key string, event events.Event) {
	if err := s.sink.Publish(ctx, key, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event", "event", event.EventType(), "error", err)
	}
}

func paymentEntity(event *model.WebhookEvent) *model.GatewayEntity {
	if event.Payload.Payment == nil {
		return nil
	}
	return &event.Payload.Payment.Entity
}

func refundEntity(event *model.WebhookEvent) *model.GatewayEntity {
	if event.Payload.Refund == nil {
		return nil
	}
	return &event.Payload.Refund.Entity
}
