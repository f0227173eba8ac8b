package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	bookingserrors "parkly/internal/bookings/errors"
	"parkly/internal/bookings/repository"
	"parkly/internal/bookings/validator"
	facilityerrors "parkly/internal/facilities/errors"
	facilityrepo "parkly/internal/facilities/repository"
	slotservice "parkly/internal/slots/service"
	"parkly/pkg/config"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/events"
	"parkly/pkg/metrics"
	"parkly/pkg/model"
	"parkly/pkg/sanitizer"
	"parkly/pkg/sealer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByReference(ctx context.Context, reference string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Search(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.Booking, error)
	CheckIn(ctx context.Context, id string) (*model.Booking, error)
	CheckOut(ctx context.Context, id string) (*model.Booking, error)
	MarkNoShow(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	RunNoShowSweep(ctx context.Context)
}

type bookingService struct {
	repo       repository.BookingRepository
	facilities facilityrepo.FacilityRepository
	ledger     slotservice.Ledger
	tokens     *sealer.Sealer
	sink       events.Sink
	validator  *validator.BookingValidator
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	facilities facilityrepo.FacilityRepository,
	ledger slotservice.Ledger,
	tokens *sealer.Sealer,
	sink events.Sink,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		facilities: facilities,
		ledger:     ledger,
		tokens:     tokens,
		sink:       sink,
		validator:  validator,
		cfg:        cfg,
	}
}

// Create reserves the slot for the requested window and persists a pending
// booking in one transaction. TryReserve holds a per-slot advisory lock for
// the duration, so between the overlap check and the commit no competing
// request can book the same slot.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitizeRequest(req)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	facility, err := s.lookupFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if !facility.IsActive {
		return nil, apperrors.Validation("Facility is not accepting bookings", map[string]any{
			"facility_id": req.FacilityID,
		})
	}
	if !facility.Is24x7 {
		if err := s.ensureOpenDuring(facility, req.StartTime, req.EndTime); err != nil {
			return nil, err
		}
	}

	hold, err := s.ledger.TryReserve(ctx, req.SlotID, req.StartTime, req.EndTime, "")
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
			metrics.IncBookingCreated("conflict")
		}
		return nil, err
	}
	defer hold.Unlock(ctx)

	if hold.Slot.FacilityID != req.FacilityID {
		return nil, apperrors.NotFoundWithID("Slot", req.SlotID)
	}

	rate := hold.Slot.PricePerHour
	if rate == 0 {
		rate = facility.PricePerHour
	}
	bookingCurrency := facility.Currency
	if bookingCurrency == "" {
		bookingCurrency = s.cfg.DefaultCurrency
	}

	booking := &model.Booking{
		Reference:  uuid.NewString(),
		UserRef:    req.UserRef,
		FacilityID: req.FacilityID,
		SlotID:     req.SlotID,
		SlotNumber: hold.Slot.Number,
		Vehicle:    req.Vehicle,
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		Amount:     bookingAmount(rate, req.StartTime, req.EndTime),
		Currency:   bookingCurrency,
		Status:     config.Pending,
	}

	token, err := s.tokens.CreateOpaqueToken(booking.Reference, booking.UserRef)
	if err != nil {
		metrics.IncBookingCreated("error")
		return nil, apperrors.Internal("Failed to create booking token", err)
	}
	booking.Token = token

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return err
		}
		return s.ledger.MarkReserved(sessCtx, booking.SlotID)
	})
	if err != nil {
		metrics.IncBookingCreated("error")
		s.cfg.Log.Error("Failed to create booking", "slot_id", req.SlotID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.ledger.SyncAvailability(ctx, booking.FacilityID)
	s.publish(ctx, booking.FacilityID, events.NewBookingCreated(booking))
	metrics.IncBookingCreated("success")

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"reference", booking.Reference,
		"facility_id", booking.FacilityID,
		"slot_id", booking.SlotID,
		"amount", booking.Amount,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
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

func (s *bookingService) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	if reference == "" {
		return nil, apperrors.InvalidInput("Booking reference cannot be empty")
	}

	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", reference)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Search(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountBySearch(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by search",
				"facility_id", filter.FacilityID,
				"slot_id", filter.SlotID,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Search(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings",
				"facility_id", filter.FacilityID,
				"slot_id", filter.SlotID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Booking search completed",
		"facility_id", filter.FacilityID,
		"slot_id", filter.SlotID,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

// Cancel is allowed from pending at any time, and from confirmed only while
// the start time is still more than the grace period away.
func (s *bookingService) Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.Booking, error) {
	if req == nil {
		req = &model.CancelRequest{}
	}
	if err := s.validator.ValidateCancel(req); err != nil {
		s.cfg.Log.Warn("Cancel validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid cancel input", map[string]any{"error": err.Error()})
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if !model.CanTransition(from, config.Cancelled) {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Cannot cancel a %s booking", from))
	}
	if from == config.Confirmed && time.Until(booking.StartTime) <= s.cfg.CancellationGrace {
		return nil, apperrors.CancellationWindowClosed(fmt.Sprintf(
			"Confirmed bookings must be cancelled at least %s before the start time", s.cfg.CancellationGrace,
		))
	}

	actor := req.CancelledBy
	if actor == "" {
		actor = config.CancelledByUser
	}

	booking.Status = config.Cancelled
	booking.Cancellation = &model.Cancellation{
		Reason:      req.Reason,
		CancelledBy: actor,
		CancelledAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if booking.Payment != nil && booking.Payment.Status == config.PaymentCompleted {
		booking.Cancellation.RefundOwed = true
		booking.Cancellation.RefundAmount = booking.Amount
	}

	if err := s.commitTransition(ctx, booking, from, true); err != nil {
		return nil, err
	}
	s.finishTransition(ctx, booking, from, events.NewBookingCancelled(booking))

	s.cfg.Log.Info("Booking cancelled",
		"id", booking.ID,
		"cancelled_by", string(actor),
		"refund_owed", booking.Cancellation.RefundOwed,
	)
	return booking, nil
}

// CheckIn stamps the arrival and marks the slot occupied. The booking stays
// confirmed until check-out.
func (s *bookingService) CheckIn(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != config.Confirmed {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Cannot check in a %s booking", booking.Status))
	}
	if booking.CheckInTime != nil {
		return nil, apperrors.InvalidTransition("Booking is already checked in")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CheckInTime = &now

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		updated, err := s.repo.UpdateIfStatus(sessCtx, booking.ID, config.Confirmed, booking)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.Conflict("Booking was updated concurrently")
		}
		return s.ledger.MarkOccupied(sessCtx, booking.SlotID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to check in booking", "id", booking.ID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to check in booking", err)
	}

	s.ledger.SyncAvailability(ctx, booking.FacilityID)

	s.cfg.Log.Info("Booking checked in", "id", booking.ID, "slot_id", booking.SlotID)
	return booking, nil
}

// CheckOut completes the booking and releases the slot.
func (s *bookingService) CheckOut(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != config.Confirmed {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Cannot check out a %s booking", booking.Status))
	}
	if booking.CheckInTime == nil {
		return nil, apperrors.InvalidTransition("Booking was never checked in")
	}

	from := booking.Status
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.Status = config.Completed
	booking.CheckOutTime = &now

	if err := s.commitTransition(ctx, booking, from, true); err != nil {
		return nil, err
	}
	s.finishTransition(ctx, booking, from, events.NewBookingCompleted(booking))

	s.cfg.Log.Info("Booking checked out", "id", booking.ID, "slot_id", booking.SlotID)
	return booking, nil
}

// MarkNoShow closes out a confirmed booking whose window ended without a
// check-in and frees the slot.
func (s *bookingService) MarkNoShow(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != config.Confirmed {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Cannot mark a %s booking as no-show", booking.Status))
	}
	if booking.CheckInTime != nil {
		return nil, apperrors.InvalidTransition("Booking has a check-in")
	}
	if !time.Now().After(booking.EndTime) {
		return nil, apperrors.InvalidTransition("Booking window has not ended")
	}

	from := booking.Status
	booking.Status = config.NoShow

	if err := s.commitTransition(ctx, booking, from, true); err != nil {
		return nil, err
	}
	s.finishTransition(ctx, booking, from, events.NewBookingNoShow(booking))

	s.cfg.Log.Info("Booking marked no-show", "id", booking.ID, "slot_id", booking.SlotID)
	return booking, nil
}

// UpdateStatus is the privileged transition endpoint. It still honors the
// lifecycle graph; it only skips the user-facing guards such as the
// cancellation grace window.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Status update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid status update input", map[string]any{"error": err.Error()})
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if !model.CanTransition(from, update.Status) {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Cannot transition booking from %s to %s", from, update.Status))
	}

	actor := update.Actor
	if actor == "" {
		actor = config.CancelledByAdmin
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.Status = update.Status

	switch update.Status {
	case config.Cancelled, config.Refunded:
		booking.Cancellation = &model.Cancellation{
			Reason:      update.Reason,
			CancelledBy: actor,
			CancelledAt: now,
		}
		if booking.Payment != nil && booking.Payment.Status == config.PaymentCompleted {
			booking.Cancellation.RefundOwed = true
			booking.Cancellation.RefundAmount = booking.Amount
		}
	case config.Completed:
		if booking.CheckOutTime == nil {
			booking.CheckOutTime = &now
		}
	}

	// Confirming keeps the slot reserved; every other target leaves the
	// active set and releases it.
	release := update.Status != config.Confirmed

	if err := s.commitTransition(ctx, booking, from, release); err != nil {
		return nil, err
	}
	s.finishTransition(ctx, booking, from, lifecycleEvent(booking))

	s.cfg.Log.Info("Booking status updated",
		"id", booking.ID,
		"from", string(from),
		"to", string(update.Status),
		"actor", string(actor),
	)
	return booking, nil
}

// --- Helpers ---

func (s *bookingService) sanitizeRequest(req *model.BookingRequest) {
	req.UserRef = sanitizer.TrimAndNormalize(req.UserRef)
	if plate := sanitizer.NormalizePlate(req.Vehicle.Number); plate != "" {
		req.Vehicle.Number = plate
	}
	req.Vehicle.Make = sanitizer.TrimAndNormalize(req.Vehicle.Make)
	req.Vehicle.Model = sanitizer.TrimAndNormalize(req.Vehicle.Model)
	req.Vehicle.Color = sanitizer.TrimAndNormalize(req.Vehicle.Color)
}

func (s *bookingService) lookupFacility(ctx context.Context, id string) (*model.Facility, error) {
	facility, err := s.facilities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, facilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Facility", id)
		}
		if errors.Is(err, facilityerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid facility ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve facility", err)
	}
	return facility, nil
}

// ensureOpenDuring checks the opening hours table against every calendar day
// the window touches. A day without an entry is a closed day, and a segment
// running up to midnight only fits a 24x7 facility.
func (s *bookingService) ensureOpenDuring(facility *model.Facility, start, end time.Time) error {
	start, end = start.UTC(), end.UTC()

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for ds := dayStart; ds.Before(end); ds = ds.AddDate(0, 0, 1) {
		weekday := config.Weekday(ds.Weekday().String())
		hours, ok := facility.OperatingHours[weekday]
		if !ok {
			return s.closedError(facility.ID, weekday)
		}

		opens, errOpen := time.Parse("15:04", hours.Open)
		closes, errClose := time.Parse("15:04", hours.Close)
		if errOpen != nil || errClose != nil {
			return s.closedError(facility.ID, weekday)
		}
		openMin := opens.Hour()*60 + opens.Minute()
		closeMin := closes.Hour()*60 + closes.Minute()

		dayEnd := ds.AddDate(0, 0, 1)
		segStart, segEnd := start, end
		if ds.After(segStart) {
			segStart = ds
		}
		if dayEnd.Before(segEnd) {
			segEnd = dayEnd
		}

		startMin := segStart.Hour()*60 + segStart.Minute()
		endMin := segEnd.Hour()*60 + segEnd.Minute()
		if segEnd.Equal(dayEnd) {
			endMin = 24 * 60
		}

		if startMin < openMin || endMin > closeMin {
			return s.closedError(facility.ID, weekday)
		}
	}
	return nil
}

func (s *bookingService) closedError(facilityID string, weekday config.Weekday) error {
	return apperrors.Validation("Facility is closed during the requested window", map[string]any{
		"facility_id": facilityID,
		"day":         string(weekday),
	})
}

// commitTransition persists the already-mutated booking, guarded by its
// previous status, and optionally releases the slot in the same transaction.
// A guard miss means another request transitioned the booking first.
func (s *bookingService) commitTransition(ctx context.Context, booking *model.Booking, from config.BookingStatus, release bool) error {
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		updated, err := s.repo.UpdateIfStatus(sessCtx, booking.ID, from, booking)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.Conflict("Booking was updated concurrently")
		}
		if !release {
			return nil
		}
		return s.ledger.Release(sessCtx, booking.SlotID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", booking.ID, "error", err)
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Failed to update booking", err)
	}
	return nil
}

func (s *bookingService) finishTransition(ctx context.Context, booking *model.Booking, from config.BookingStatus, event events.Event) {
	s.ledger.SyncAvailability(ctx, booking.FacilityID)
	if event != nil {
		s.publish(ctx, booking.FacilityID, event)
	}
	metrics.IncBookingTransition(string(from), string(booking.Status))
}

func (s *bookingService) publish(ctx context.Context, key string, event events.Event) {
	if err := s.sink.Publish(ctx, key, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event", "event", event.EventType(), "error", err)
	}
}

func lifecycleEvent(booking *model.Booking) events.Event {
	switch booking.Status {
	case config.Confirmed:
		return events.NewBookingConfirmed(booking)
	case config.Cancelled:
		return events.NewBookingCancelled(booking)
	case config.Completed:
		return events.NewBookingCompleted(booking)
	case config.NoShow:
		return events.NewBookingNoShow(booking)
	case config.Refunded:
		return events.NewBookingRefunded(booking)
	}
	return nil
}

// bookingAmount bills whole hours: any started hour counts.
func bookingAmount(ratePerHour float64, start, end time.Time) float64 {
	hours := math.Ceil(end.Sub(start).Hours())
	return sanitizer.NormalizePrice(ratePerHour * hours)
}
