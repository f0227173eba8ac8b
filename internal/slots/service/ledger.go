package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	sloterrors "parkly/internal/slots/errors"
	"parkly/internal/slots/repository"
	"parkly/pkg/config"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/events"
	"parkly/pkg/metrics"
	"parkly/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	slotLockTTL        = 10 * time.Second
	slotLockAttempts   = 3
	slotLockRetryDelay = 150 * time.Millisecond
)

// BookingCounts answers interval questions about a slot's active bookings.
// Implemented by the bookings repository; the ledger never reads booking
// documents directly.
type BookingCounts interface {
	CountOverlapping(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (int64, error)
	// CountActiveOnSlot counts pending/confirmed bookings on the slot. A zero
	// endingAfter counts all of them; otherwise only those still running past
	// that instant.
	CountActiveOnSlot(ctx context.Context, slotID string, endingAfter time.Time) (int64, error)
}

// FacilityCounters persists the derived availability projection onto the
// owning facility document.
type FacilityCounters interface {
	UpdateSlotCounts(ctx context.Context, facilityID string, available, total int) error
}

// AvailabilityInvalidator drops the cached availability snapshot for a
// facility. Satisfied by cache.Store.
type AvailabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, facilityID string) error
}

// Ledger is the authority over slot status and reservation conflicts. All
// slot mutations go through it so that every one recomputes the facility
// projection and announces the change.
type Ledger interface {
	TryReserve(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (*Hold, error)
	MarkReserved(ctx context.Context, slotID string) error
	MarkOccupied(ctx context.Context, slotID string) error
	Release(ctx context.Context, slotID string) error
	SetPhysicalStatus(ctx context.Context, slotID string, status config.SlotStatus, force bool) (int, error)
	RecomputeAvailability(ctx context.Context, facilityID string) (available int, total int, err error)
	Snapshot(ctx context.Context, facilityID string) (*model.Availability, error)
	SyncAvailability(ctx context.Context, facilityID string) (available int, total int)
}

// Hold is a successful reservation check: the slot was free for the window
// and the per-slot advisory lock is still held. The caller persists its
// booking while holding it and must Unlock on every path.
type Hold struct {
	Slot   *model.Slot
	unlock func(ctx context.Context)
}

// Unlock releases the advisory lock. Safe to call more than once.
func (h *Hold) Unlock(ctx context.Context) {
	if h.unlock != nil {
		h.unlock(ctx)
		h.unlock = nil
	}
}

type slotLedger struct {
	slots      repository.SlotRepository
	locks      repository.SlotLockRepository
	bookings   BookingCounts
	facilities FacilityCounters
	cache      AvailabilityInvalidator
	sink       events.Sink
	cfg        *config.Config
}

func NewLedger(
	slots repository.SlotRepository,
	locks repository.SlotLockRepository,
	bookings BookingCounts,
	facilities FacilityCounters,
	cache AvailabilityInvalidator,
	sink events.Sink,
	cfg *config.Config,
) Ledger {
	return &slotLedger{
		slots:      slots,
		locks:      locks,
		bookings:   bookings,
		facilities: facilities,
		cache:      cache,
		sink:       sink,
		cfg:        cfg,
	}
}

// TryReserve serializes per slot: the advisory lock is acquired first, then
// the maintenance and overlap checks run under it. Two intervals [s1,e1) and
// [s2,e2) conflict iff s1 < e2 && s2 < e1, so touching endpoints do not
// conflict. excludeBookingID lets a booking re-check its own window.
func (l *slotLedger) TryReserve(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (*Hold, error) {
	lockID, err := l.acquireSlotLock(ctx, slotID)
	if err != nil {
		return nil, err
	}

	unlock := func(ctx context.Context) {
		if releaseErr := l.locks.Delete(ctx, lockID); releaseErr != nil {
			l.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}

	slot, err := l.findSlot(ctx, slotID)
	if err != nil {
		unlock(ctx)
		return nil, err
	}

	if slot.Status == config.SlotMaintenance {
		unlock(ctx)
		metrics.IncReservationConflict()
		return nil, apperrors.SlotUnavailable("Slot is under maintenance")
	}

	overlapping, err := l.bookings.CountOverlapping(ctx, slotID, start, end, excludeBookingID)
	if err != nil {
		unlock(ctx)
		return nil, apperrors.Internal("Failed to check existing bookings", err)
	}
	if overlapping > 0 {
		unlock(ctx)
		metrics.IncReservationConflict()
		l.cfg.Log.Info("Reservation conflict",
			"slot_id", slotID,
			"start_time", start,
			"end_time", end,
			"overlapping", overlapping,
		)
		return nil, apperrors.SlotUnavailable("Slot is already booked for this time window")
	}

	return &Hold{Slot: slot, unlock: unlock}, nil
}

// MarkReserved flips an available slot to reserved. Occupied and maintenance
// slots are left alone: occupied overrides reserved while a check-in is
// active, and maintenance never reaches this point.
func (l *slotLedger) MarkReserved(ctx context.Context, slotID string) error {
	_, err := l.slots.TransitionStatus(ctx, slotID, config.SlotAvailable, config.SlotReserved)
	if err != nil {
		return apperrors.Internal("Failed to mark slot reserved", err)
	}
	return nil
}

// MarkOccupied records a physical arrival. Unconditional: the vehicle is in
// the slot regardless of what the ledger believed its status was.
func (l *slotLedger) MarkOccupied(ctx context.Context, slotID string) error {
	if err := l.slots.UpdateStatus(ctx, slotID, config.SlotOccupied); err != nil {
		return apperrors.Internal("Failed to mark slot occupied", err)
	}
	return nil
}

// Release recomputes the slot status after a booking leaves the active set:
// available when no active bookings remain, reserved otherwise. A
// maintenance override survives releases untouched.
func (l *slotLedger) Release(ctx context.Context, slotID string) error {
	slot, err := l.findSlot(ctx, slotID)
	if err != nil {
		return err
	}

	if slot.Status == config.SlotMaintenance {
		return nil
	}

	remaining, err := l.bookings.CountActiveOnSlot(ctx, slotID, time.Time{})
	if err != nil {
		return apperrors.Internal("Failed to count active bookings", err)
	}

	next := config.SlotAvailable
	if remaining > 0 {
		next = config.SlotReserved
	}
	if next == slot.Status {
		return nil
	}

	if err := l.slots.UpdateStatus(ctx, slotID, next); err != nil {
		return apperrors.Internal("Failed to update slot status", err)
	}
	return nil
}

// SetPhysicalStatus is the owner/admin override. Marking a slot with active
// future bookings as maintenance requires force; the bookings themselves are
// not touched. Returns the facility's availableSlots after the change.
func (l *slotLedger) SetPhysicalStatus(ctx context.Context, slotID string, status config.SlotStatus, force bool) (int, error) {
	switch status {
	case config.SlotAvailable, config.SlotOccupied, config.SlotReserved, config.SlotMaintenance:
	default:
		return 0, apperrors.InvalidInput(fmt.Sprintf("Unknown slot status: %s", status))
	}

	slot, err := l.findSlot(ctx, slotID)
	if err != nil {
		return 0, err
	}

	if slot.Status == status {
		available, _, err := l.RecomputeAvailability(ctx, slot.FacilityID)
		if err != nil {
			return 0, apperrors.Internal("Failed to recompute availability", err)
		}
		return available, nil
	}

	if status == config.SlotMaintenance && !force {
		active, err := l.bookings.CountActiveOnSlot(ctx, slotID, time.Now())
		if err != nil {
			return 0, apperrors.Internal("Failed to count active bookings", err)
		}
		if active > 0 {
			return 0, apperrors.InvalidTransition("Slot has active bookings; set force to mark it for maintenance")
		}
	}

	if err := l.slots.UpdateStatus(ctx, slotID, status); err != nil {
		return 0, apperrors.Internal("Failed to update slot status", err)
	}

	available, _ := l.SyncAvailability(ctx, slot.FacilityID)

	l.cfg.Log.Info("Slot status changed",
		"slot_id", slotID,
		"facility_id", slot.FacilityID,
		"from", slot.Status,
		"to", status,
		"force", force,
		"available_slots", available,
	)
	return available, nil
}

// RecomputeAvailability counts the slots whose status is available or
// reserved and persists the projection onto the facility document. Reserved
// slots still count toward the projection; only occupied and maintenance
// remove a slot from it.
func (l *slotLedger) RecomputeAvailability(ctx context.Context, facilityID string) (int, int, error) {
	available, err := l.slots.CountByFacilityAndStatuses(ctx, facilityID, []config.SlotStatus{config.SlotAvailable, config.SlotReserved})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count available slots: %w", err)
	}

	total, err := l.slots.CountByFacility(ctx, facilityID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count slots: %w", err)
	}

	if err := l.facilities.UpdateSlotCounts(ctx, facilityID, int(available), int(total)); err != nil {
		return 0, 0, fmt.Errorf("failed to persist slot counts: %w", err)
	}

	return int(available), int(total), nil
}

// Snapshot builds the availability view served to clients and cached per
// facility. It recomputes and persists the projection on the way.
func (l *slotLedger) Snapshot(ctx context.Context, facilityID string) (*model.Availability, error) {
	available, total, err := l.RecomputeAvailability(ctx, facilityID)
	if err != nil {
		return nil, apperrors.Internal("Failed to recompute availability", err)
	}

	byType, err := l.slots.CountByTypeAndStatuses(ctx, facilityID, []config.SlotStatus{config.SlotAvailable, config.SlotReserved})
	if err != nil {
		return nil, apperrors.Internal("Failed to count slots by type", err)
	}

	return &model.Availability{
		FacilityID:     facilityID,
		TotalSlots:     total,
		AvailableSlots: available,
		ByType:         byType,
		ComputedAt:     time.Now().UTC(),
	}, nil
}

// SyncAvailability runs after the authoritative write commits: recompute the
// projection, drop the cached snapshot, announce the change. Failures here
// are logged and never returned, so a committed transition cannot be failed
// by its own bookkeeping; the cache TTL bounds any staleness they leave.
func (l *slotLedger) SyncAvailability(ctx context.Context, facilityID string) (int, int) {
	available, total, err := l.RecomputeAvailability(ctx, facilityID)
	if err != nil {
		l.cfg.Log.Warn("Failed to recompute facility availability", "facility_id", facilityID, "error", err)
	}

	if invErr := l.cache.InvalidateAvailability(ctx, facilityID); invErr != nil {
		l.cfg.Log.Warn("Failed to invalidate availability cache", "facility_id", facilityID, "error", invErr)
	}

	if err == nil {
		event := events.NewAvailabilityChanged(facilityID, available, total)
		if pubErr := l.sink.Publish(ctx, facilityID, event); pubErr != nil {
			l.cfg.Log.Warn("Failed to publish availability event", "facility_id", facilityID, "error", pubErr)
		}
	}

	return available, total
}

func (l *slotLedger) findSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	slot, err := l.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Slot", slotID)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid slot ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve slot", err)
	}
	return slot, nil
}

// acquireSlotLock inserts the advisory lock document, retrying a bounded
// number of times while another request holds it. The lock id depends on the
// slot alone, so any two windows on one slot contend here.
func (l *slotLedger) acquireSlotLock(ctx context.Context, slotID string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s", slotID)

	for attempt := 1; ; attempt++ {
		lock := &model.SlotLock{
			ID:        lockID,
			SlotID:    slotID,
			ExpiresAt: time.Now().Add(slotLockTTL),
		}

		_, err := l.locks.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Internal("Failed to acquire slot lock", err)
		}

		if attempt >= slotLockAttempts {
			metrics.IncReservationConflict()
			l.cfg.Log.Info("Slot lock contention exhausted retries", "slot_id", slotID, "attempts", attempt)
			return "", apperrors.SlotUnavailable("Slot is being reserved by another request. Please try again.")
		}

		metrics.IncSlotLockRetry()
		select {
		case <-ctx.Done():
			return "", apperrors.Timeout("Cancelled while waiting for the slot lock")
		case <-time.After(slotLockRetryDelay):
		}
	}
}
