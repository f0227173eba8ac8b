package service

import (
	"context"
	"io"
	"testing"
	"time"

	"parkly/pkg/config"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/events"
	"parkly/pkg/logger"
	"parkly/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockSlotRepository struct {
	createFunc         func(ctx context.Context, slot *model.Slot) error
	findByIDFunc       func(ctx context.Context, id string) (*model.Slot, error)
	findByFacilityFunc func(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.Slot, error)
	countFacilityFunc  func(ctx context.Context, facilityID string) (int64, error)
	countStatusesFunc  func(ctx context.Context, facilityID string, statuses []config.SlotStatus) (int64, error)
	countByTypeFunc    func(ctx context.Context, facilityID string, statuses []config.SlotStatus) (map[config.SlotType]int, error)
	updateStatusFunc   func(ctx context.Context, id string, status config.SlotStatus) error
	transitionFunc     func(ctx context.Context, id string, from, to config.SlotStatus) (bool, error)
}

func (m *mockSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, slot)
	}
	return nil
}

func (m *mockSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Slot{ID: id, Status: config.SlotAvailable}, nil
}

func (m *mockSlotRepository) FindByFacility(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.Slot, error) {
	if m.findByFacilityFunc != nil {
		return m.findByFacilityFunc(ctx, facilityID, limit, offset)
	}
	return nil, nil
}

func (m *mockSlotRepository) CountByFacility(ctx context.Context, facilityID string) (int64, error) {
	if m.countFacilityFunc != nil {
		return m.countFacilityFunc(ctx, facilityID)
	}
	return 0, nil
}

func (m *mockSlotRepository) CountByFacilityAndStatuses(ctx context.Context, facilityID string, statuses []config.SlotStatus) (int64, error) {
	if m.countStatusesFunc != nil {
		return m.countStatusesFunc(ctx, facilityID, statuses)
	}
	return 0, nil
}

func (m *mockSlotRepository) CountByTypeAndStatuses(ctx context.Context, facilityID string, statuses []config.SlotStatus) (map[config.SlotType]int, error) {
	if m.countByTypeFunc != nil {
		return m.countByTypeFunc(ctx, facilityID, statuses)
	}
	return nil, nil
}

func (m *mockSlotRepository) UpdateStatus(ctx context.Context, id string, status config.SlotStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockSlotRepository) TransitionStatus(ctx context.Context, id string, from, to config.SlotStatus) (bool, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, id, from, to)
	}
	return true, nil
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockBookingCounts struct {
	overlapFunc func(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (int64, error)
	activeFunc  func(ctx context.Context, slotID string, endingAfter time.Time) (int64, error)
}

func (m *mockBookingCounts) CountOverlapping(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (int64, error) {
	if m.overlapFunc != nil {
		return m.overlapFunc(ctx, slotID, start, end, excludeBookingID)
	}
	return 0, nil
}

func (m *mockBookingCounts) CountActiveOnSlot(ctx context.Context, slotID string, endingAfter time.Time) (int64, error) {
	if m.activeFunc != nil {
		return m.activeFunc(ctx, slotID, endingAfter)
	}
	return 0, nil
}

type mockFacilityCounters struct {
	updateFunc func(ctx context.Context, facilityID string, available, total int) error
}

func (m *mockFacilityCounters) UpdateSlotCounts(ctx context.Context, facilityID string, available, total int) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, facilityID, available, total)
	}
	return nil
}

type mockInvalidator struct {
	invalidateFunc func(ctx context.Context, facilityID string) error
}

func (m *mockInvalidator) InvalidateAvailability(ctx context.Context, facilityID string) error {
	if m.invalidateFunc != nil {
		return m.invalidateFunc(ctx, facilityID)
	}
	return nil
}

type captureSink struct {
	published []events.Event
	keys      []string
}

func (s *captureSink) Publish(ctx context.Context, key string, event events.Event) error {
	s.keys = append(s.keys, key)
	s.published = append(s.published, event)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Output: io.Discard}),
	}
}

func newTestLedger(slots *mockSlotRepository, locks *mockLockRepository, bookings *mockBookingCounts) *slotLedger {
	return &slotLedger{
		slots:      slots,
		locks:      locks,
		bookings:   bookings,
		facilities: &mockFacilityCounters{},
		cache:      &mockInvalidator{},
		sink:       events.NoopSink{},
		cfg:        testConfig(),
	}
}

var errDuplicateLock = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}

func TestTryReserve_Succeeds(t *testing.T) {
	deleted := []string{}
	slots := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Slot, error) {
			return &model.Slot{ID: id, FacilityID: "fac-1", Number: "A-12", Status: config.SlotAvailable, PricePerHour: 40}, nil
		},
	}
	locks := &mockLockRepository{
		deleteFunc: func(ctx context.Context, lockID string) error {
			deleted = append(deleted, lockID)
			return nil
		},
	}
	ledger := newTestLedger(slots, locks, &mockBookingCounts{})

	start := time.Now().Add(time.Hour)
	hold, err := ledger.TryReserve(context.Background(), "slot-1", start, start.Add(2*time.Hour), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hold.Slot.Number != "A-12" {
		t.Errorf("expected slot A-12 on the hold, got %s", hold.Slot.Number)
	}

	hold.Unlock(context.Background())
	hold.Unlock(context.Background())
	if len(deleted) != 1 {
		t.Errorf("expected exactly one lock delete, got %d", len(deleted))
	}
	if deleted[0] != "slot_lock_slot-1" {
		t.Errorf("unexpected lock id: %s", deleted[0])
	}
}

func TestTryReserve_OverlapConflict(t *testing.T) {
	deletes := 0
	locks := &mockLockRepository{
		deleteFunc: func(ctx context.Context, lockID string) error {
			deletes++
			return nil
		},
	}
	bookings := &mockBookingCounts{
		overlapFunc: func(ctx context.Context, slotID string, start, end time.Time, exclude string) (int64, error) {
			return 1, nil
		},
	}
	ledger := newTestLedger(&mockSlotRepository{}, locks, bookings)

	start := time.Now().Add(time.Hour)
	_, err := ledger.TryReserve(context.Background(), "slot-1", start, start.Add(time.Hour), "")
	if !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
		t.Fatalf("expected SLOT_UNAVAILABLE, got %v", err)
	}
	if deletes != 1 {
		t.Errorf("lock must be released on conflict, got %d deletes", deletes)
	}
}

func TestTryReserve_MaintenanceAlwaysConflicts(t *testing.T) {
	slots := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Slot, error) {
			return &model.Slot{ID: id, FacilityID: "fac-1", Status: config.SlotMaintenance}, nil
		},
	}
	overlapChecked := false
	bookings := &mockBookingCounts{
		overlapFunc: func(ctx context.Context, slotID string, start, end time.Time, exclude string) (int64, error) {
			overlapChecked = true
			return 0, nil
		},
	}
	ledger := newTestLedger(slots, &mockLockRepository{}, bookings)

	start := time.Now().Add(time.Hour)
	_, err := ledger.TryReserve(context.Background(), "slot-1", start, start.Add(time.Hour), "")
	if !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
		t.Fatalf("expected SLOT_UNAVAILABLE for maintenance slot, got %v", err)
	}
	if overlapChecked {
		t.Error("maintenance must reject before the overlap query runs")
	}
}

func TestTryReserve_LockContentionExhaustsRetries(t *testing.T) {
	attempts := 0
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
			attempts++
			return nil, errDuplicateLock
		},
	}
	ledger := newTestLedger(&mockSlotRepository{}, locks, &mockBookingCounts{})

	start := time.Now().Add(time.Hour)
	_, err := ledger.TryReserve(context.Background(), "slot-1", start, start.Add(time.Hour), "")
	if !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
		t.Fatalf("expected SLOT_UNAVAILABLE when the lock stays held, got %v", err)
	}
	if attempts != slotLockAttempts {
		t.Errorf("expected %d lock attempts, got %d", slotLockAttempts, attempts)
	}
}

func TestTryReserve_LockRetryThenSucceeds(t *testing.T) {
	attempts := 0
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
			attempts++
			if attempts == 1 {
				return nil, errDuplicateLock
			}
			return lock, nil
		},
	}
	ledger := newTestLedger(&mockSlotRepository{}, locks, &mockBookingCounts{})

	start := time.Now().Add(time.Hour)
	hold, err := ledger.TryReserve(context.Background(), "slot-1", start, start.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("unexpected error after lock retry: %v", err)
	}
	defer hold.Unlock(context.Background())

	if attempts != 2 {
		t.Errorf("expected 2 lock attempts, got %d", attempts)
	}
}

func TestRelease_LastBookingFreesSlot(t *testing.T) {
	var updatedTo config.SlotStatus
	slots := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Slot, error) {
			return &model.Slot{ID: id, FacilityID: "fac-1", Status: config.SlotReserved}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status config.SlotStatus) error {
			updatedTo = status
			return nil
		},
	}
	ledger := newTestLedger(slots, &mockLockRepository{}, &mockBookingCounts{})

	if err := ledger.Release(context.Background(), "slot-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updatedTo != config.SlotAvailable {
		t.Errorf("expected slot to become available, got %q", updatedTo)
	}
}

func TestRelease_KeepsReservedWhileOthersRemain(t *testing.T) {
	updated := false
	slots := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Slot, error) {
			return &model.Slot{ID: id, FacilityID: "fac-1", Status: config.SlotReserved}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status config.SlotStatus) error {
			updated = true
			return nil
		},
	}
	bookings := &mockBookingCounts{
		activeFunc: func(ctx context.Context, slotID string, endingAfter time.Time) (int64, error) {
			return 2, nil
		},
	}
	ledger := newTestLedger(slots, &mockLockRepository{}, bookings)

	if err := ledger.Release(context.Background(), "slot-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("slot already reserved with remaining bookings must not be rewritten")
	}
}

func TestRelease_MaintenanceOverrideSurvives(t *testing.T) {
	slots := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Slot, error) {
			return &model.Slot{ID: id, FacilityID: "fac-1", Status: config.SlotMaintenance}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status config.SlotStatus) error {
			t.Errorf("release must not touch a maintenance slot, tried to set %q", status)
			return nil
		},
	}
	ledger := newTestLedger(slots, &mockLockRepository{}, &mockBookingCounts{})

	if err := ledger.Release(context.Background(), "slot-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetPhysicalStatus_MaintenanceNeedsForceWithActiveBookings(t *testing.T) {
	slots := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Slot, error) {
			return &model.Slot{ID: id, FacilityID: "fac-1", Status: config.SlotReserved}, nil
		},
	}
	bookings := &mockBookingCounts{
		activeFunc: func(ctx context.Context, slotID string, endingAfter time.Time) (int64, error) {
			if endingAfter.IsZero() {
				t.Error("maintenance guard must only count bookings still running")
			}
			return 1, nil
		},
	}
	ledger := newTestLedger(slots, &mockLockRepository{}, bookings)

	_, err := ledger.SetPhysicalStatus(context.Background(), "slot-1", config.SlotMaintenance, false)
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	if _, err := ledger.SetPhysicalStatus(context.Background(), "slot-1", config.SlotMaintenance, true); err != nil {
		t.Fatalf("force must bypass the active-booking guard: %v", err)
	}
}

func TestSetPhysicalStatus_RejectsUnknownStatus(t *testing.T) {
	ledger := newTestLedger(&mockSlotRepository{}, &mockLockRepository{}, &mockBookingCounts{})

	_, err := ledger.SetPhysicalStatus(context.Background(), "slot-1", config.SlotStatus("parked"), false)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestSyncAvailability_PersistsInvalidatesAndPublishes(t *testing.T) {
	var persistedAvailable, persistedTotal int
	var invalidated string
	sink := &captureSink{}

	slots := &mockSlotRepository{
		countStatusesFunc: func(ctx context.Context, facilityID string, statuses []config.SlotStatus) (int64, error) {
			if len(statuses) != 2 {
				t.Errorf("expected available+reserved statuses, got %v", statuses)
			}
			return 7, nil
		},
		countFacilityFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 10, nil
		},
	}
	ledger := &slotLedger{
		slots: slots,
		locks: &mockLockRepository{},
		facilities: &mockFacilityCounters{
			updateFunc: func(ctx context.Context, facilityID string, available, total int) error {
				persistedAvailable, persistedTotal = available, total
				return nil
			},
		},
		cache: &mockInvalidator{
			invalidateFunc: func(ctx context.Context, facilityID string) error {
				invalidated = facilityID
				return nil
			},
		},
		bookings: &mockBookingCounts{},
		sink:     sink,
		cfg:      testConfig(),
	}

	available, total := ledger.SyncAvailability(context.Background(), "fac-1")
	if available != 7 || total != 10 {
		t.Fatalf("expected 7/10, got %d/%d", available, total)
	}
	if persistedAvailable != 7 || persistedTotal != 10 {
		t.Errorf("projection not persisted, got %d/%d", persistedAvailable, persistedTotal)
	}
	if invalidated != "fac-1" {
		t.Errorf("expected cache invalidation for fac-1, got %q", invalidated)
	}

	if len(sink.published) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.published))
	}
	event, ok := sink.published[0].(events.AvailabilityChanged)
	if !ok {
		t.Fatalf("expected AvailabilityChanged, got %T", sink.published[0])
	}
	if event.AvailableSlots != 7 || event.TotalSlots != 10 {
		t.Errorf("event carries %d/%d, want 7/10", event.AvailableSlots, event.TotalSlots)
	}
	if sink.keys[0] != "fac-1" {
		t.Errorf("event must be keyed by facility id, got %q", sink.keys[0])
	}
}

func TestSnapshot_BuildsByTypeView(t *testing.T) {
	slots := &mockSlotRepository{
		countStatusesFunc: func(ctx context.Context, facilityID string, statuses []config.SlotStatus) (int64, error) {
			return 3, nil
		},
		countFacilityFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 5, nil
		},
		countByTypeFunc: func(ctx context.Context, facilityID string, statuses []config.SlotStatus) (map[config.SlotType]int, error) {
			return map[config.SlotType]int{config.SlotTypeCar: 2, config.SlotTypeEV: 1}, nil
		},
	}
	ledger := newTestLedger(slots, &mockLockRepository{}, &mockBookingCounts{})

	snapshot, err := ledger.Snapshot(context.Background(), "fac-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.AvailableSlots != 3 || snapshot.TotalSlots != 5 {
		t.Errorf("expected 3/5, got %d/%d", snapshot.AvailableSlots, snapshot.TotalSlots)
	}
	if snapshot.ByType[config.SlotTypeCar] != 2 {
		t.Errorf("expected 2 car slots, got %d", snapshot.ByType[config.SlotTypeCar])
	}
	if snapshot.ComputedAt.IsZero() {
		t.Error("snapshot must carry its computation time")
	}
}
