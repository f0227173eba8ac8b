package service

import (
	"context"
	"errors"
	"sync"

	facilityerrors "parkly/internal/facilities/errors"
	"parkly/internal/facilities/repository"
	"parkly/internal/facilities/validator"
	sloterrors "parkly/internal/slots/errors"
	slotrepo "parkly/internal/slots/repository"
	slotservice "parkly/internal/slots/service"
	"parkly/pkg/config"
	"parkly/pkg/currency"
	apperrors "parkly/pkg/errors"
	"parkly/pkg/model"
	"parkly/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityCache is the read-through side of the availability cache.
// Satisfied by *cache.Store.
type AvailabilityCache interface {
	GetAvailability(ctx context.Context, facilityID string) (*model.Availability, error)
	SetAvailability(ctx context.Context, availability *model.Availability) error
}

type FacilityService interface {
	Create(ctx context.Context, facility *model.Facility) error
	GetByID(ctx context.Context, id string) (*model.Facility, error)
	GetAll(ctx context.Context, ownerRef string, limit int, offset int64) ([]*model.Facility, int64, error)
	Update(ctx context.Context, id string, updates *model.FacilityUpdate) (*model.Facility, error)
	AddSlot(ctx context.Context, facilityID string, slot *model.Slot) error
	ListSlots(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.Slot, int64, error)
	UpdateSlotStatus(ctx context.Context, facilityID, slotID string, status config.SlotStatus, force bool) (int, error)
	Availability(ctx context.Context, facilityID string) (*model.Availability, error)
}

type facilityService struct {
	repo      repository.FacilityRepository
	slots     slotrepo.SlotRepository
	ledger    slotservice.Ledger
	cache     AvailabilityCache
	validator *validator.FacilityValidator
	cfg       *config.Config
}

func NewFacilityService(
	repo repository.FacilityRepository,
	slots slotrepo.SlotRepository,
	ledger slotservice.Ledger,
	cache AvailabilityCache,
	validator *validator.FacilityValidator,
	cfg *config.Config,
) FacilityService {
	return &facilityService{
		repo:      repo,
		slots:     slots,
		ledger:    ledger,
		cache:     cache,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *facilityService) Create(ctx context.Context, facility *model.Facility) error {
	s.applyDefaults(facility)
	s.sanitize(facility)
	if err := s.validateFacility(facility); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, facility); err != nil {
		s.cfg.Log.Error("Failed to create facility", "error", err)
		return apperrors.Internal("Failed to create facility", err)
	}

	s.cfg.Log.Info("Facility created successfully",
		"id", facility.ID,
		"owner_ref", facility.OwnerRef,
		"city", facility.City,
	)
	return nil
}

func (s *facilityService) GetByID(ctx context.Context, id string) (*model.Facility, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Facility ID cannot be empty")
	}

	facility, err := s.repo.FindByID(ctx, id)
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

func (s *facilityService) GetAll(ctx context.Context, ownerRef string, limit int, offset int64) ([]*model.Facility, int64, error) {

	var count int64
	var facilities []*model.Facility
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, ownerRef)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count facilities", "error", errCount)
			errCount = apperrors.Internal("Failed to count facilities", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		facilities, errFind = s.repo.FindAll(ctx, ownerRef, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list facilities", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve facilities", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return facilities, count, nil
}

func (s *facilityService) Update(ctx context.Context, id string, updates *model.FacilityUpdate) (*model.Facility, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeFacilityUpdates(existing, updates)
	if err := s.validateFacility(merged); err != nil {
		return nil, err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, facilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Facility", id)
		}
		s.cfg.Log.Error("Failed to update facility", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update facility", err)
	}

	s.cfg.Log.Info("Facility updated successfully",
		"id", id,
		"name", merged.Name,
		"is_active", merged.IsActive,
	)
	return merged, nil
}

func (s *facilityService) AddSlot(ctx context.Context, facilityID string, slot *model.Slot) error {
	facility, err := s.GetByID(ctx, facilityID)
	if err != nil {
		return err
	}

	slot.FacilityID = facility.ID
	s.applySlotDefaults(slot, facility)
	s.sanitizeSlot(slot)
	if err := s.validator.ValidateSlot(slot); err != nil {
		s.cfg.Log.Warn("Slot validation failed", "facility_id", facilityID, "error", err)
		return apperrors.Validation("Slot validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("A slot with this number already exists in the facility")
		}
		s.cfg.Log.Error("Failed to create slot", "facility_id", facilityID, "error", err)
		return apperrors.Internal("Failed to create slot", err)
	}

	available, total := s.ledger.SyncAvailability(ctx, facility.ID)

	s.cfg.Log.Info("Slot created successfully",
		"id", slot.ID,
		"facility_id", facility.ID,
		"number", slot.Number,
		"type", slot.Type,
		"available_slots", available,
		"total_slots", total,
	)
	return nil
}

func (s *facilityService) ListSlots(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.Slot, int64, error) {
	if facilityID == "" {
		return nil, 0, apperrors.InvalidInput("Facility ID cannot be empty")
	}

	var count int64
	var slots []*model.Slot
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.slots.CountByFacility(ctx, facilityID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count slots", "facility_id", facilityID, "error", errCount)
			errCount = apperrors.Internal("Failed to count slots", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		slots, errFind = s.slots.FindByFacility(ctx, facilityID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list slots", "facility_id", facilityID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve slots", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return slots, count, nil
}

// UpdateSlotStatus verifies the slot belongs to the facility before handing
// the transition to the slot ledger.
func (s *facilityService) UpdateSlotStatus(ctx context.Context, facilityID, slotID string, status config.SlotStatus, force bool) (int, error) {
	if facilityID == "" || slotID == "" {
		return 0, apperrors.InvalidInput("Facility ID and slot ID are required")
	}

	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return 0, apperrors.NotFoundWithID("Slot", slotID)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return 0, apperrors.InvalidInput("Invalid slot ID format")
		}
		return 0, apperrors.Internal("Failed to retrieve slot", err)
	}
	if slot.FacilityID != facilityID {
		return 0, apperrors.NotFoundWithID("Slot", slotID)
	}

	return s.ledger.SetPhysicalStatus(ctx, slotID, status, force)
}

// Availability serves the cached snapshot when present and recomputes it
// through the ledger on a miss. Cache failures degrade to a recompute.
func (s *facilityService) Availability(ctx context.Context, facilityID string) (*model.Availability, error) {
	if facilityID == "" {
		return nil, apperrors.InvalidInput("Facility ID cannot be empty")
	}

	cached, err := s.cache.GetAvailability(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Warn("Availability cache read failed", "facility_id", facilityID, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	if _, err := s.GetByID(ctx, facilityID); err != nil {
		return nil, err
	}

	snapshot, err := s.ledger.Snapshot(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetAvailability(ctx, snapshot); err != nil {
		s.cfg.Log.Warn("Failed to cache availability snapshot", "facility_id", facilityID, "error", err)
	}

	return snapshot, nil
}

// --- Helpers ---

func (s *facilityService) applyDefaults(f *model.Facility) {
	if f.Currency == "" {
		f.Currency = s.cfg.DefaultCurrency
	}
	f.IsActive = true
	// Derived counters are owned by the ledger.
	f.TotalSlots = 0
	f.AvailableSlots = 0
}

func (s *facilityService) sanitize(f *model.Facility) {
	f.Name = sanitizer.NormalizeName(f.Name)
	f.OwnerRef = sanitizer.TrimAndNormalize(f.OwnerRef)
	f.Address = sanitizer.TrimAndNormalize(f.Address)
	f.City = sanitizer.NormalizeCity(f.City)
	f.Currency = currency.Normalize(f.Currency)
	f.Website = sanitizer.NormalizeURL(f.Website)
	f.Amenities = sanitizer.NormalizeAmenities(f.Amenities)
	f.PricePerHour = sanitizer.NormalizePrice(f.PricePerHour)
}

func (s *facilityService) validateFacility(f *model.Facility) error {
	if err := s.validator.Validate(f); err != nil {
		s.cfg.Log.Warn("Facility validation failed", "error", err)
		return apperrors.Validation("Facility validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *facilityService) sanitizeUpdate(u *model.FacilityUpdate) {
	if u.Name != "" {
		u.Name = sanitizer.NormalizeName(u.Name)
	}
	if u.Address != "" {
		u.Address = sanitizer.TrimAndNormalize(u.Address)
	}
	if u.City != "" {
		u.City = sanitizer.NormalizeCity(u.City)
	}
	if u.Currency != "" {
		u.Currency = currency.Normalize(u.Currency)
	}
	if u.Website != nil {
		*u.Website = sanitizer.NormalizeURL(*u.Website)
	}
	if u.Amenities != nil {
		u.Amenities = sanitizer.NormalizeAmenities(u.Amenities)
	}
}

// mergeFacilityUpdates overlays the update on a copy of the stored facility.
// Identity, ownership and the slot counters are never touched here.
func (s *facilityService) mergeFacilityUpdates(existing *model.Facility, updates *model.FacilityUpdate) *model.Facility {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.City != "" {
		merged.City = updates.City
	}
	if updates.Location != nil {
		merged.Location = updates.Location
	}
	if updates.PricePerHour != nil {
		merged.PricePerHour = sanitizer.NormalizePrice(*updates.PricePerHour)
	}
	if updates.Currency != "" {
		merged.Currency = updates.Currency
	}
	if updates.Website != nil {
		merged.Website = *updates.Website
	}
	if updates.Amenities != nil {
		merged.Amenities = updates.Amenities
	}
	if updates.Is24x7 != nil {
		merged.Is24x7 = *updates.Is24x7
	}
	if updates.OperatingHours != nil {
		merged.OperatingHours = updates.OperatingHours
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	merged.ID = existing.ID
	merged.OwnerRef = existing.OwnerRef
	merged.CreatedAt = existing.CreatedAt

	return &merged
}

func (s *facilityService) applySlotDefaults(slot *model.Slot, facility *model.Facility) {
	if slot.Status == "" {
		slot.Status = config.SlotAvailable
	}
	// A slot priced at zero inherits the facility base rate.
	if slot.PricePerHour == 0 {
		slot.PricePerHour = facility.PricePerHour
	}
}

func (s *facilityService) sanitizeSlot(slot *model.Slot) {
	slot.Number = sanitizer.TrimAndNormalize(slot.Number)
	slot.Floor = sanitizer.TrimAndNormalize(slot.Floor)
	slot.Features = sanitizer.NormalizeStringSlice(slot.Features, sanitizer.NormalizeKey)
	slot.PricePerHour = sanitizer.NormalizePrice(slot.PricePerHour)
}
