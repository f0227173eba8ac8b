package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	facilityerrors "parkly/internal/facilities/errors"
	"parkly/pkg/config"
	"parkly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Facilities"
)

type mongoFacilityRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type FacilityRepository interface {
	Create(ctx context.Context, facility *model.Facility) error
	FindByID(ctx context.Context, id string) (*model.Facility, error)
	FindAll(ctx context.Context, ownerRef string, limit int, offset int64) ([]*model.Facility, error)
	Count(ctx context.Context, ownerRef string) (int64, error)
	Update(ctx context.Context, id string, facility *model.Facility) (*mongo.UpdateResult, error)
	UpdateSlotCounts(ctx context.Context, facilityID string, available, total int) error
}

func NewMongoFacilityRepository(cfg *config.Config) FacilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoFacilityRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoFacilityRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoFacilityRepository) Create(ctx context.Context, facility *model.Facility) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	facility.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, facility)
	if err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		facility.ID = oid.Hex()
	}

	return nil
}

func (r *mongoFacilityRepository) FindByID(ctx context.Context, id string) (*model.Facility, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", facilityerrors.ErrInvalidID, id)
	}

	var facility model.Facility
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&facility)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", facilityerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find facility: %w", err)
	}
	return &facility, nil
}

func (r *mongoFacilityRepository) FindAll(ctx context.Context, ownerRef string, limit int, offset int64) ([]*model.Facility, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if ownerRef != "" {
		filter["owner_ref"] = ownerRef
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer cursor.Close(ctx)

	var facilities []*model.Facility
	if err = cursor.All(ctx, &facilities); err != nil {
		return nil, fmt.Errorf("failed to decode facilities: %w", err)
	}

	return facilities, nil
}

func (r *mongoFacilityRepository) Count(ctx context.Context, ownerRef string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if ownerRef != "" {
		filter["owner_ref"] = ownerRef
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return count, nil
}

func (r *mongoFacilityRepository) Update(ctx context.Context, id string, facility *model.Facility) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", facilityerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":            facility.Name,
			"address":         facility.Address,
			"city":            facility.City,
			"location":        facility.Location,
			"price_per_hour":  facility.PricePerHour,
			"currency":        facility.Currency,
			"website":         facility.Website,
			"amenities":       facility.Amenities,
			"is_24x7":         facility.Is24x7,
			"operating_hours": facility.OperatingHours,
			"is_active":       facility.IsActive,
			"updated_at":      time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update facility: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", facilityerrors.ErrNotFound, id)
	}

	return result, nil
}

// UpdateSlotCounts persists the derived availability projection. Called by
// the slot ledger after every slot mutation.
func (r *mongoFacilityRepository) UpdateSlotCounts(ctx context.Context, facilityID string, available, total int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(facilityID)
	if err != nil {
		return fmt.Errorf("%w: %s", facilityerrors.ErrInvalidID, facilityID)
	}

	update := bson.M{
		"$set": bson.M{
			"available_slots": available,
			"total_slots":     total,
			"updated_at":      time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update slot counts: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", facilityerrors.ErrNotFound, facilityID)
	}

	return nil
}
