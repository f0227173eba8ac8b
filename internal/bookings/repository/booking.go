package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "parkly/internal/bookings/errors"
	"parkly/pkg/config"
	mongotx "parkly/pkg/db/mongo"
	"parkly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

// BookingFilter narrows a search. Zero-valued fields are ignored; StartTime
// and EndTime select bookings whose window overlaps the given range.
type BookingFilter struct {
	FacilityID string
	SlotID     string
	UserRef    string
	Status     config.BookingStatus
	StartTime  *time.Time
	EndTime    *time.Time
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, filter BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	CountBySearch(ctx context.Context, filter BookingFilter) (int64, error)
	UpdateIfStatus(ctx context.Context, id string, expected config.BookingStatus, booking *model.Booking) (bool, error)
	CountOverlapping(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (int64, error)
	CountActiveOnSlot(ctx context.Context, slotID string, endingAfter time.Time) (int64, error)
	FindExpiredConfirmed(ctx context.Context, cutoff time.Time, limit int) ([]*model.Booking, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*model.Booking, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by reference: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) Search(ctx context.Context, filter BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, r.buildSearchFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountBySearch(ctx context.Context, filter BookingFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by search: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) buildSearchFilter(f BookingFilter) bson.M {
	filter := bson.M{}

	if f.FacilityID != "" {
		filter["facility_id"] = f.FacilityID
	}
	if f.SlotID != "" {
		filter["slot_id"] = f.SlotID
	}
	if f.UserRef != "" {
		filter["user_ref"] = f.UserRef
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	if f.StartTime != nil && f.EndTime != nil {
		filter["start_time"] = bson.M{"$lt": *f.EndTime}
		filter["end_time"] = bson.M{"$gt": *f.StartTime}
	} else if f.StartTime != nil {
		filter["end_time"] = bson.M{"$gt": *f.StartTime}
	} else if f.EndTime != nil {
		filter["start_time"] = bson.M{"$lt": *f.EndTime}
	}

	return filter
}

// UpdateIfStatus persists the lifecycle fields of a booking, but only while
// it still holds the expected status; concurrent transitions lose and get
// false back. Identity fields such as the slot, window and token are written
// once at create time and never change.
func (r *mongoBookingRepository) UpdateIfStatus(ctx context.Context, id string, expected config.BookingStatus, booking *model.Booking) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":         booking.Status,
			"payment":        booking.Payment,
			"cancellation":   booking.Cancellation,
			"check_in_time":  booking.CheckInTime,
			"check_out_time": booking.CheckOutTime,
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": expected}, update)
	if err != nil {
		return false, fmt.Errorf("failed to update booking: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// CountOverlapping counts active bookings on the slot whose half-open window
// [start_time, end_time) intersects [start, end). excludeBookingID, when set,
// leaves that booking out so it can re-check its own window.
func (r *mongoBookingRepository) CountOverlapping(ctx context.Context, slotID string, start, end time.Time, excludeBookingID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"slot_id":    slotID,
		"status":     bson.M{"$in": model.ActiveBookingStatuses()},
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}

	if excludeBookingID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeBookingID)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, excludeBookingID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) CountActiveOnSlot(ctx context.Context, slotID string, endingAfter time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"slot_id": slotID,
		"status":  bson.M{"$in": model.ActiveBookingStatuses()},
	}
	if !endingAfter.IsZero() {
		filter["end_time"] = bson.M{"$gt": endingAfter}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}

// FindExpiredConfirmed returns confirmed bookings whose window ended before
// cutoff and that were never checked in, oldest first. Feeds the no-show sweep.
func (r *mongoBookingRepository) FindExpiredConfirmed(ctx context.Context, cutoff time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// nil matches both a missing and a null check_in_time; updates write the
	// field as null when no check-in happened.
	filter := bson.M{
		"status":        config.Confirmed,
		"end_time":      bson.M{"$lt": cutoff},
		"check_in_time": nil,
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "end_time", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode expired bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"payment.gateway_order_id": orderID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by gateway order: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"payment.gateway_payment_id": paymentID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by gateway payment: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
