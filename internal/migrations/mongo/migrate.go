package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parkly/internal/migrations/mongo/validators"
	"parkly/pkg/logger"
)

var (
	FacilitiesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "owner_ref", Value: 1}}},
	}

	SlotsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "facility_id", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "facility_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		// Overlap checks scan one slot's active bookings by window.
		{Keys: bson.D{
			{Key: "slot_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "facility_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "user_ref", Value: 1}, {Key: "start_time", Value: 1}}},
		// The no-show sweep scans confirmed bookings whose window ended.
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_time", Value: 1}}},
		{
			Keys:    bson.D{{Key: "payment.gateway_order_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "payment.gateway_payment_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	SlotLocksIndexes = []mongo.IndexModel{
		// TTL reclaims locks abandoned by a crashed process.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

// RunMigration ensures every collection exists with its JSON-schema validator
// and indexes. It is idempotent; collections are processed in a fixed order
// so repeated runs produce identical logs.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	collections := []struct {
		Name      string
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		{Name: "Facilities", Indexes: FacilitiesIndexes, Validator: validators.FacilityValidator},
		{Name: "Slots", Indexes: SlotsIndexes, Validator: validators.SlotValidator},
		{Name: "Bookings", Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: "Slot_locks", Indexes: SlotLocksIndexes, Validator: validators.SlotLockValidator},
	}

	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	// collMod can fail on older server versions; stale validators are not
	// worth aborting the run for.
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	} else {
		log.Info("Refreshed validator", "collection", name)
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}

	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}

	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
