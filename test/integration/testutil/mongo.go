package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parkly/pkg/model"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "parkly"
	ConnectionTimeout   = 10 * time.Second

	FacilitiesCollection = "Facilities"
	SlotsCollection      = "Slots"
	BookingsCollection   = "Bookings"
	SlotLocksCollection  = "Slot_locks"
)

// MongoHelper gives tests direct database access for seeding and cleanup.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	if mongoURI == "" {
		mongoURI = DefaultMongoURI
	}
	if dbName == "" {
		dbName = DefaultDatabaseName
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanCollections removes all documents from the given collections. Dropping
// is avoided so validators and indexes set up by the migration job survive.
func (m *MongoHelper) CleanCollections(t *testing.T, names ...string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, name := range names {
		if _, err := m.Database.Collection(name).DeleteMany(ctx, map[string]interface{}{}); err != nil {
			t.Fatalf("failed to clean collection %s: %v", name, err)
		}
	}
}

// CleanAll clears every collection the services write to.
func (m *MongoHelper) CleanAll(t *testing.T) {
	t.Helper()
	m.CleanCollections(t, BookingsCollection, SlotLocksCollection, SlotsCollection, FacilitiesCollection)
}

func (m *MongoHelper) CountDocuments(t *testing.T, collectionName string) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(collectionName).CountDocuments(ctx, map[string]interface{}{})
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}

// InsertFacility seeds a facility directly and returns its hex id.
func (m *MongoHelper) InsertFacility(t *testing.T, facility *model.Facility) string {
	t.Helper()
	return m.insert(t, FacilitiesCollection, facility)
}

// InsertSlot seeds a slot directly and returns its hex id.
func (m *MongoHelper) InsertSlot(t *testing.T, slot *model.Slot) string {
	t.Helper()
	return m.insert(t, SlotsCollection, slot)
}

// InsertBooking seeds a booking directly and returns its hex id. Used to put
// bookings into states the public API cannot reach on its own, such as a
// pending booking that already has a gateway order attached.
func (m *MongoHelper) InsertBooking(t *testing.T, booking *model.Booking) string {
	t.Helper()
	return m.insert(t, BookingsCollection, booking)
}

func (m *MongoHelper) insert(t *testing.T, collectionName string, doc interface{}) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := m.Database.Collection(collectionName).InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to seed %s document: %v", collectionName, err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		t.Fatalf("expected ObjectID for seeded %s document, got %T", collectionName, result.InsertedID)
	}
	return oid.Hex()
}

// FindSlot reads a slot document back, for asserting physical status changes
// the public API only exposes indirectly.
func (m *MongoHelper) FindSlot(t *testing.T, id string) *model.Slot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		t.Fatalf("invalid slot id %q: %v", id, err)
	}

	var slot model.Slot
	if err := m.Database.Collection(SlotsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&slot); err != nil {
		t.Fatalf("failed to find slot %s: %v", id, err)
	}
	return &slot
}
