package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	"parkly/pkg/config"
	"parkly/pkg/model"
)

func snapshot() *model.Availability {
	return &model.Availability{
		FacilityID:     "64f1c2a9b3d4e5f6a7b8c9d1",
		TotalSlots:     10,
		AvailableSlots: 7,
		ByType: map[config.SlotType]int{
			config.SlotTypeCar: 5,
			config.SlotTypeEV:  2,
		},
		ComputedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestGetAvailability_Hit(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := NewStore(db, config.DefaultAvailabilityCacheTTL)

	want := snapshot()
	data, err := json.Marshal(want)
	assert.NoError(t, err)

	mockRedis.ExpectGet(AvailabilityKey(want.FacilityID)).SetVal(string(data))

	got, err := store.GetAvailability(context.Background(), want.FacilityID)

	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, want.FacilityID, got.FacilityID)
		assert.Equal(t, 7, got.AvailableSlots)
		assert.Equal(t, 10, got.TotalSlots)
		assert.Equal(t, 5, got.ByType[config.SlotTypeCar])
	}

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestGetAvailability_Miss(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := NewStore(db, config.DefaultAvailabilityCacheTTL)

	mockRedis.ExpectGet(AvailabilityKey("64f1c2a9b3d4e5f6a7b8c9d1")).RedisNil()

	got, err := store.GetAvailability(context.Background(), "64f1c2a9b3d4e5f6a7b8c9d1")

	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestGetAvailability_CorruptEntryReadsAsMiss(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := NewStore(db, config.DefaultAvailabilityCacheTTL)

	mockRedis.ExpectGet(AvailabilityKey("64f1c2a9b3d4e5f6a7b8c9d1")).SetVal("{not json")

	got, err := store.GetAvailability(context.Background(), "64f1c2a9b3d4e5f6a7b8c9d1")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetAvailability(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := NewStore(db, config.DefaultAvailabilityCacheTTL)

	want := snapshot()
	data, err := json.Marshal(want)
	assert.NoError(t, err)

	mockRedis.ExpectSet(AvailabilityKey(want.FacilityID), data, config.DefaultAvailabilityCacheTTL).SetVal("OK")

	assert.NoError(t, store.SetAvailability(context.Background(), want))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestInvalidateAvailability(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := NewStore(db, config.DefaultAvailabilityCacheTTL)

	mockRedis.ExpectDel(AvailabilityKey("64f1c2a9b3d4e5f6a7b8c9d1")).SetVal(1)

	assert.NoError(t, store.InvalidateAvailability(context.Background(), "64f1c2a9b3d4e5f6a7b8c9d1"))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}
