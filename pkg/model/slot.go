package model

import (
	"time"

	"parkly/pkg/config/enums"
)

type Slot struct {
	ID         string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID string          `json:"facility_id" bson:"facility_id" validate:"required,mongodb"`
	Number     string          `json:"number" bson:"number" validate:"required,min=1,max=20"`
	Floor      string          `json:"floor,omitempty" bson:"floor,omitempty" validate:"omitempty,max=20"`
	Type       enums.SlotType `json:"type" bson:"type" validate:"required,oneof=car bike ev handicap truck"`
	// PricePerHour of zero inherits the facility base rate at creation.
	PricePerHour float64           `json:"price_per_hour,omitempty" bson:"price_per_hour" validate:"omitempty,gte=0"`
	Features     []string          `json:"features,omitempty" bson:"features,omitempty" validate:"omitempty,max=10,dive,min=2,max=40"`
	Status       enums.SlotStatus `json:"status" bson:"status" validate:"required,oneof=available occupied reserved maintenance"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time         `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

type SlotStatusUpdate struct {
	Status enums.SlotStatus `json:"status" validate:"required,oneof=available occupied reserved maintenance"`
	// Force applies the change even while active bookings exist on the slot.
	Force bool `json:"force,omitempty"`
}
