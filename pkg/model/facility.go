package model

import (
	"time"

	"parkly/pkg/config/enums"
)

type Facility struct {
	ID       string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name     string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	OwnerRef string    `json:"owner_ref" bson:"owner_ref" validate:"required,min=2,max=100"`
	Address  string    `json:"address" bson:"address" validate:"required,min=5,max=200"`
	City     string    `json:"city" bson:"city" validate:"required,min=2,max=60"`
	Location *GeoPoint `json:"location,omitempty" bson:"location,omitempty"`
	// PricePerHour is the base rate applied to slots created without their own.
	PricePerHour   float64                       `json:"price_per_hour" bson:"price_per_hour" validate:"required,gt=0"`
	Currency       string                        `json:"currency,omitempty" bson:"currency,omitempty" validate:"omitempty,iso4217"`
	Website        string                        `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,url,max=200"`
	Amenities      []string                      `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,max=20,dive,min=2,max=40"`
	Is24x7         bool                          `json:"is_24x7" bson:"is_24x7"`
	OperatingHours map[enums.Weekday]HoursRange `json:"operating_hours,omitempty" bson:"operating_hours,omitempty" validate:"omitempty,operating_hours"`
	TotalSlots     int                           `json:"total_slots" bson:"total_slots" validate:"omitempty,min=0"`
	AvailableSlots int                           `json:"available_slots" bson:"available_slots" validate:"omitempty,min=0"`
	IsActive       bool                          `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time                     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time                     `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// FacilityUpdate carries a partial update. Zero-valued fields leave the
// existing value alone; pointer fields exist so false, zero and empty are
// still expressible.
type FacilityUpdate struct {
	Name           string                        `json:"name,omitempty"`
	Address        string                        `json:"address,omitempty"`
	City           string                        `json:"city,omitempty"`
	Location       *GeoPoint                     `json:"location,omitempty"`
	PricePerHour   *float64                      `json:"price_per_hour,omitempty"`
	Currency       string                        `json:"currency,omitempty"`
	Website        *string                       `json:"website,omitempty"`
	Amenities      []string                      `json:"amenities,omitempty"`
	Is24x7         *bool                         `json:"is_24x7,omitempty"`
	OperatingHours map[enums.Weekday]HoursRange `json:"operating_hours,omitempty"`
	IsActive       *bool                         `json:"is_active,omitempty"`
}

type GeoPoint struct {
	Lat float64 `json:"lat" bson:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" bson:"lng" validate:"gte=-180,lte=180"`
}

// HoursRange holds opening hours as "HH:MM" wall-clock strings.
type HoursRange struct {
	Open  string `json:"open" bson:"open" validate:"required"`
	Close string `json:"close" bson:"close" validate:"required"`
}

// Availability is the denormalized per-facility snapshot served to clients
// and kept in the availability cache.
type Availability struct {
	FacilityID     string                  `json:"facility_id"`
	TotalSlots     int                     `json:"total_slots"`
	AvailableSlots int                     `json:"available_slots"`
	ByType         map[enums.SlotType]int `json:"by_type,omitempty"`
	ComputedAt     time.Time               `json:"computed_at"`
}
