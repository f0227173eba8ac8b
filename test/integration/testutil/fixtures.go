package testutil

import (
	"time"

	"parkly/pkg/config"
	"parkly/pkg/model"
)

type FacilityBuilder struct {
	f model.Facility
}

func NewFacilityBuilder() *FacilityBuilder {
	return &FacilityBuilder{
		f: model.Facility{
			Name:         "Center Park Garage",
			OwnerRef:     "owner_ct_42",
			Address:      "12 MG Road, Shivajinagar",
			City:         "Bengaluru",
			PricePerHour: 40,
			Currency:     "INR",
			Is24x7:       true,
			IsActive:     true,
			CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		},
	}
}

func (b *FacilityBuilder) WithName(name string) *FacilityBuilder {
	b.f.Name = name
	return b
}

func (b *FacilityBuilder) WithOwnerRef(ownerRef string) *FacilityBuilder {
	b.f.OwnerRef = ownerRef
	return b
}

func (b *FacilityBuilder) WithCity(city string) *FacilityBuilder {
	b.f.City = city
	return b
}

func (b *FacilityBuilder) WithPricePerHour(price float64) *FacilityBuilder {
	b.f.PricePerHour = price
	return b
}

func (b *FacilityBuilder) WithSlotCounts(total, available int) *FacilityBuilder {
	b.f.TotalSlots = total
	b.f.AvailableSlots = available
	return b
}

func (b *FacilityBuilder) Inactive() *FacilityBuilder {
	b.f.IsActive = false
	return b
}

func (b *FacilityBuilder) Build() model.Facility {
	return b.f
}

func (b *FacilityBuilder) BuildPtr() *model.Facility {
	f := b.f
	return &f
}

type SlotBuilder struct {
	s model.Slot
}

func NewSlotBuilder(facilityID string) *SlotBuilder {
	return &SlotBuilder{
		s: model.Slot{
			FacilityID:   facilityID,
			Number:       "A-01",
			Floor:        "1",
			Type:         config.SlotTypeCar,
			PricePerHour: 40,
			Status:       config.SlotAvailable,
			CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		},
	}
}

func (b *SlotBuilder) WithNumber(number string) *SlotBuilder {
	b.s.Number = number
	return b
}

func (b *SlotBuilder) WithType(slotType config.SlotType) *SlotBuilder {
	b.s.Type = slotType
	return b
}

func (b *SlotBuilder) WithStatus(status config.SlotStatus) *SlotBuilder {
	b.s.Status = status
	return b
}

func (b *SlotBuilder) WithPricePerHour(price float64) *SlotBuilder {
	b.s.PricePerHour = price
	return b
}

func (b *SlotBuilder) Build() model.Slot {
	return b.s
}

func (b *SlotBuilder) BuildPtr() *model.Slot {
	s := b.s
	return &s
}

// BookingPayload is a valid create request for the given slot, expressed as
// the raw map the API receives so individual tests can break single fields.
func BookingPayload(facilityID, slotID string, start, end time.Time) map[string]interface{} {
	return map[string]interface{}{
		"user_ref":    "usr_priya_81",
		"facility_id": facilityID,
		"slot_id":     slotID,
		"vehicle": map[string]interface{}{
			"type":   "car",
			"number": "KA-01-AB-1234",
			"make":   "Hyundai",
			"model":  "i20",
			"color":  "white",
		},
		"start_time": start.Format(time.RFC3339),
		"end_time":   end.Format(time.RFC3339),
	}
}

type BookingBuilder struct {
	b model.Booking
}

// NewBookingBuilder produces a pending booking document for direct seeding.
func NewBookingBuilder(facilityID, slotID string) *BookingBuilder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &BookingBuilder{
		b: model.Booking{
			Reference:  "8f14b2c6-7d3e-4a91-b5c2-1e6f9a8d7c3b",
			UserRef:    "usr_priya_81",
			FacilityID: facilityID,
			SlotID:     slotID,
			SlotNumber: "A-01",
			Vehicle: model.Vehicle{
				Type:   config.SlotTypeCar,
				Number: "KA01AB1234",
			},
			StartTime: now.Add(1 * time.Hour),
			EndTime:   now.Add(3 * time.Hour),
			Amount:    80,
			Currency:  "INR",
			Status:    config.Pending,
			CreatedAt: now,
		},
	}
}

func (b *BookingBuilder) WithReference(reference string) *BookingBuilder {
	b.b.Reference = reference
	return b
}

func (b *BookingBuilder) WithStatus(status config.BookingStatus) *BookingBuilder {
	b.b.Status = status
	return b
}

func (b *BookingBuilder) WithWindow(start, end time.Time) *BookingBuilder {
	b.b.StartTime = start
	b.b.EndTime = end
	return b
}

// WithGatewayOrder attaches a pending payment record, as CreateOrder would.
func (b *BookingBuilder) WithGatewayOrder(orderID string) *BookingBuilder {
	b.b.Payment = &model.PaymentRecord{
		Status:         config.PaymentPending,
		GatewayOrderID: orderID,
	}
	return b
}

// WithCapturedPayment attaches a completed payment record, as a confirmed
// booking carries.
func (b *BookingBuilder) WithCapturedPayment(orderID, paymentID string) *BookingBuilder {
	paidAt := b.b.CreatedAt
	b.b.Payment = &model.PaymentRecord{
		Method:           "upi",
		Status:           config.PaymentCompleted,
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		PaidAt:           &paidAt,
	}
	return b
}

func (b *BookingBuilder) Build() model.Booking {
	return b.b
}

func (b *BookingBuilder) BuildPtr() *model.Booking {
	booking := b.b
	return &booking
}
