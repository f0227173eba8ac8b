package validator

import (
	"io"
	"strings"
	"testing"
	"time"

	"parkly/pkg/config"
	"parkly/pkg/logger"
	"parkly/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func baseRequest() *model.BookingRequest {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	return &model.BookingRequest{
		UserRef:    "user-42",
		FacilityID: "68a1b2c3d4e5f6a7b8c9d0e1",
		SlotID:     "68a1b2c3d4e5f6a7b8c9d0f2",
		Vehicle: model.Vehicle{
			Type:   config.SlotTypeCar,
			Number: "KA01AB1234",
		},
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func TestValidate_AcceptsValidRequest(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	if err := validator.Validate(baseRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	tests := []struct {
		name   string
		mutate func(req *model.BookingRequest)
	}{
		{"missing user ref", func(req *model.BookingRequest) { req.UserRef = "" }},
		{"short user ref", func(req *model.BookingRequest) { req.UserRef = "x" }},
		{"malformed facility id", func(req *model.BookingRequest) { req.FacilityID = "not-an-object-id" }},
		{"malformed slot id", func(req *model.BookingRequest) { req.SlotID = "not-an-object-id" }},
		{"missing plate", func(req *model.BookingRequest) { req.Vehicle.Number = "" }},
		{"unknown vehicle type", func(req *model.BookingRequest) { req.Vehicle.Type = "boat" }},
		{"missing start", func(req *model.BookingRequest) { req.StartTime = time.Time{} }},
		{"end before start", func(req *model.BookingRequest) { req.EndTime = req.StartTime.Add(-time.Hour) }},
		{"end equals start", func(req *model.BookingRequest) { req.EndTime = req.StartTime }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)
			if err := validator.Validate(req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_VehiclePlate(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	tests := []struct {
		name      string
		plate     string
		wantError bool
	}{
		{"plain plate", "KA01AB1234", false},
		{"lowercase with separators", "ka-01 ab.1234", false},
		{"punctuation only", "?!*", true},
		{"single character", "A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.Vehicle.Number = tt.plate
			err := validator.Validate(req)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError && !strings.Contains(err.Error(), "vehicle registration") {
				t.Errorf("expected plate message, got %q", err.Error())
			}
		})
	}
}

func TestValidate_RejectsPastStart(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	req := baseRequest()
	req.StartTime = time.Now().UTC().Add(-time.Hour)
	req.EndTime = req.StartTime.Add(2 * time.Hour)

	err := validator.Validate(req)
	if err == nil {
		t.Fatal("expected error for a start time in the past")
	}
	if !strings.Contains(err.Error(), "in the past") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidate_CapsAdvanceBooking(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	req := baseRequest()
	req.StartTime = time.Now().UTC().AddDate(0, 0, 31)
	req.EndTime = req.StartTime.Add(2 * time.Hour)

	err := validator.Validate(req)
	if err == nil {
		t.Fatal("expected error beyond the advance booking horizon")
	}
	if !strings.Contains(err.Error(), "30 days") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidate_ZeroHorizonDisablesCap(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 0)

	req := baseRequest()
	req.StartTime = time.Now().UTC().AddDate(1, 0, 0)
	req.EndTime = req.StartTime.Add(2 * time.Hour)

	if err := validator.Validate(req); err != nil {
		t.Fatalf("unexpected error with the cap disabled: %v", err)
	}
}

func TestValidateCancel(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	tests := []struct {
		name      string
		req       *model.CancelRequest
		wantError bool
	}{
		{"empty request", &model.CancelRequest{}, false},
		{"reason and actor", &model.CancelRequest{Reason: "plans changed", CancelledBy: config.CancelledByOwner}, false},
		{"unknown actor", &model.CancelRequest{CancelledBy: "stranger"}, true},
		{"oversized reason", &model.CancelRequest{Reason: strings.Repeat("x", 501)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateCancel(tt.req)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateCancel() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	validator := NewBookingValidator(testLogger(), 30)

	tests := []struct {
		name      string
		update    *model.BookingStatusUpdate
		wantError bool
	}{
		{"confirm", &model.BookingStatusUpdate{Status: config.Confirmed}, false},
		{"refund with actor", &model.BookingStatusUpdate{Status: config.Refunded, Actor: config.CancelledByAdmin}, false},
		{"missing status", &model.BookingStatusUpdate{}, true},
		{"unknown status", &model.BookingStatusUpdate{Status: "parked"}, true},
		{"unknown actor", &model.BookingStatusUpdate{Status: config.Cancelled, Actor: "stranger"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStatusUpdate(tt.update)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateStatusUpdate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
