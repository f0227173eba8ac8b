package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"parkly/pkg/logger"
	"parkly/pkg/model"
	"parkly/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	// maxAdvance caps how far in the future a booking may start. Zero
	// disables the cap.
	maxAdvance time.Duration
}

func NewBookingValidator(log *logger.Logger, maxBookingDays int) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("vehicle_plate", validateVehiclePlate); err != nil {
		log.Fatal("Failed to register 'vehicle_plate' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate:   v,
		logger:     log,
		maxAdvance: time.Duration(maxBookingDays) * 24 * time.Hour,
	}
}

func validateVehiclePlate(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return sanitizer.NormalizePlate(value) != ""
}

func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	now := time.Now()

	if req.StartTime.Before(now) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time cannot be in the past",
			},
		}
	}

	if v.maxAdvance > 0 && req.StartTime.After(now.Add(v.maxAdvance)) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: fmt.Sprintf("start_time cannot be more than %d days in advance", int(v.maxAdvance.Hours()/24)),
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "vehicle_plate":
			message = fmt.Sprintf("%s must be a valid vehicle registration number", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
