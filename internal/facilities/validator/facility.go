package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"parkly/pkg/config"
	"parkly/pkg/logger"
	"parkly/pkg/model"

	"github.com/go-playground/validator/v10"
)

var validWeekdays = map[config.Weekday]struct{}{
	config.Sunday: {}, config.Monday: {}, config.Tuesday: {}, config.Wednesday: {},
	config.Thursday: {}, config.Friday: {}, config.Saturday: {},
}

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

type FacilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewFacilityValidator(log *logger.Logger) *FacilityValidator {
	v := validator.New()

	if err := v.RegisterValidation("operating_hours", validateOperatingHours); err != nil {
		log.Fatal("Failed to register 'operating_hours' validator", "error", err)
	}

	log.Info("Facility validator initialized successfully")

	return &FacilityValidator{
		validate: v,
		logger:   log,
	}
}

func validateOperatingHours(fl validator.FieldLevel) bool {
	hours, ok := fl.Field().Interface().(map[config.Weekday]model.HoursRange)
	if !ok {
		return false
	}

	for day, window := range hours {
		if _, valid := validWeekdays[day]; !valid {
			return false
		}
		open, err := time.Parse("15:04", window.Open)
		if err != nil {
			return false
		}
		closeAt, err := time.Parse("15:04", window.Close)
		if err != nil {
			return false
		}
		if !closeAt.After(open) {
			return false
		}
	}
	return true
}

func (v *FacilityValidator) Validate(facility *model.Facility) error {
	if err := v.validate.Struct(facility); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !facility.Is24x7 && len(facility.OperatingHours) == 0 {
		return ValidationErrors{
			ValidationError{
				Field:   "OperatingHours",
				Message: "operating_hours is required unless is_24x7 is set",
			},
		}
	}

	return nil
}

func (v *FacilityValidator) ValidateSlot(slot *model.Slot) error {
	if err := v.validate.Struct(slot); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *FacilityValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "iso4217":
			message = fmt.Sprintf("%s must be a valid ISO 4217 currency code", err.Field())
		case "operating_hours":
			message = "operating_hours must map weekday names to open/close times in HH:MM 24-hour format with open before close"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
