package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"turfbook/internal/pricing"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"

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

// Details renders the errors for an AppError details map.
func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := pricing.ParseClock(fl.Field().String())
	return err == nil
}

// ValidateCreate checks the request shape: ids, date and clock formats, and
// that the slot ends after it starts.
func (v *BookingValidator) ValidateCreate(req *model.CreateBookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if _, err := pricing.DurationHours(req.StartTime, req.EndTime); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

// ValidateSchedule checks the request against the turf's operating hours and
// the current business-local time.
func (v *BookingValidator) ValidateSchedule(req *model.CreateBookingRequest, turf *model.Turf, now time.Time) error {
	var errs ValidationErrors

	today := now.Format(pricing.DateLayout)
	start, _ := pricing.ParseClock(req.StartTime)
	end, _ := pricing.ParseClock(req.EndTime)

	switch {
	case req.Date < today:
		errs = append(errs, ValidationError{Field: "Date", Message: "date cannot be in the past"})
	case req.Date == today && start < now.Hour()*60+now.Minute():
		errs = append(errs, ValidationError{Field: "StartTime", Message: "start_time has already passed"})
	}

	open, errOpen := pricing.ParseClock(turf.OperatingHours.Start)
	closing, errClose := pricing.ParseClock(turf.OperatingHours.End)
	if errOpen != nil || errClose != nil {
		errs = append(errs, ValidationError{Field: "Turf", Message: "turf has no valid operating hours"})
	} else if start < open || end > closing {
		errs = append(errs, ValidationError{
			Field:   "StartTime",
			Message: fmt.Sprintf("booking must fall within operating hours %s-%s", turf.OperatingHours.Start, turf.OperatingHours.End),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) ValidateStatus(update *model.BookingStatusUpdate) error {
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
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "clock":
			message = fmt.Sprintf("%s must be a time in HH:mm format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
