package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/upb/account-service/models"
)

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

var (
	// validate is the singleton validator instance
	validate *validator.Validate

	// now is the clock used by date validation
	now = time.Now
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so error details match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("birthdate", validateBirthdate); err != nil {
		panic(fmt.Sprintf("register birthdate validator: %v", err))
	}
	if err := validate.RegisterValidation("bcryptlen", validateBcryptLength); err != nil {
		panic(fmt.Sprintf("register bcryptlen validator: %v", err))
	}
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// ValidationError wraps validation errors with structured details
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// NewFieldError creates a ValidationError for a single field
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "Validation failed",
		Fields:  map[string]string{field: message},
	}
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		tag := err.Tag()

		switch tag {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "email":
			fields[field] = fmt.Sprintf("%s must be a valid email", field)
		case "uuid":
			fields[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "birthdate":
			fields[field] = fmt.Sprintf("%s must be a date (YYYY-MM-DD) that is not in the future", field)
		case "bcryptlen":
			fields[field] = fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "oneof":
			fields[field] = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		default:
			fields[field] = fmt.Sprintf("%s validation failed on '%s' tag", field, tag)
		}
	}

	return &ValidationError{
		Message: "Validation failed",
		Fields:  fields,
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// GetValidationFields extracts field errors from a ValidationError
func GetValidationFields(err error) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}

// ParseBirthdate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at UTC midnight. Dates after today (UTC) are rejected.
func ParseBirthdate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	var t time.Time
	var err error
	if t, err = time.Parse(models.DateLayout, s); err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
	}

	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	today := now().UTC()
	if date.After(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)) {
		return time.Time{}, fmt.Errorf("date %s is in the future", date.Format(models.DateLayout))
	}
	return date, nil
}

func validateBirthdate(fl validator.FieldLevel) bool {
	_, err := ParseBirthdate(fl.Field().String())
	return err == nil
}

// validateBcryptLength counts bytes, not runes
func validateBcryptLength(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

// ParseUUID parses a path or query value as a UUID
func ParseUUID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, NewFieldError(field, fmt.Sprintf("%s must be a valid UUID", field))
	}
	return id, nil
}

// ParsePositiveInt parses an optional query value; empty returns def.
// Anything that is not a positive base-10 integer is a ValidationError.
func ParsePositiveInt(value, field string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, NewFieldError(field, fmt.Sprintf("%s must be a positive integer", field))
	}
	return n, nil
}
