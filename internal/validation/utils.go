package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/deppfellow/zrouter/internal/errs"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under the key the client sent, not the Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"param", "json"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	_ = v.RegisterValidation("uuidList", func(fl validator.FieldLevel) bool {
		for _, id := range strings.Split(fl.Field().String(), ",") {
			if !IsValidUUID(strings.TrimSpace(id)) {
				return false
			}
		}
		return true
	})

	return v
}

// Validatable is implemented by request payload types that know how to validate themselves.
type Validatable interface {
	Validate() error
}

// Error is a validation failure carrying a single message.
//
//	return nil, validation.NewError("bad field")
type Error struct {
	Message string
}

// NewError creates a validation failure with the given message.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// Errorf creates a validation failure with a formatted message.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Message
}

// CustomValidationError represents a single validation issue for a specific field.
// Use it for rules that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	parts := make([]string, 0, len(c))
	for _, e := range c {
		parts = append(parts, e.Field+" "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Struct validates v. Validatable types run their own Validate, everything
// else goes through the struct tags.
func Struct(v any) error {
	if validatable, ok := v.(Validatable); ok {
		return validatable.Validate()
	}
	return validate.Struct(v)
}

// IsFailure reports whether err is one of the validation failure kinds.
func IsFailure(err error) bool {
	var (
		plain  *Error
		tags   validator.ValidationErrors
		custom CustomValidationErrors
	)

	return errors.As(err, &plain) || errors.As(err, &tags) || errors.As(err, &custom)
}

// Message returns the text shown to the client for a validation failure.
func Message(err error) string {
	var plain *Error
	if errors.As(err, &plain) {
		return plain.Message
	}

	fields := FieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" "+f.Error)
	}
	return strings.Join(parts, "; ")
}

// FieldErrors extracts per-field messages from validator or custom errors.
func FieldErrors(err error) []errs.FieldError {
	var fieldErrors []errs.FieldError

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		for _, e := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: e.Field,
				Error: e.Message,
			})
		}
		return fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	for _, err := range validationErrors {
		field := err.Field()
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "email":
			msg = "must be a valid email address"

		case "e164":
			msg = "must be a valid phone number with country code"

		case "uuid":
			msg = "must be a valid UUID"

		case "uuidList":
			msg = "must be a comma-separated list of valid UUIDs"

		case "dive":
			msg = "some items are invalid"

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("failed %s:%s", err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("failed %s", err.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return fieldErrors
}

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidUUID checks the textual UUID format only.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(uuid)
}
