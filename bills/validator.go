package bills

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/billtrack-go/apperror"
)

// dueDatePattern is a literal shape check: four digits, dash, two digits,
// dash, two digits. No calendar validity beyond the pattern is enforced.
var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// fieldMessages maps (json field, violated rule) to the user-facing message.
// Validation never short-circuits: callers receive every violated field.
var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Bill name is required",
		"min":      "Bill name must be at least 3 characters",
		"max":      "Bill name must not exceed 255 characters",
	},
	"amount": {
		"required": "Amount is required",
		"gt":       "Amount must be a positive number",
	},
	"due_date": {
		"required": "Due date is required",
		"billdate": "Due date must be in YYYY-MM-DD format",
	},
	"category": {
		"required": "Category is required",
		"min":      "Category is required",
		"max":      "Category must not exceed 100 characters",
	},
	"status": {
		"oneof": "Status must be one of: pending, paid, overdue, cancelled",
	},
}

// Validator wraps a configured go-playground validator for bill payloads.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the bill validator: JSON tag names in error output and
// the custom billdate rule registered.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// The rule receives a dereferenced value for pointer fields.
	_ = v.RegisterValidation("billdate", func(fl validator.FieldLevel) bool {
		return dueDatePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Check validates a create or update payload and returns a ValidationError
// listing every violated field, or nil when the payload is valid.
func (v *Validator) Check(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternalError("validation failed", err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe.Field(), fe.Tag()),
		})
	}
	return apperror.NewValidationError("Validation error", fields)
}

func messageFor(field, tag string) string {
	if byTag, ok := fieldMessages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return field + " is invalid"
}
