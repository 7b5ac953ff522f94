package device

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Fields are the operator-supplied attributes of a device, used by add and
// edit. Usage state (InUse, LastUsed) is never taken from input.
type Fields struct {
	ID        string `json:"id" validate:"required"`
	Model     string `json:"model"`
	AccountID string `json:"account_id" validate:"required"`

	// CustomPriority is optional; range checks depend on engine config.
	CustomPriority *int `json:"custom_priority,omitempty"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. Field errors are reported with
// their JSON names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// NormalizeKey trims surrounding whitespace and applies Unicode NFC, so
// identifiers typed differently but rendered identically compare equal.
func NormalizeKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize returns f with every string field passed through NormalizeKey.
func (f Fields) Normalize() Fields {
	f.ID = NormalizeKey(f.ID)
	f.Model = NormalizeKey(f.Model)
	f.AccountID = NormalizeKey(f.AccountID)
	return f
}

// Validate checks the emptiness rules. Uniqueness needs the collection and
// is checked by the engine.
func (f Fields) Validate() error {
	err := Validator().Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("invalid device fields: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return NewValidationError("%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s cannot be empty", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// ValidatePriority checks value against the inclusive [min, max] range.
func ValidatePriority(value, min, max int) error {
	tag := fmt.Sprintf("gte=%d,lte=%d", min, max)
	if err := Validator().Var(value, tag); err != nil {
		return NewValidationError("priority must be between %d and %d, got %d", min, max, value)
	}
	return nil
}
