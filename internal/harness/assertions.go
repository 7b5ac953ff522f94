package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Devices  []device.Device // Final collection for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Devices) > 0 {
		fmt.Fprintf(&buf, "\nFinal devices:\n")
		for i, d := range e.Devices {
			fmt.Fprintf(&buf, "  [%d] %s model=%s account=%s in_use=%t last_used=%s\n",
				i+1, d.ID, d.Model, d.AccountID, d.InUse, device.FormatTimestamp(d.LastUsed))
		}
	}

	return buf.String()
}

// deviceFields flattens a device into the keys device_state accepts.
func deviceFields(e *engine.Engine, d device.Device) map[string]any {
	status, _ := e.Status(d.ID)
	priority, _ := e.Config().EffectivePriority(d)

	var custom any
	if d.CustomPriority != nil {
		custom = *d.CustomPriority
	}

	return map[string]any{
		"id":              d.ID,
		"model":           d.Model,
		"account_id":      d.AccountID,
		"in_use":          d.InUse,
		"last_used":       device.FormatTimestamp(d.LastUsed),
		"custom_priority": custom,
		"status":          status.String(),
		"priority":        priority,
	}
}

// assertDeviceState checks one device's fields (subset semantics).
func assertDeviceState(e *engine.Engine, assertion Assertion) error {
	d, err := e.Device(assertion.ID)
	if err != nil {
		return &AssertionError{
			Type:     AssertDeviceState,
			Expected: fmt.Sprintf("device %q to exist", assertion.ID),
			Actual:   "device not found",
			Devices:  e.Devices(),
		}
	}

	actual := deviceFields(e, d)

	// Sort keys so the first mismatch reported is deterministic
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertDeviceState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("unknown field %q", key),
			}
		}

		if key == "last_used" {
			expectedValue = normalizeTimestamp(expectedValue)
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertDeviceState,
				Expected: fmt.Sprintf("%s.%s = %v (type %T)", assertion.ID, key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("%s.%s = %v (type %T)", assertion.ID, key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// normalizeTimestamp rewrites any accepted timestamp form into the stored
// form. Unparseable values are returned unchanged and will fail to match.
func normalizeTimestamp(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t, err := device.ParseTimestamp(s)
	if err != nil {
		return v
	}
	return device.FormatTimestamp(t)
}

// stateValuesEqual compares a YAML-decoded expected value with an actual
// field value.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	switch exp := expected.(type) {
	case int:
		if actualInt, ok := actual.(int); ok {
			return exp == actualInt
		}
		return false
	case int64:
		if actualInt, ok := actual.(int); ok {
			return exp == int64(actualInt)
		}
		return false
	case float64:
		// YAML decodes "2.0" as float
		if actualInt, ok := actual.(int); ok {
			return exp == float64(actualInt)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// assertCount checks the number of devices.
func assertCount(e *engine.Engine, assertion Assertion) error {
	n := len(e.Devices())
	if n != *assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d devices", *assertion.Count),
			Actual:   fmt.Sprintf("%d devices", n),
			Devices:  e.Devices(),
		}
	}
	return nil
}

// assertNoSharedAccounts checks that no account backs two in-use devices.
func assertNoSharedAccounts(e *engine.Engine) error {
	devices := e.Devices()
	if shared := engine.SharedAccounts(devices); len(shared) > 0 {
		return &AssertionError{
			Type:     AssertNoSharedAccounts,
			Expected: "at most one in-use device per account",
			Actual:   fmt.Sprintf("shared accounts: %s", strings.Join(shared, ", ")),
			Devices:  devices,
		}
	}
	return nil
}

// assertSuggestion checks the final suggestion.
func assertSuggestion(e *engine.Engine, assertion Assertion) error {
	best, ok := e.Suggest()
	actual := "no suggestion"
	if ok {
		actual = fmt.Sprintf("suggestion %q", best.ID)
	}

	if assertion.None {
		if ok {
			return &AssertionError{
				Type:     AssertSuggestion,
				Expected: "no suggestion",
				Actual:   actual,
				Devices:  e.Devices(),
			}
		}
		return nil
	}

	if !ok || best.ID != assertion.Suggested {
		return &AssertionError{
			Type:     AssertSuggestion,
			Expected: fmt.Sprintf("suggestion %q", assertion.Suggested),
			Actual:   actual,
			Devices:  e.Devices(),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the engine's final
// state. Returns a slice of error messages for failed assertions.
func EvaluateAssertions(e *engine.Engine, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertDeviceState:
			err = assertDeviceState(e, assertion)
		case AssertCount:
			if assertion.Count == nil {
				err = fmt.Errorf("assertion[%d]: count requires a value", i)
			} else {
				err = assertCount(e, assertion)
			}
		case AssertNoSharedAccounts:
			err = assertNoSharedAccounts(e)
		case AssertSuggestion:
			err = assertSuggestion(e, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
