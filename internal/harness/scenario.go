package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vats/internal/device"
)

// Scenario defines a conformance test scenario.
// A scenario starts from a set of records, runs lifecycle operations against
// them in order and asserts on the outcomes and the final collection.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the instant the clock starts at (RFC 3339).
	// If empty, testutil.DefaultStart is used.
	Now string `yaml:"now,omitempty"`

	// Step is how far the clock advances per reading (Go duration syntax).
	// If empty, defaults to one minute.
	Step string `yaml:"step,omitempty"`

	// Priorities replaces the default model priority table.
	Priorities map[string]int `yaml:"priorities,omitempty"`

	// Devices are the initial records, in the on-disk shape.
	Devices []DeviceRecord `yaml:"devices"`

	// Steps are the operations to run, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final collection.
	// Supported types: device_state, count, no_shared_accounts, suggestion
	Assertions []Assertion `yaml:"assertions"`
}

// DeviceRecord is an initial record. LastUsed may be omitted, in which case
// the clock start is used.
type DeviceRecord struct {
	ID             string `yaml:"id" json:"id"`
	Model          string `yaml:"model" json:"model"`
	AccountID      string `yaml:"account_id" json:"account_id"`
	InUse          bool   `yaml:"in_use" json:"in_use"`
	LastUsed       string `yaml:"last_used,omitempty" json:"last_used"`
	CustomPriority *int   `yaml:"custom_priority,omitempty" json:"custom_priority,omitempty"`
}

// Step is one lifecycle operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// ID targets a single device (toggle, set_priority, clear_priority, edit).
	ID string `yaml:"id,omitempty"`

	// IDs targets a batch (checkout, return, remove).
	IDs []string `yaml:"ids,omitempty"`

	// Value is the priority for set_priority.
	Value *int `yaml:"value,omitempty"`

	// Fields are the attributes for add and edit.
	Fields *FieldsSpec `yaml:"fields,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed without partial failures.
	Expect *Expect `yaml:"expect,omitempty"`
}

// FieldsSpec mirrors device.Fields in scenario syntax.
type FieldsSpec struct {
	ID             string `yaml:"id"`
	Model          string `yaml:"model"`
	AccountID      string `yaml:"account_id"`
	CustomPriority *int   `yaml:"custom_priority,omitempty"`
}

func (f FieldsSpec) toFields() device.Fields {
	return device.Fields{
		ID:             f.ID,
		Model:          f.Model,
		AccountID:      f.AccountID,
		CustomPriority: f.CustomPriority,
	}
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error code (e.g. ACCOUNT_CONFLICT).
	// For batches it is not used; list failing ids in Failed instead.
	Error string `yaml:"error,omitempty"`

	// Succeeded and Failed list batch item ids (checkout, return).
	// If both are nil, only the step's error is checked.
	Succeeded []string `yaml:"succeeded,omitempty"`
	Failed    []string `yaml:"failed,omitempty"`

	// Suggested is the expected suggestion id (suggest).
	Suggested string `yaml:"suggested,omitempty"`

	// None expects suggest to find nothing.
	None bool `yaml:"none,omitempty"`
}

// Assertion validates the final collection.
type Assertion struct {
	// Type specifies the assertion type:
	// - "device_state": subset match on one device's fields
	// - "count": number of devices in the collection
	// - "no_shared_accounts": no account backs two in-use devices
	// - "suggestion": the final suggestion
	Type string `yaml:"type"`

	// ID is the device to inspect (used by device_state).
	ID string `yaml:"id,omitempty"`

	// Expect contains expected field values (used by device_state).
	// Keys: model, account_id, in_use, last_used, custom_priority, status, priority.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of devices (used by count).
	Count *int `yaml:"count,omitempty"`

	// Suggested is the expected suggestion (used by suggestion).
	Suggested string `yaml:"suggested,omitempty"`

	// None expects no suggestion (used by suggestion).
	None bool `yaml:"none,omitempty"`
}

// Step op constants.
const (
	OpCheckout      = "checkout"
	OpReturn        = "return"
	OpToggle        = "toggle"
	OpSetPriority   = "set_priority"
	OpClearPriority = "clear_priority"
	OpAdd           = "add"
	OpEdit          = "edit"
	OpRemove        = "remove"
	OpSuggest       = "suggest"
)

// Assertion type constants.
const (
	AssertDeviceState      = "device_state"
	AssertCount            = "count"
	AssertNoSharedAccounts = "no_shared_accounts"
	AssertSuggestion       = "suggestion"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Now != "" {
		if _, err := device.ParseTimestamp(s.Now); err != nil {
			return fmt.Errorf("now: %w", err)
		}
	}

	if s.Step != "" {
		d, err := time.ParseDuration(s.Step)
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("step must be non-negative")
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, s *Step) error {
	switch s.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpCheckout, OpReturn:
		if len(s.IDs) == 0 {
			return fmt.Errorf("steps[%d]: ids is required for %s", index, s.Op)
		}
	case OpRemove:
		// An empty selection is a valid input; the engine rejects it.
	case OpToggle, OpClearPriority:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for %s", index, s.Op)
		}
	case OpSetPriority:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for set_priority", index)
		}
		if s.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for set_priority", index)
		}
	case OpAdd:
		if s.Fields == nil {
			return fmt.Errorf("steps[%d]: fields is required for add", index)
		}
	case OpEdit:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for edit", index)
		}
		if s.Fields == nil {
			return fmt.Errorf("steps[%d]: fields is required for edit", index)
		}
	case OpSuggest:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.Expect != nil && s.Expect.Suggested != "" && s.Expect.None {
		return fmt.Errorf("steps[%d].expect: suggested and none are mutually exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDeviceState:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for device_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for device_state", index)
		}
	case AssertCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertNoSharedAccounts:
	case AssertSuggestion:
		if a.Suggested == "" && !a.None {
			return fmt.Errorf("assertions[%d]: suggested or none is required for suggestion", index)
		}
		if a.Suggested != "" && a.None {
			return fmt.Errorf("assertions[%d]: suggested and none are mutually exclusive", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
