package engine

import (
	"time"

	"github.com/roach88/vats/internal/device"
)

// ItemError is the failure of one item in a batch.
type ItemError struct {
	DeviceID string
	Err      error
}

// BatchResult reports a partial-failure batch item by item.
type BatchResult struct {
	Succeeded []string
	Failed    []ItemError
}

// OK reports whether every item succeeded.
func (r BatchResult) OK() bool {
	return len(r.Failed) == 0
}

// Checkout marks the device in use and stamps LastUsed.
//
// Fails with NOT_FOUND, ALREADY_IN_USE, or ACCOUNT_CONFLICT when another
// device on the same account is checked out anywhere in the collection.
func (e *Engine) Checkout(id string) error {
	return e.checkout(id, e.UsedAccounts())
}

// CheckoutBatch checks out each id in order. Items are independent: a failure
// is recorded and the batch continues. used is updated after every success
// so two devices on one account cannot both succeed.
func (e *Engine) CheckoutBatch(ids []string) BatchResult {
	used := e.UsedAccounts()
	var result BatchResult
	for _, id := range ids {
		if err := e.checkout(id, used); err != nil {
			result.Failed = append(result.Failed, ItemError{DeviceID: id, Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

func (e *Engine) checkout(id string, used AccountSet) error {
	i := e.indexOf(id)
	if i < 0 {
		return device.NewNotFoundError(id)
	}
	d := &e.devices[i]
	if d.InUse {
		return device.NewAlreadyInUseError(id)
	}
	if used.Has(d.AccountID) {
		return device.NewAccountConflictError(id, d.AccountID)
	}

	d.InUse = true
	d.LastUsed = e.advance(d.LastUsed)
	used[d.AccountID] = struct{}{}

	e.logger.Debug("device checked out", "id", id, "account", d.AccountID, "last_used", device.FormatTimestamp(d.LastUsed))
	return nil
}

// advance returns the checkout stamp. LastUsed never moves backwards, so a
// clock reading earlier than prev keeps prev.
func (e *Engine) advance(prev time.Time) time.Time {
	now := device.Truncate(e.clock.Now())
	if now.Before(prev) {
		return prev
	}
	return now
}

// Return marks the device idle. Returning an idle device is a no-op.
// LastUsed is left untouched.
func (e *Engine) Return(id string) error {
	i := e.indexOf(id)
	if i < 0 {
		return device.NewNotFoundError(id)
	}
	if !e.devices[i].InUse {
		return nil
	}
	e.devices[i].InUse = false
	e.logger.Debug("device returned", "id", id)
	return nil
}

// ReturnBatch returns each id in order, recording unknown ids as failures.
func (e *Engine) ReturnBatch(ids []string) BatchResult {
	var result BatchResult
	for _, id := range ids {
		if err := e.Return(id); err != nil {
			result.Failed = append(result.Failed, ItemError{DeviceID: id, Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// Toggle returns an in-use device or checks out an idle one, subject to the
// same checks as Checkout. inUse is the resulting state.
func (e *Engine) Toggle(id string) (inUse bool, err error) {
	i := e.indexOf(id)
	if i < 0 {
		return false, device.NewNotFoundError(id)
	}
	if e.devices[i].InUse {
		return false, e.Return(id)
	}
	if err := e.Checkout(id); err != nil {
		return false, err
	}
	return true, nil
}

// SetPriority sets a custom priority within the configured bounds.
// No usage checks apply.
func (e *Engine) SetPriority(id string, value int) error {
	i := e.indexOf(id)
	if i < 0 {
		return device.NewNotFoundError(id)
	}
	if err := device.ValidatePriority(value, e.config.MinPriority, e.config.MaxPriority); err != nil {
		return err
	}
	e.devices[i].CustomPriority = device.IntPtr(value)
	e.logger.Debug("priority set", "id", id, "priority", value)
	return nil
}

// ClearPriority drops the custom priority so the model default applies.
func (e *Engine) ClearPriority(id string) error {
	i := e.indexOf(id)
	if i < 0 {
		return device.NewNotFoundError(id)
	}
	e.devices[i].CustomPriority = nil
	e.logger.Debug("priority cleared", "id", id)
	return nil
}

// Add appends a new idle device stamped with the current time.
func (e *Engine) Add(f device.Fields) (device.Device, error) {
	f = f.Normalize()
	if err := e.validateFields(f, ""); err != nil {
		return device.Device{}, err
	}

	d := device.Device{
		ID:        f.ID,
		Model:     f.Model,
		AccountID: f.AccountID,
		LastUsed:  device.Truncate(e.clock.Now()),
	}
	if f.CustomPriority != nil {
		d.CustomPriority = device.IntPtr(*f.CustomPriority)
	}
	e.devices = append(e.devices, d)

	e.logger.Debug("device added", "id", d.ID, "model", d.Model, "account", d.AccountID)
	return d.Clone(), nil
}

// Edit replaces the identifying fields of an idle device. Usage state and
// history are preserved; the custom priority is kept unless f sets one.
func (e *Engine) Edit(id string, f device.Fields) error {
	i := e.indexOf(id)
	if i < 0 {
		return device.NewNotFoundError(id)
	}
	if e.devices[i].InUse {
		return device.NewEditBlockedError(id)
	}

	f = f.Normalize()
	if err := e.validateFields(f, e.devices[i].ID); err != nil {
		return err
	}

	d := &e.devices[i]
	d.ID = f.ID
	d.Model = f.Model
	d.AccountID = f.AccountID
	if f.CustomPriority != nil {
		d.CustomPriority = device.IntPtr(*f.CustomPriority)
	}

	e.logger.Debug("device edited", "id", id, "new_id", d.ID, "model", d.Model, "account", d.AccountID)
	return nil
}

// validateFields applies the emptiness, uniqueness and priority rules.
// self is the id being edited, exempt from the uniqueness check.
func (e *Engine) validateFields(f device.Fields, self string) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ID != self && device.IndexOf(e.devices, f.ID) >= 0 {
		return device.NewValidationError("device ID %q already exists", f.ID)
	}
	if f.CustomPriority != nil {
		return device.ValidatePriority(*f.CustomPriority, e.config.MinPriority, e.config.MaxPriority)
	}
	return nil
}

// Remove deletes every listed device or none of them. The batch is rejected
// when the selection is empty, names unknown devices, or contains devices
// in use (REMOVE_BLOCKED lists them).
func (e *Engine) Remove(ids []string) error {
	if len(ids) == 0 {
		return device.NewValidationError("no devices selected")
	}

	targets := make(map[string]struct{}, len(ids))
	var missing, busy []string
	for _, id := range ids {
		key := device.NormalizeKey(id)
		if _, dup := targets[key]; dup {
			continue
		}
		targets[key] = struct{}{}

		i := e.indexOf(key)
		switch {
		case i < 0:
			missing = append(missing, id)
		case e.devices[i].InUse:
			busy = append(busy, id)
		}
	}
	if len(missing) > 0 {
		return device.NewNotFoundError(missing...)
	}
	if len(busy) > 0 {
		return device.NewRemoveBlockedError(busy)
	}

	kept := e.devices[:0:0]
	for _, d := range e.devices {
		if _, drop := targets[d.ID]; drop {
			continue
		}
		kept = append(kept, d)
	}
	e.devices = kept

	e.logger.Debug("devices removed", "ids", ids)
	return nil
}
