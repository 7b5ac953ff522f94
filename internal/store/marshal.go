package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/vats/internal/device"
)

// record is the on-disk shape of a device.
type record struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	AccountID      string `json:"account_id"`
	InUse          bool   `json:"in_use"`
	LastUsed       string `json:"last_used"`
	CustomPriority *int   `json:"custom_priority,omitempty"`
}

func toRecord(d device.Device) record {
	r := record{
		ID:        d.ID,
		Model:     d.Model,
		AccountID: d.AccountID,
		InUse:     d.InUse,
		LastUsed:  device.FormatTimestamp(d.LastUsed),
	}
	if d.CustomPriority != nil {
		r.CustomPriority = device.IntPtr(*d.CustomPriority)
	}
	return r
}

func fromRecord(r record) (device.Device, error) {
	lastUsed, err := device.ParseTimestamp(r.LastUsed)
	if err != nil {
		return device.Device{}, err
	}
	d := device.Device{
		ID:        device.NormalizeKey(r.ID),
		Model:     device.NormalizeKey(r.Model),
		AccountID: device.NormalizeKey(r.AccountID),
		InUse:     r.InUse,
		LastUsed:  device.Truncate(lastUsed),
	}
	if r.CustomPriority != nil {
		d.CustomPriority = device.IntPtr(*r.CustomPriority)
	}
	return d, nil
}

// Marshal encodes a collection in the file format: an indented JSON array
// followed by a newline.
func Marshal(devices []device.Device) ([]byte, error) {
	records := make([]record, 0, len(devices))
	for _, d := range devices {
		records = append(records, toRecord(d))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal devices: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes and validates the file format. name labels errors.
// Blank input is an empty collection. Every failure is a STORAGE error.
func Unmarshal(name string, data []byte) ([]device.Device, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []device.Device{}, nil
	}

	if err := validateShape(name, data); err != nil {
		return nil, device.NewStorageError(fmt.Sprintf("load %s", name), err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, device.NewStorageError(fmt.Sprintf("load %s", name), err)
	}

	devices := make([]device.Device, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, r := range records {
		d, err := fromRecord(r)
		if err != nil {
			return nil, device.NewStorageError(
				fmt.Sprintf("load %s", name),
				fmt.Errorf("record %d (%s): %w", i, r.ID, err),
			)
		}
		if d.ID == "" || d.AccountID == "" {
			return nil, device.NewStorageError(
				fmt.Sprintf("load %s", name),
				fmt.Errorf("record %d: id and account_id cannot be blank", i),
			)
		}

		// Ids are compared in normalized form.
		if prev, dup := seen[d.ID]; dup {
			return nil, device.NewStorageError(
				fmt.Sprintf("load %s", name),
				fmt.Errorf("record %d: duplicate id %q (first at record %d)", i, d.ID, prev),
			)
		}
		seen[d.ID] = i
		devices = append(devices, d)
	}
	return devices, nil
}
