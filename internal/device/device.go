package device

import (
	"time"
)

// Device is a shared headset and the account it authenticates against.
type Device struct {
	ID        string
	Model     string
	AccountID string
	InUse     bool

	// LastUsed is the most recent checkout (creation time until the first one).
	LastUsed time.Time

	// CustomPriority overrides the model default when non-nil. 1 is highest.
	CustomPriority *int
}

// Clone returns a copy that shares no memory with d.
func (d Device) Clone() Device {
	if d.CustomPriority != nil {
		p := *d.CustomPriority
		d.CustomPriority = &p
	}
	return d
}

// Status is the derived availability of a device.
type Status int

const (
	StatusAvailable Status = iota
	StatusAccountBlocked
	StatusInUse
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusAccountBlocked:
		return "Account in use"
	case StatusInUse:
		return "In Use"
	default:
		return "Unknown"
	}
}

// CloneAll deep-copies a collection.
func CloneAll(devices []Device) []Device {
	if devices == nil {
		return nil
	}
	out := make([]Device, len(devices))
	for i, d := range devices {
		out[i] = d.Clone()
	}
	return out
}

// IndexOf returns the position of the device with the given id, or -1.
func IndexOf(devices []Device, id string) int {
	for i := range devices {
		if devices[i].ID == id {
			return i
		}
	}
	return -1
}

// IntPtr is a convenience for building optional priorities.
func IntPtr(v int) *int {
	return &v
}
