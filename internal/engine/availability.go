package engine

import "github.com/roach88/vats/internal/device"

// AccountSet is the set of accounts backing an in-use device.
type AccountSet map[string]struct{}

// Has reports whether account is in the set.
func (s AccountSet) Has(account string) bool {
	_, ok := s[account]
	return ok
}

// UsedAccounts returns every account ID with a device currently checked out.
func UsedAccounts(devices []device.Device) AccountSet {
	used := make(AccountSet)
	for _, d := range devices {
		if d.InUse {
			used[d.AccountID] = struct{}{}
		}
	}
	return used
}

// StatusOf classifies d against the accounts in use.
func StatusOf(d device.Device, used AccountSet) device.Status {
	switch {
	case d.InUse:
		return device.StatusInUse
	case used.Has(d.AccountID):
		return device.StatusAccountBlocked
	default:
		return device.StatusAvailable
	}
}

// Filter returns the display view of devices. With hideBlocked, idle devices
// whose account is active elsewhere are dropped; in-use devices stay. The
// input is not modified and order is preserved.
func Filter(devices []device.Device, hideBlocked bool) []device.Device {
	if !hideBlocked {
		return device.CloneAll(devices)
	}
	used := UsedAccounts(devices)
	out := make([]device.Device, 0, len(devices))
	for _, d := range devices {
		if StatusOf(d, used) == device.StatusAccountBlocked {
			continue
		}
		out = append(out, d.Clone())
	}
	return out
}

// SharedAccounts lists accounts backing more than one in-use device, in
// first-seen order. Empty whenever the core invariant holds; a non-empty
// result means the file was edited by hand.
func SharedAccounts(devices []device.Device) []string {
	counts := make(map[string]int)
	var order []string
	for _, d := range devices {
		if !d.InUse {
			continue
		}
		counts[d.AccountID]++
		if counts[d.AccountID] == 2 {
			order = append(order, d.AccountID)
		}
	}
	return order
}
