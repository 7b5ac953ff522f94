package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/testutil"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := device.ParseTimestamp(s)
	require.NoError(t, err)
	return v
}

func dev(id, model, account string, inUse bool, lastUsed time.Time) device.Device {
	return device.Device{ID: id, Model: model, AccountID: account, InUse: inUse, LastUsed: lastUsed}
}

// newTestEngine builds an engine with the default config and a clock that
// advances one minute per reading.
func newTestEngine(devices ...device.Device) (*Engine, *testutil.StepClock) {
	clock := testutil.NewStepClock(time.Time{}, time.Minute)
	return New(devices, DefaultConfig(), WithClock(clock)), clock
}

// requireNoSharedAccounts checks the core invariant.
func requireNoSharedAccounts(t *testing.T, devices []device.Device) {
	t.Helper()
	seen := map[string]string{}
	for _, d := range devices {
		if !d.InUse {
			continue
		}
		other, dup := seen[d.AccountID]
		require.False(t, dup, "devices %q and %q share in-use account %q", other, d.ID, d.AccountID)
		seen[d.AccountID] = d.ID
	}
}
