package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/store"
	"github.com/roach88/vats/internal/testutil"
)

func TestCheckout_Scenario(t *testing.T) {
	e, clock := newTestEngine(dev("Q3-1", "Quest3", "a1", false, ts(t, "2024-01-01T00:00:00Z")))
	stamp := clock.Peek()

	require.NoError(t, e.Checkout("Q3-1"))

	got, err := e.Device("Q3-1")
	require.NoError(t, err)
	assert.True(t, got.InUse)
	assert.Equal(t, stamp, got.LastUsed)

	err = e.Checkout("Q3-1")
	require.Error(t, err)
	assert.True(t, device.IsAlreadyInUse(err))
}

func TestCheckout_AccountConflict(t *testing.T) {
	e, _ := newTestEngine(
		dev("Q3-1", "Quest3", "a1", true, ts(t, "2024-01-01T00:00:00Z")),
		dev("Q2-1", "Quest2", "a1", false, ts(t, "2024-01-01T00:00:00Z")),
	)

	err := e.Checkout("Q2-1")
	require.Error(t, err)
	assert.True(t, device.IsAccountConflict(err))

	var de *device.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "a1", de.AccountID)

	got, _ := e.Device("Q2-1")
	assert.False(t, got.InUse)
	assert.Equal(t, ts(t, "2024-01-01T00:00:00Z"), got.LastUsed)
}

func TestCheckout_NotFound(t *testing.T) {
	e, _ := newTestEngine()
	assert.True(t, device.IsNotFound(e.Checkout("ghost")))
}

func TestCheckout_LastUsedNeverGoesBackwards(t *testing.T) {
	future := ts(t, "2030-01-01T00:00:00Z")
	e, _ := newTestEngine(dev("Q3-1", "Quest3", "a1", false, future))

	require.NoError(t, e.Checkout("Q3-1"))

	got, _ := e.Device("Q3-1")
	assert.Equal(t, future, got.LastUsed)
}

func TestCheckout_TruncatesToMicroseconds(t *testing.T) {
	clock := testutil.NewStepClock(time.Date(2024, 6, 1, 9, 0, 0, 123456789, time.UTC), 0)
	e := New([]device.Device{dev("Q3-1", "Quest3", "a1", false, time.Time{})}, DefaultConfig(), WithClock(clock))

	require.NoError(t, e.Checkout("Q3-1"))

	got, _ := e.Device("Q3-1")
	assert.Equal(t, 123456000, got.LastUsed.Nanosecond())
}

func TestCheckoutThenReturn_RestoresInUseOnly(t *testing.T) {
	orig := dev("Q3-1", "Quest3", "a1", false, ts(t, "2024-01-01T00:00:00Z"))
	orig.CustomPriority = device.IntPtr(3)
	e, _ := newTestEngine(orig)

	require.NoError(t, e.Checkout("Q3-1"))
	require.NoError(t, e.Return("Q3-1"))

	got, _ := e.Device("Q3-1")
	assert.False(t, got.InUse)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.Model, got.Model)
	assert.Equal(t, orig.AccountID, got.AccountID)
	assert.Equal(t, orig.CustomPriority, got.CustomPriority)
	assert.True(t, got.LastUsed.After(orig.LastUsed))
}

func TestCheckoutBatch_PartialFailure(t *testing.T) {
	old := ts(t, "2024-01-01T00:00:00Z")
	e, _ := newTestEngine(
		dev("A", "Quest3", "shared", false, old),
		dev("B", "Quest2", "shared", false, old),
		dev("C", "Quest2", "solo", false, old),
		dev("D", "Quest2", "busy", true, old),
	)

	result := e.CheckoutBatch([]string{"A", "B", "ghost", "C", "D"})

	assert.Equal(t, []string{"A", "C"}, result.Succeeded)
	require.Len(t, result.Failed, 3)
	assert.Equal(t, "B", result.Failed[0].DeviceID)
	assert.True(t, device.IsAccountConflict(result.Failed[0].Err))
	assert.Equal(t, "ghost", result.Failed[1].DeviceID)
	assert.True(t, device.IsNotFound(result.Failed[1].Err))
	assert.Equal(t, "D", result.Failed[2].DeviceID)
	assert.True(t, device.IsAlreadyInUse(result.Failed[2].Err))
	assert.False(t, result.OK())

	requireNoSharedAccounts(t, e.Devices())
}

func TestCheckoutBatch_SelectionOrderDecides(t *testing.T) {
	old := ts(t, "2024-01-01T00:00:00Z")
	e, _ := newTestEngine(
		dev("A", "Quest3", "shared", false, old),
		dev("B", "Quest2", "shared", false, old),
	)

	result := e.CheckoutBatch([]string{"B", "A"})
	assert.Equal(t, []string{"B"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "A", result.Failed[0].DeviceID)
}

func TestCheckoutBatch_DuplicateIDs(t *testing.T) {
	e, _ := newTestEngine(dev("A", "Quest3", "a", false, time.Time{}))

	result := e.CheckoutBatch([]string{"A", "A"})
	assert.Equal(t, []string{"A"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.True(t, device.IsAlreadyInUse(result.Failed[0].Err))
}

func TestReturn_Idempotent(t *testing.T) {
	last := ts(t, "2024-01-01T00:00:00Z")
	e, _ := newTestEngine(dev("A", "Quest3", "a", false, last))

	require.NoError(t, e.Return("A"))
	require.NoError(t, e.Return("A"))

	got, _ := e.Device("A")
	assert.False(t, got.InUse)
	assert.Equal(t, last, got.LastUsed)
}

func TestReturn_DoesNotTouchLastUsed(t *testing.T) {
	last := ts(t, "2024-01-01T00:00:00Z")
	e, _ := newTestEngine(dev("A", "Quest3", "a", true, last))

	require.NoError(t, e.Return("A"))

	got, _ := e.Device("A")
	assert.Equal(t, last, got.LastUsed)
}

func TestReturn_NotFound(t *testing.T) {
	e, _ := newTestEngine()
	assert.True(t, device.IsNotFound(e.Return("ghost")))
}

func TestReturnBatch(t *testing.T) {
	e, _ := newTestEngine(
		dev("A", "Quest3", "a", true, time.Time{}),
		dev("B", "Quest3", "b", false, time.Time{}),
	)

	result := e.ReturnBatch([]string{"A", "B", "ghost"})
	assert.Equal(t, []string{"A", "B"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ghost", result.Failed[0].DeviceID)
	assert.Empty(t, e.UsedAccounts())
}

func TestToggle(t *testing.T) {
	e, _ := newTestEngine(
		dev("A", "Quest3", "a", false, time.Time{}),
		dev("B", "Quest3", "a", false, time.Time{}),
	)

	inUse, err := e.Toggle("A")
	require.NoError(t, err)
	assert.True(t, inUse)

	_, err = e.Toggle("B")
	assert.True(t, device.IsAccountConflict(err))

	inUse, err = e.Toggle("A")
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = e.Toggle("B")
	require.NoError(t, err)
	assert.True(t, inUse)

	_, err = e.Toggle("ghost")
	assert.True(t, device.IsNotFound(err))
}

func TestSetPriority(t *testing.T) {
	e, _ := newTestEngine(dev("A", "Quest3", "a", true, time.Time{}))

	require.NoError(t, e.SetPriority("A", 42), "in-use devices accept priority changes")
	got, _ := e.Device("A")
	require.NotNil(t, got.CustomPriority)
	assert.Equal(t, 42, *got.CustomPriority)

	for _, bad := range []int{0, 101, -1} {
		err := e.SetPriority("A", bad)
		assert.True(t, device.IsValidation(err), "value %d", bad)
	}
	got, _ = e.Device("A")
	assert.Equal(t, 42, *got.CustomPriority)

	assert.True(t, device.IsNotFound(e.SetPriority("ghost", 5)))
	assert.True(t, device.IsNotFound(e.SetPriority("ghost", 500)), "unknown id is reported before the range")
}

func TestSetPriority_ConfiguredBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPriority = 10
	e := New([]device.Device{dev("A", "Quest3", "a", false, time.Time{})}, cfg)

	assert.True(t, device.IsValidation(e.SetPriority("A", 11)))
	assert.NoError(t, e.SetPriority("A", 10))
}

func TestClearPriority(t *testing.T) {
	d := dev("A", "Quest3", "a", false, time.Time{})
	d.CustomPriority = device.IntPtr(9)
	e, _ := newTestEngine(d)

	require.NoError(t, e.ClearPriority("A"))
	got, _ := e.Device("A")
	assert.Nil(t, got.CustomPriority)

	assert.True(t, device.IsNotFound(e.ClearPriority("ghost")))
}

func TestAdd(t *testing.T) {
	e, clock := newTestEngine()
	stamp := clock.Peek()

	d, err := e.Add(device.Fields{ID: " Q3-1 ", Model: "Quest3", AccountID: "a1"})
	require.NoError(t, err)

	assert.Equal(t, "Q3-1", d.ID)
	assert.False(t, d.InUse)
	assert.Equal(t, stamp, d.LastUsed)
	assert.Nil(t, d.CustomPriority)
	assert.Len(t, e.Devices(), 1)
}

func TestAdd_Validation(t *testing.T) {
	e, _ := newTestEngine(dev("Q3-1", "Quest3", "a1", false, time.Time{}))

	tests := []struct {
		name   string
		fields device.Fields
	}{
		{"empty id", device.Fields{Model: "Quest3", AccountID: "a1"}},
		{"blank id", device.Fields{ID: "   ", AccountID: "a1"}},
		{"empty account", device.Fields{ID: "new", Model: "Quest3"}},
		{"duplicate id", device.Fields{ID: "Q3-1", AccountID: "a2"}},
		{"duplicate after trim", device.Fields{ID: " Q3-1", AccountID: "a2"}},
		{"priority out of range", device.Fields{ID: "new", AccountID: "a2", CustomPriority: device.IntPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Add(tt.fields)
			require.Error(t, err)
			assert.True(t, device.IsValidation(err))
			assert.Len(t, e.Devices(), 1)
		})
	}
}

func TestAdd_WithPriority(t *testing.T) {
	e, _ := newTestEngine()
	d, err := e.Add(device.Fields{ID: "x", AccountID: "a", CustomPriority: device.IntPtr(5)})
	require.NoError(t, err)
	require.NotNil(t, d.CustomPriority)
	assert.Equal(t, 5, *d.CustomPriority)
}

func TestEdit(t *testing.T) {
	last := ts(t, "2024-01-01T00:00:00Z")
	orig := dev("Q3-1", "Quest3", "a1", false, last)
	orig.CustomPriority = device.IntPtr(4)
	e, _ := newTestEngine(orig, dev("Q2-1", "Quest2", "a2", false, last))

	require.NoError(t, e.Edit("Q3-1", device.Fields{ID: "Q3-renamed", Model: "Quest2", AccountID: "a9"}))

	_, err := e.Device("Q3-1")
	assert.True(t, device.IsNotFound(err))

	got, err := e.Device("Q3-renamed")
	require.NoError(t, err)
	assert.Equal(t, "Quest2", got.Model)
	assert.Equal(t, "a9", got.AccountID)
	assert.Equal(t, last, got.LastUsed)
	assert.False(t, got.InUse)
	require.NotNil(t, got.CustomPriority)
	assert.Equal(t, 4, *got.CustomPriority)
	assert.Equal(t, "Q3-renamed", e.Devices()[0].ID, "position is kept")
}

func TestEdit_KeepOwnID(t *testing.T) {
	e, _ := newTestEngine(dev("Q3-1", "Quest3", "a1", false, time.Time{}))
	require.NoError(t, e.Edit("Q3-1", device.Fields{ID: "Q3-1", Model: "Quest3", AccountID: "a2"}))
}

func TestEdit_Blocked(t *testing.T) {
	last := ts(t, "2024-01-01T00:00:00Z")
	e, _ := newTestEngine(dev("Q3-1", "Quest3", "a1", true, last))

	err := e.Edit("Q3-1", device.Fields{ID: "Q3-1", Model: "Quest2", AccountID: "a2"})
	require.Error(t, err)
	assert.True(t, device.IsEditBlocked(err))

	got, _ := e.Device("Q3-1")
	assert.Equal(t, dev("Q3-1", "Quest3", "a1", true, last), got)
}

func TestEdit_Validation(t *testing.T) {
	e, _ := newTestEngine(
		dev("A", "Quest3", "a1", false, time.Time{}),
		dev("B", "Quest3", "a2", false, time.Time{}),
	)

	assert.True(t, device.IsValidation(e.Edit("A", device.Fields{ID: "B", AccountID: "a1"})))
	assert.True(t, device.IsValidation(e.Edit("A", device.Fields{ID: "", AccountID: "a1"})))
	assert.True(t, device.IsValidation(e.Edit("A", device.Fields{ID: "A", AccountID: ""})))
	assert.True(t, device.IsNotFound(e.Edit("ghost", device.Fields{ID: "x", AccountID: "y"})))

	got, _ := e.Device("A")
	assert.Equal(t, "a1", got.AccountID)
}

func TestRemove(t *testing.T) {
	e, _ := newTestEngine(
		dev("A", "Quest3", "a", false, time.Time{}),
		dev("B", "Quest3", "b", false, time.Time{}),
		dev("C", "Quest3", "c", false, time.Time{}),
	)

	require.NoError(t, e.Remove([]string{"C", "A", "A"}))
	assert.Equal(t, []string{"B"}, ids(e.Devices()))
}

func TestRemove_AllOrNothing(t *testing.T) {
	e, _ := newTestEngine(
		dev("A", "Quest3", "a", false, time.Time{}),
		dev("B", "Quest3", "b", true, time.Time{}),
		dev("C", "Quest3", "c", true, time.Time{}),
	)

	err := e.Remove([]string{"A", "B", "C"})
	require.Error(t, err)
	assert.True(t, device.IsRemoveBlocked(err))

	var de *device.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"B", "C"}, de.DeviceIDs)
	assert.Equal(t, []string{"A", "B", "C"}, ids(e.Devices()))
}

func TestRemove_UnknownAndEmpty(t *testing.T) {
	e, _ := newTestEngine(dev("A", "Quest3", "a", false, time.Time{}))

	assert.True(t, device.IsNotFound(e.Remove([]string{"A", "ghost"})))
	assert.True(t, device.IsValidation(e.Remove(nil)))
	assert.Len(t, e.Devices(), 1)
}

func TestRemove_Everything(t *testing.T) {
	e, _ := newTestEngine(dev("A", "Quest3", "a", false, time.Time{}))
	require.NoError(t, e.Remove([]string{"A"}))
	assert.NotNil(t, e.Devices())
	assert.Empty(t, e.Devices())
}

// TestInvariant_RandomOperations drives a fixed operation sequence and
// checks the account invariant after every step.
func TestInvariant_RandomOperations(t *testing.T) {
	e, _ := newTestEngine(
		dev("A", "Quest3", "x", false, time.Time{}),
		dev("B", "Quest2", "x", false, time.Time{}),
		dev("C", "Quest2", "y", false, time.Time{}),
		dev("D", "HTC_Vive_XR", "y", false, time.Time{}),
	)

	ops := []func(){
		func() { _ = e.Checkout("A") },
		func() { _ = e.Checkout("B") },
		func() { e.CheckoutBatch([]string{"C", "D", "B"}) },
		func() { _, _ = e.Toggle("A") },
		func() { _, _ = e.Toggle("B") },
		func() { _ = e.Edit("A", device.Fields{ID: "A", AccountID: "x"}) },
		func() { _ = e.Edit("C", device.Fields{ID: "C", AccountID: "x"}) },
		func() { _ = e.Return("D") },
		func() { e.CheckoutBatch([]string{"D", "A", "C"}) },
		func() { _ = e.Remove([]string{"B"}) },
	}
	for _, op := range ops {
		op()
		requireNoSharedAccounts(t, e.Devices())
	}
}

func TestLookup_NormalizesIDs(t *testing.T) {
	// "e" plus a combining acute accent is the decomposed form of "é".
	decomposed := "Que\u0301st-1"
	composed := "Qu\u00e9st-1"

	e, _ := newTestEngine()
	added, err := e.Add(device.Fields{ID: decomposed, Model: "Quest3", AccountID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, composed, added.ID)

	require.NoError(t, e.Checkout(decomposed))
	got, err := e.Device(" " + decomposed + " ")
	require.NoError(t, err)
	assert.True(t, got.InUse)

	inUse, err := e.Toggle(composed)
	require.NoError(t, err)
	assert.False(t, inUse)

	require.NoError(t, e.SetPriority(decomposed, 3))
	require.NoError(t, e.Edit(decomposed, device.Fields{ID: composed, Model: "Quest2", AccountID: "a1"}))
	require.NoError(t, e.Remove([]string{decomposed, composed + " "}))
	assert.Empty(t, e.Devices())
}

func TestEdit_ModelOnlyKeepsLoadedIdentity(t *testing.T) {
	loaded, err := store.Unmarshal("headsets.json", []byte(`[{"id": "Q3-1 ", "model": "Quest3", "account_id": " a1", "in_use": false, "last_used": "2024-01-01T00:00:00Z"}]`))
	require.NoError(t, err)
	e, _ := newTestEngine(loaded...)

	current, err := e.Device("Q3-1 ")
	require.NoError(t, err)

	f := device.Fields{ID: current.ID, Model: "Quest2", AccountID: current.AccountID}
	require.NoError(t, e.Edit("Q3-1 ", f))

	got, err := e.Device("Q3-1")
	require.NoError(t, err)
	assert.Equal(t, "Q3-1", got.ID)
	assert.Equal(t, "a1", got.AccountID)
	assert.Equal(t, "Quest2", got.Model)
	assert.Len(t, e.Devices(), 1)
}
