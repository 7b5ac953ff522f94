package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/store"
	"github.com/roach88/vats/internal/testutil"
)

const testOpID = "op-1"

// cliRun is the captured outcome of one invocation.
type cliRun struct {
	stdout string
	logs   string
	err    error
}

func (r cliRun) code() int {
	return GetExitCode(r.err)
}

// response decodes a JSON envelope from stdout.
func (r cliRun) response(t *testing.T) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp), "stdout: %s", r.stdout)
	return resp
}

// data re-decodes the response payload into v.
func (r cliRun) data(t *testing.T, v any) {
	t.Helper()
	resp := r.response(t)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

// runCLI executes the root command against st with a deterministic clock
// and correlation id. A nil st uses the FileStore named by --data.
func runCLI(t *testing.T, st store.Store, args ...string) cliRun {
	t.Helper()

	var stdout, stderr, logs bytes.Buffer
	opts := &RootOptions{
		Clock:     testutil.NewStepClock(time.Time{}, time.Minute),
		IDGen:     testutil.NewFixedIDGenerator(testOpID),
		Store:     st,
		LogWriter: &logs,
	}

	cmd := newRootCommand(opts)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	// Never pick up a vats.yaml from the working directory
	noConfig := filepath.Join(t.TempDir(), "absent.yaml")
	cmd.SetArgs(append([]string{"--config", noConfig}, args...))

	err := cmd.Execute()
	return cliRun{stdout: stdout.String(), logs: logs.String(), err: err}
}

func ts(s string) time.Time {
	t, err := device.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

// fleet is the shared fixture: Q3-1 is in use, so Q3-2 (same account) is
// blocked; Q2-1 has a custom priority.
func fleet() []device.Device {
	return []device.Device{
		{ID: "Q3-1", Model: "Quest3", AccountID: "a1", InUse: true, LastUsed: ts("2024-05-01T08:00:00Z")},
		{ID: "Q3-2", Model: "Quest3", AccountID: "a1", LastUsed: ts("2024-05-02T08:00:00Z")},
		{ID: "Q2-1", Model: "Quest2", AccountID: "a2", LastUsed: ts("2024-05-03T08:00:00Z"), CustomPriority: device.IntPtr(5)},
		{ID: "HTC-1", Model: "HTC_Vive_XR", AccountID: "a3", LastUsed: ts("2024-05-04T08:00:00Z")},
	}
}

func loadAll(t *testing.T, st store.Store) []device.Device {
	t.Helper()
	devices, err := st.Load(context.Background())
	require.NoError(t, err)
	return devices
}

func find(t *testing.T, devices []device.Device, id string) device.Device {
	t.Helper()
	i := device.IndexOf(devices, id)
	require.GreaterOrEqual(t, i, 0, "device %s not found", id)
	return devices[i]
}
