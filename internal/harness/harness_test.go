package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRun_Testdata(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			scenario, err := LoadScenario(f)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_TraceAndSaves(t *testing.T) {
	s := mustParse(t, `
name: trace
description: "Each step is traced; only mutations save"
devices:
  - { id: A, model: Quest3, account_id: a1 }
  - { id: B, model: Quest2, account_id: a1 }
steps:
  - op: suggest
    expect: { suggested: A }
  - op: checkout
    ids: [A, B]
    expect: { succeeded: [A], failed: [B] }
  - op: toggle
    id: B
    expect: { error: ACCOUNT_CONFLICT }
  - op: toggle
    id: A
assertions:
  - type: no_shared_accounts
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 4)
	assert.Equal(t, 1, result.Trace[0].Seq)
	assert.Equal(t, "A", result.Trace[0].Suggested)
	assert.Equal(t, OutcomePartial, result.Trace[1].Outcome)
	assert.Equal(t, []string{"A"}, result.Trace[1].Succeeded)
	assert.Equal(t, []string{"B"}, result.Trace[1].Failed)
	assert.Equal(t, OutcomeRejected, result.Trace[2].Outcome)
	assert.Equal(t, "ACCOUNT_CONFLICT", result.Trace[2].Error)
	assert.Equal(t, OutcomeOK, result.Trace[3].Outcome)

	// checkout and the second toggle mutate; suggest and the rejected toggle do not
	assert.Equal(t, 2, result.Saves)
	require.Len(t, result.Final, 2)
	assert.False(t, result.Final[0].InUse)
}

func TestRun_ExpectMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: "Expectations that do not hold fail the result"
devices:
  - { id: A, model: Quest3, account_id: a1, in_use: true }
steps:
  - op: checkout
    ids: [A]
  - op: suggest
    expect: { suggested: A }
  - op: toggle
    id: A
    expect: { error: NOT_FOUND }
assertions:
  - type: count
    count: 2
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "steps[0] (checkout): expected success, got rejected failed=A")
	assert.Contains(t, joined, `steps[1] (suggest): expected suggestion "A", got ""`)
	assert.Contains(t, joined, `steps[2] (toggle): expected error "NOT_FOUND", got ""`)
	assert.Contains(t, joined, "Expected: 2 devices")
}

func TestRun_DefaultsClockAndLastUsed(t *testing.T) {
	s := mustParse(t, `
name: defaults
description: "Missing last_used takes the clock start; add stamps the clock"
devices:
  - { id: A, model: Quest3, account_id: a1 }
steps:
  - op: add
    fields: { id: B, model: Quest2, account_id: a2 }
assertions:
  - type: device_state
    id: A
    expect: { last_used: "2024-06-01T09:00:00Z" }
  - type: device_state
    id: B
    expect: { last_used: "2024-06-01T09:00:00Z", status: Available, priority: 2 }
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_PriorityOverride(t *testing.T) {
	s := mustParse(t, `
name: priorities
description: "The scenario priority table replaces the defaults"
priorities: { Quest2: 1, Quest3: 5 }
devices:
  - { id: Q3, model: Quest3, account_id: a1, last_used: "2024-01-01T00:00:00Z" }
  - { id: Q2, model: Quest2, account_id: a2, last_used: "2024-02-01T00:00:00Z" }
steps:
  - op: suggest
    expect: { suggested: Q2 }
assertions:
  - type: device_state
    id: Q3
    expect: { priority: 5 }
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_InvalidDevices(t *testing.T) {
	s := mustParse(t, `
name: dupes
description: "Duplicate ids are rejected like a corrupt record file"
devices:
  - { id: A, model: Quest3, account_id: a1 }
  - { id: A, model: Quest3, account_id: a2 }
steps:
  - op: suggest
assertions:
  - type: no_shared_accounts
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}
