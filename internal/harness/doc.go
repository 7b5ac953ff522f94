// Package harness provides conformance testing for the headset checkout rules.
//
// A scenario starts from a set of records, runs lifecycle operations against
// an in-memory store with a deterministic clock, and validates the step
// outcomes and the final collection.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	now: "2024-06-01T09:00:00Z"   # optional clock start
//	step: 1m                      # optional clock increment
//	priorities: { Quest3: 1 }     # optional, replaces the defaults
//	devices:
//	  - { id: Q3-1, model: Quest3, account_id: a1, in_use: false }
//	steps:
//	  - op: checkout
//	    ids: [Q3-1]
//	  - op: toggle
//	    id: Q3-1
//	    expect: { error: ACCOUNT_CONFLICT }
//	assertions:
//	  - type: device_state
//	    id: Q3-1
//	    expect: { in_use: true, status: "In Use" }
//	  - type: no_shared_accounts
//
// # Step Ops
//
// checkout and return take ids and tolerate partial failure; list the item
// outcomes under expect.succeeded and expect.failed. remove takes ids and is
// all-or-nothing. toggle, set_priority (with value), clear_priority and edit
// (with fields) take id. add takes fields. suggest checks expect.suggested or
// expect.none.
//
// A step without expect must succeed. A step with expect must match it
// exactly: an omitted error means no error.
//
// # Assertion Types
//
//   - device_state: subset match on one device (model, account_id, in_use,
//     last_used, custom_priority, status, priority)
//   - count: number of devices
//   - no_shared_accounts: no account backs two in-use devices
//   - suggestion: final suggestion id, or none
//
// # Golden Files
//
// Snapshot renders the trace and final records. RunWithGolden compares it
// against testdata/golden/{name}.golden using goldie.
package harness
