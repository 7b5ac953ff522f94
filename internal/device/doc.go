// Package device defines the headset record tracked by vats and the error
// taxonomy shared by the engine, the store and the CLI.
//
// A Device is the only persisted entity. Records are keyed by ID; selections
// coming from a presentation layer are always mapped back to records by ID,
// never by position in a (possibly filtered) listing.
//
// # Errors
//
// Every failure surfaced by the core is a *Error carrying a Code:
//
//   - VALIDATION: bad, missing or duplicate input (user-correctable)
//   - NOT_FOUND: the selection names an unknown device
//   - ALREADY_IN_USE, ACCOUNT_CONFLICT, EDIT_BLOCKED, REMOVE_BLOCKED:
//     state conflicts, the operator must change the selection or wait
//   - STORAGE: the record file could not be read, parsed or written
//
// Use the Is* helpers to classify errors; they see through wrapping.
package device
