// Package engine implements the vats rules engine: availability, suggestion
// ranking and the validated lifecycle operations over a device collection.
//
// ARCHITECTURE:
//
// The Engine owns one in-memory collection and is strictly sequential. Every
// operation reads the whole collection, validates, mutates in place and
// returns a typed *device.Error on rejection. Persisting is the caller's
// job, normally right after every mutation.
//
// INVARIANTS:
//   - Device IDs are unique.
//   - At most one in-use device per account ID.
//   - LastUsed changes only on a successful checkout and never goes back.
//   - In-use devices cannot be edited or removed.
//
// Availability and ranking are pure functions of the collection plus a
// Config; the priority table is never ambient state.
package engine
