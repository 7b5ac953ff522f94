// Package store persists the device collection as a flat JSON file.
//
// The file is a JSON array of objects with keys id, model, account_id,
// in_use, last_used and, optionally, custom_priority. There is no schema
// version; array order is kept but carries no meaning beyond tie-breaking.
//
// # Loading
//
// A missing or blank file is an empty collection. Anything else is checked
// against an embedded CUE schema (schema.cue) before decoding, so malformed
// content fails the whole load with a STORAGE error instead of surfacing as
// a half-populated record later. Ids, models and accounts are trimmed and
// NFC-normalized on load, matching what add and edit store.
//
// # Saving
//
// The whole collection is rewritten on every save. Data goes to a temp file
// in the target directory, is fsynced, then renamed over the target, so a
// crash mid-write leaves either the old or the new file intact.
package store
