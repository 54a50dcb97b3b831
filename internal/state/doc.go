// Package state owns the durable results of a scan.
//
// Store keeps one SQLite row per catalog id in the shows table (WAL mode,
// busy retries, schema version check on open). Upsert is atomic per call and
// reports the previous row so callers can tell whether a show's missing
// seasons changed. Report appends rows to the missing-seasons CSV, writing
// the header exactly once.
//
// The schema lives in schema.sql; bump schemaVersion when it changes.
package state
