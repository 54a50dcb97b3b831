// Package reconcile compares the catalog's season list for each show folder
// with the seasons on disk.
//
// Engine.Reconcile handles one folder: normalize the name, search the
// catalog, resolve the match, fetch catalog seasons, read local seasons, and
// derive the missing and extra sets. Engine.Run walks a library root in
// lexicographic order, logging in once, pacing shows with a rate limiter,
// persisting each record, and appending report rows only when a show's
// missing seasons changed so repeated scans leave the report untouched.
//
// Per-show failures are contained: skips (no match, unconfirmed low
// confidence) and failures (catalog errors, unreadable folders, panics) are
// logged and counted. Authentication and persistence failures end the scan.
package reconcile
