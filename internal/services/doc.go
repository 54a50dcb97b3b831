// Package services defines shared utilities consumed by the reconciliation
// engine and the external integrations it drives.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, show folders, and phase names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into per-show skips versus scan-fatal errors.
//
// Use these helpers when wiring new integrations so failure handling stays
// uniform across a scan.
package services
