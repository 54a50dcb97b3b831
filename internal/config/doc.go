// Package config loads, normalizes, and validates showaudit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TVDB_API_KEY. The Config type centralizes every knob the scanner and CLI
// need, so the library root, state directory, and catalog credentials are
// discovered in one pass and passed explicitly to the components that use
// them.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
