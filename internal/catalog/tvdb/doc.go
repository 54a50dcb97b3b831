// Package tvdb implements the catalog contract against the TheTVDB v4 API:
// API-key login, series search, and the extended series record that carries
// the season list and lifecycle status.
package tvdb
