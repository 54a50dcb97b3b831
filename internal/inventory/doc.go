// Package inventory reads the local library layout: one directory per show,
// one subdirectory per season ("Season 01", "S2", "season3").
package inventory
