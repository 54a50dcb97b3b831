// Package main hosts the showaudit CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: scan drives the reconcile engine, shows reads and edits
// the state database, check runs the preflight checks, and config scaffolds
// the TOML file. Rendering (tables, prompts, JSON) lives here; the heavy
// lifting stays in reusable packages under internal/.
package main
