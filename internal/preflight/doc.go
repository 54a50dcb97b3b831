// Package preflight provides readiness checks for the filesystem paths and
// catalog credentials a scan depends on.
//
// The "check" command runs RunAll and prints each Result. The scan command
// runs the directory checks before taking the scan lock so a misconfigured
// library fails fast instead of after the catalog login.
package preflight
