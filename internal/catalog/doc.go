// Package catalog defines the contract between the reconciler and a remote
// show catalog, plus small helpers shared by implementations. The TheTVDB v4
// implementation lives in the tvdb subpackage; tests use in-memory fakes.
package catalog
