// Package application provides application initialization and dependency wiring.
// It resolves the project root and builds the validator, credential sync and
// comparison, diagnostics, probes, metrics export and the backend launcher
// from one configuration, keeping the main packages focused on CLI parsing.
package application
