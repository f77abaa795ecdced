// Package console renders operator-facing reports: section headers and
// PASS/FAIL/WARNING/INFO lines, coloured when the writer is a terminal.
package console
