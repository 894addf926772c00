// Package logging assembles structured slog loggers and attribute helpers.
//
// It owns the console and JSON handlers, level parsing, and output routing
// (stderr plus an optional log file; stdout is left to reports). Context
// helpers tag every line of one invocation with its run identifier and the
// root works being searched.
package logging
