// Package main hosts the caterer CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, applies global flag
// overrides (catalog path, colour mode), and hands off to the internal
// packages: search ranks works against a set of roots, build loads the TSV
// dumps into a fresh catalog, status summarizes the catalog, and config
// scaffolds or validates the configuration file.
package main
