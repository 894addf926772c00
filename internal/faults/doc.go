// Package faults defines the error markers shared by the catalog, hydration,
// search, and ingestion code.
//
// Errors are plain wrapped errors tagged with one sentinel each, so callers
// classify with errors.Is and users still see the offending identifier in the
// message chain.
package faults
