// Package config loads, normalizes, and validates caterer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CATERER_CATALOG and CATERER_DATASET_DIR. The Config type centralizes the
// catalog location, dataset directory, search tuning, and logging knobs so the
// CLI resolves them in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
