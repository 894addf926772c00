// Package testsupport builds temp-dir configs and seeded catalogs for tests.
package testsupport
