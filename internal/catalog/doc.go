// Package catalog persists the work/person/credit catalog in SQLite and
// exposes the read queries the hydration and search code depend on.
//
// The catalog is produced in one shot by a Builder (see ingest) and is
// read-only afterwards: Open attaches with query_only so the search path can
// share one connection pool across hydration workers. A sidecar lock file
// keeps a running build and a running search from overlapping.
//
// Schema changes bump the version in schema.go; users rebuild the catalog to
// adopt the new schema.
package catalog
