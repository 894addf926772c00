// Package ingest loads IMDb-style TSV dumps into a fresh catalog.
//
// Five dumps are read in dependency order: title.basics (works),
// title.episode (parent links), title.ratings, name.basics (persons) and
// title.principals (credits). Each may be plain `.tsv` or gzip-compressed
// `.tsv.gz`. Rows that reference unknown works or persons are dropped. The
// new catalog replaces the old one only after every dump loads cleanly.
package ingest
