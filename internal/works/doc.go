// Package works hydrates a catalog work into an in-memory record of its
// sub-works and the people credited on it.
//
// Hydration runs four store queries against one record: base attributes,
// sub-work identifiers, credits on the work itself, and credits on any of
// its sub-works. A final pass ranks each person's jobs and computes their
// importance score, scaled down for people credited on fewer than half of
// a serialized work's sub-works.
package works
