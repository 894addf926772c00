// Package search drives an affinity search end to end.
//
// A run hydrates the root works, collects every stylistic person credited
// on them, finds every work those people are credited on, resolves
// sub-works to their owning top-level work, hydrates the resulting
// candidates in parallel, and ranks them by affinity with the roots.
//
// Root failures abort the run. A candidate that cannot be hydrated is
// skipped and reported, unless the catalog itself is unavailable or the
// run is cancelled, in which case the whole run fails and no partial
// ranking is returned.
package search
