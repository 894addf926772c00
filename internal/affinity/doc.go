// Package affinity scores a candidate work against a set of root works by
// the creative personnel they share.
//
// Every person credited on both a root and the candidate contributes the
// product of their two importance scores. Contributions are purely additive
// across people and across roots. Each shared credit also yields an Overlap
// describing both sides for display.
package affinity
