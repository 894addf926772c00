// Package roles classifies free-text credit jobs into canonical creative
// roles and assigns each role an importance weight.
//
// Classification is a case-insensitive substring match against an ordered
// keyword table; the first matching rule wins, so "casting director" is a
// casting director rather than a director. Jobs that match no rule are
// classified as Other and carry the minimum weight, which marks the credit
// as non-stylistic.
package roles
