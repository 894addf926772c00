// Package report renders search results for the terminal: a run summary,
// then one block per ranked candidate listing the people it shares with the
// roots. Colour is optional and keyed by role.
package report
