// Package aggregates is the graph consistency engine: precondition checks, relationship
// reconciliation, compensating cleanup and the aggregate writer.
//
// Writes run inside one explicit store transaction when the store provides one and fall
// back to sequential writes with compensation otherwise. Callers never pick the mode.
package aggregates
