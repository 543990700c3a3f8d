// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations compose table-level repos from internal/data/repos and own the
// transaction boundaries of invariant-critical writes: settlement, the reputation
// ledger and vote casting.
package aggregates
