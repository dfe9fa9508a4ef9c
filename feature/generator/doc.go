// Package generator builds synthetic network extracts and matching ledger
// rows. Rates control how many transactions are perturbed or left out of
// one side, so every discrepancy path can be exercised end to end.
package generator
