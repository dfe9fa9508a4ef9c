// Package ledger implements the reconciliation ledger gateway on GORM.
//
// The ledger is the authoritative transaction table (visa_base2_transactions).
// Reconciliation only reads it: FindByIDs serves the per-batch bulk lookups
// of the forward pass and FindAll the single scan of the backward pass.
// SaveBatch and Migrate exist for seeding and setup.
package ledger
