// Package config provides configuration management for ledger-recon.
//
// Values come from environment variables, optionally seeded from a .env
// file, on top of an optional ledger-recon.yaml in the same directory.
// Defaults live next to each section's struct as `default` tags. Invalid
// reconcile values fail LoadConfig with a *reconcile.ConfigurationError.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, shutdown timeout
//   - Database: ledger connection (mysql or sqlite)
//   - Storage: S3/MinIO credentials and the report bucket
//   - Log: logging level and format
//   - Reconcile: batch size, workers, matching tolerances, feed layout
//   - Schedule: recurring reconciliation trigger
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Reconcile.BatchSize) // RECONCILE_BATCH_SIZE
package config
