// Package database handles ledger database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL (production) or
// SQLite (local runs and tests) connections from the application configuration.
//
// # Schema Inspection
//
// GetTableColumns reads the live column list (SHOW COLUMNS or PRAGMA
// table_info) so the ledger store can verify that the table it reads from
// carries every column of the extract before a run.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "visa_base2_transactions", expected)
package database
