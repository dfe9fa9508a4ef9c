package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"ledger-recon/core/config"
	"ledger-recon/core/database"
	"ledger-recon/core/reconcile"
	"ledger-recon/feature/ledger"

	"go.uber.org/zap"
)

var errFound = errors.New("found")

func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: debug_lookup <feed file> <transaction id>")
	}
	path, id := os.Args[1], os.Args[2]

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	// Connect to DB
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	store := ledger.NewStore(db, zap.NewNop())
	ctx := context.Background()

	// Test 1: Find the record in the feed
	fmt.Println("=== TEST 1: Feed Lookup ===")
	var fileRec *reconcile.TransactionRecord
	stats, err := reconcile.Stream(ctx, path, cfg.Reconcile.Format(), zap.NewNop(), func(r reconcile.TransactionRecord) error {
		if r.TransactionID == id {
			fileRec = &r
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		log.Fatal(err)
	}
	if fileRec == nil {
		fmt.Printf("NOT FOUND in feed after %d records (%d malformed)\n", stats.Emitted, stats.Malformed)
	} else {
		fmt.Printf("FOUND in feed: amount=%s, date=%s, time=%s, response=%s\n",
			fileRec.Amount, fileRec.TransactionDate, fileRec.TransactionTime, fileRec.ResponseCode)
	}

	// Test 2: Find the record in the ledger
	fmt.Println("\n=== TEST 2: Ledger Lookup ===")
	ledgerRec, err := store.FindByID(ctx, id)
	if err != nil {
		log.Fatal(err)
	}
	if ledgerRec == nil {
		fmt.Printf("NOT FOUND in %s\n", ledger.TableName)
	} else {
		fmt.Printf("FOUND in ledger: amount=%s, date=%s, time=%s, response=%s\n",
			ledgerRec.Amount, ledgerRec.TransactionDate, ledgerRec.TransactionTime, ledgerRec.ResponseCode)
	}

	if fileRec == nil || ledgerRec == nil {
		fmt.Println("\nDebug complete. Record is missing on one side.")
		return
	}

	// Test 3: Field comparison
	fmt.Println("\n=== TEST 3: Classification ===")
	ds, err := reconcile.Compare(*fileRec, *ledgerRec)
	if err != nil {
		fmt.Printf("Comparison failed: %v\n", err)
	}
	if len(ds) == 0 && err == nil {
		fmt.Println("Records match")
	}
	for _, d := range ds {
		fmt.Printf("  %s\n", d.Label())
	}

	// Test 4: Fuzzy score
	fmt.Println("\n=== TEST 4: Match Score ===")
	score, err := reconcile.NewMatcher(cfg.Reconcile.Options()).Score(*fileRec, *ledgerRec)
	if err != nil {
		fmt.Printf("Score failed: %v\n", err)
	} else {
		fmt.Printf("Score: %.4f\n", score)
	}

	// Save detailed output
	output := map[string]any{
		"transaction_id": id,
		"file":           fileRec,
		"ledger":         ledgerRec,
		"discrepancies":  ds,
		"score":          score,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	os.WriteFile("debug_lookup.json", data, 0644)

	fmt.Println("\nDebug complete. Check debug_lookup.json for details.")
}
