package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/tally"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
	"bitbucket.org/mmdatafocus/tallybridge/workflow"
)

// One-shot sync runner: pushes a JSON file of categorized transactions
// into the configured company. Run history lands in MySQL when a DSN is
// configured, otherwise the run is ephemeral.
func main() {
	company := flag.String("company", "", "Target company name")
	bankLedger := flag.String("bank-ledger", "", "Bank ledger the statement belongs to")
	file := flag.String("file", "", "Path to a JSON array of transactions")
	simulated := flag.Bool("simulated", false, "Use the simulated backend instead of TALLY_BASE_URL")
	migrate := flag.Bool("migrate", false, "Run sync-run table migrations and exit")
	runId := flag.Uint("run", 0, "Print a past sync run by id and exit")
	workers := flag.Int("workers", 0, "Concurrent pushes (default TALLY_SYNC_WORKERS)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall deadline")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if os.Getenv("DB_HOST") != "" {
		config.ConnectDatabaseWithRetry()
	}
	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
	}

	if *migrate {
		utils.ErrorPanic(models.MigrateSyncTables())
		fmt.Println("sync tables migrated")
		return
	}

	if *runId > 0 {
		printRun(ctx, *runId)
		return
	}

	if *company == "" || *bankLedger == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: tally-sync -company <name> -bank-ledger <name> -file <transactions.json>")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", *file, err)
		os.Exit(1)
	}
	var transactions []models.ImportedTransaction
	if err := json.Unmarshal(raw, &transactions); err != nil {
		fmt.Fprintf(os.Stderr, "parsing %s: %v\n", *file, err)
		os.Exit(1)
	}

	mode := tally.TransportHTTP
	if *simulated || config.TallySimulated() {
		mode = tally.TransportSimulated
	}
	client := tally.NewClient(tally.Options{Mode: mode})

	lock, err := workflow.AcquireCompanySyncLock(ctx, *company)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acquiring sync lock: %v\n", err)
		os.Exit(1)
	}
	defer workflow.ReleaseCompanySyncLock(ctx, lock)

	opts := workflow.SyncOptions{
		Company:     *company,
		BankLedger:  *bankLedger,
		TriggeredBy: models.SyncTriggeredManual,
		Workers:     *workers,
		Recorder:    models.SyncRunStore{},
	}
	result, err := workflow.SyncBatch(ctx, client, opts, transactions)
	if result != nil {
		fmt.Printf("succeeded=%d failed=%d skipped=%d ledgers_created=%d\n",
			result.Succeeded, result.Failed, result.Skipped, result.LedgersCreated)
		for _, itemErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s [%s] %s\n", itemErr.TransactionId, itemErr.Code, itemErr.Message)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printRun(ctx context.Context, id uint) {
	run, itemErrors, err := models.GetSyncRun(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading run %d: %v\n", id, err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Fprintln(os.Stderr, "no database configured; run history unavailable")
		os.Exit(1)
	}
	fmt.Printf("run %d company=%q status=%s synced=%d failed=%d skipped=%d duration=%dms\n",
		run.ID, run.CompanyName, run.Status, run.RecordsSynced, run.RecordsFailed, run.RecordsSkipped, run.DurationMs)
	for _, itemErr := range itemErrors {
		fmt.Printf("  %s [%s] %s\n", itemErr.TransactionId, itemErr.ErrorCode, itemErr.Message)
	}
}
