package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// TallyGateway is everything the orchestrator needs from the protocol
// client.
type TallyGateway interface {
	LedgerGateway
	CreateVoucher(ctx context.Context, company string, voucher models.Voucher) (string, error)
}

// BatchState tracks where a run is in its lifecycle. States advance in
// order; none is skipped.
type BatchState string

const (
	BatchStateIdle             BatchState = "idle"
	BatchStateResolvingLedgers BatchState = "resolving_ledgers"
	BatchStatePushingVouchers  BatchState = "pushing_vouchers"
	BatchStateDone             BatchState = "done"
)

// SyncItemError is one transaction's failure, attributable to its
// originating identity regardless of push completion order.
type SyncItemError struct {
	TransactionId string `json:"transaction_id"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Retryable     bool   `json:"retryable"`
}

// SyncResult is the per-run breakdown handed back to the caller. It is
// ephemeral; durable run history goes through the RunRecorder.
type SyncResult struct {
	State          BatchState      `json:"state"`
	Succeeded      int             `json:"succeeded"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	Errors         []SyncItemError `json:"errors,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
	LedgersCreated int             `json:"ledgers_created"`
	LedgersFailed  []LedgerFailure `json:"ledgers_failed,omitempty"`
	SyncedIDs      []string        `json:"synced_ids,omitempty"`
}

// RunRecorder persists run history. models.SyncRunStore implements it;
// NoopRunRecorder keeps the core usable without a database.
type RunRecorder interface {
	BeginRun(ctx context.Context, companyName, bankLedger, triggeredBy string) (uint, error)
	FinishRun(ctx context.Context, runId uint, status string, stats map[string]int) error
	RecordItemError(ctx context.Context, runId uint, transactionId, errorCode, message string, retryable bool) error
}

type NoopRunRecorder struct{}

func (NoopRunRecorder) BeginRun(context.Context, string, string, string) (uint, error) {
	return 0, nil
}
func (NoopRunRecorder) FinishRun(context.Context, uint, string, map[string]int) error { return nil }
func (NoopRunRecorder) RecordItemError(context.Context, uint, string, string, string, bool) error {
	return nil
}

// SyncOptions configures one batch run.
type SyncOptions struct {
	Company     string
	BankLedger  string
	TriggeredBy string
	Workers     int
	Logger      *logrus.Logger
	Recorder    RunRecorder
}

func (o *SyncOptions) fillDefaults(ctx context.Context) {
	if o.Company == "" {
		if name, ok := utils.GetCompanyNameFromContext(ctx); ok {
			o.Company = name
		}
	}
	if o.TriggeredBy == "" {
		o.TriggeredBy = models.SyncTriggeredManual
	}
	if o.Workers <= 0 {
		o.Workers = config.SyncWorkerCount()
	}
	if o.Logger == nil {
		o.Logger = config.GetLogger()
	}
	if o.Recorder == nil {
		o.Recorder = NoopRunRecorder{}
	}
}

// SyncBatch pushes a batch of categorized transactions as vouchers.
// Ledger resolution runs exactly once, over the union of the bank
// ledger and every transaction's party ledger. Transactions whose
// ledgers could not be resolved are skipped, not attempted. Pushes run
// with per-item isolation on a small bounded worker pool; a push
// failure never aborts its siblings and is never retried here, to keep
// duplicate vouchers out of the books. A non-empty batch with zero
// successes fails as a whole.
func SyncBatch(ctx context.Context, gateway TallyGateway, opts SyncOptions, transactions []models.ImportedTransaction) (*SyncResult, error) {
	opts.fillDefaults(ctx)
	result := &SyncResult{State: BatchStateIdle}
	if len(transactions) == 0 {
		result.State = BatchStateDone
		return result, nil
	}

	runId, err := opts.Recorder.BeginRun(ctx, opts.Company, opts.BankLedger, opts.TriggeredBy)
	if err != nil {
		config.LogError(opts.Logger, "syncWorkflow.go", "SyncBatch", "Recording run start", opts.Company, err)
	}

	result.State = BatchStateResolvingLedgers
	required := []string{opts.BankLedger}
	for _, txn := range transactions {
		required = append(required, txn.PartyLedger())
	}
	resolution, err := ResolveLedgers(ctx, opts.Logger, gateway, opts.Company, required)
	if err != nil {
		finishRun(ctx, opts, runId, models.SyncRunStatusFailed, result)
		return result, err
	}
	result.LedgersCreated = resolution.Created
	result.LedgersFailed = resolution.Failed

	result.State = BatchStatePushingVouchers
	pushAll(ctx, opts, result, transactions, func(ctx context.Context, txn models.ImportedTransaction) itemOutcome {
		if err := utils.ValidateStruct(txn); err != nil {
			return itemOutcome{id: txn.ID, err: &SyncItemError{
				TransactionId: txn.ID,
				Code:          models.SyncItemErrorInvalidInput,
				Message:       err.Error(),
			}}
		}
		unavailable := ""
		switch {
		case !resolution.Has(opts.BankLedger):
			unavailable = opts.BankLedger
		case !resolution.Has(txn.PartyLedger()):
			unavailable = txn.PartyLedger()
		}
		if unavailable != "" {
			return itemOutcome{id: txn.ID, err: &SyncItemError{
				TransactionId: txn.ID,
				Code:          models.SyncItemErrorLedgerUnavailable,
				Message:       fmt.Sprintf("ledger %q not available", unavailable),
			}}
		}
		voucher, warnings, err := BuildBankVoucher(txn, opts.BankLedger)
		if err != nil {
			return itemOutcome{id: txn.ID, warnings: warnings, err: &SyncItemError{
				TransactionId: txn.ID,
				Code:          models.SyncItemErrorInvalidInput,
				Message:       err.Error(),
			}}
		}
		return pushVoucher(ctx, gateway, opts, txn.ID, *voucher, warnings)
	})

	result.State = BatchStateDone
	return concludeBatch(ctx, opts, runId, result, len(transactions))
}

// SyncInvoiceBatch is SyncBatch for sales/purchase invoice lines.
// Required ledgers additionally include each line's item ledger and the
// GST tax ledgers its split will reference.
func SyncInvoiceBatch(ctx context.Context, gateway TallyGateway, opts SyncOptions, entries []models.InvoiceEntry) (*SyncResult, error) {
	opts.fillDefaults(ctx)
	result := &SyncResult{State: BatchStateIdle}
	if len(entries) == 0 {
		result.State = BatchStateDone
		return result, nil
	}

	runId, err := opts.Recorder.BeginRun(ctx, opts.Company, opts.BankLedger, opts.TriggeredBy)
	if err != nil {
		config.LogError(opts.Logger, "syncWorkflow.go", "SyncInvoiceBatch", "Recording run start", opts.Company, err)
	}

	result.State = BatchStateResolvingLedgers
	var required []string
	for _, entry := range entries {
		required = append(required, invoicePartyLedger(entry), entry.ItemLedger)
		required = append(required, invoiceTaxLedgers(entry)...)
	}
	resolution, err := ResolveLedgers(ctx, opts.Logger, gateway, opts.Company, required)
	if err != nil {
		finishRun(ctx, opts, runId, models.SyncRunStatusFailed, result)
		return result, err
	}
	result.LedgersCreated = resolution.Created
	result.LedgersFailed = resolution.Failed

	result.State = BatchStatePushingVouchers
	pushAll(ctx, opts, result, entries, func(ctx context.Context, entry models.InvoiceEntry) itemOutcome {
		if err := utils.ValidateStruct(entry); err != nil {
			return itemOutcome{id: entry.InvoiceNo, err: &SyncItemError{
				TransactionId: entry.InvoiceNo,
				Code:          models.SyncItemErrorInvalidInput,
				Message:       err.Error(),
			}}
		}
		needed := append([]string{invoicePartyLedger(entry), entry.ItemLedger}, invoiceTaxLedgers(entry)...)
		for _, name := range needed {
			if !resolution.Has(name) {
				return itemOutcome{id: entry.InvoiceNo, err: &SyncItemError{
					TransactionId: entry.InvoiceNo,
					Code:          models.SyncItemErrorLedgerUnavailable,
					Message:       fmt.Sprintf("ledger %q not available", name),
				}}
			}
		}
		voucher, warnings, err := BuildInvoiceVoucher(entry)
		if err != nil {
			return itemOutcome{id: entry.InvoiceNo, warnings: warnings, err: &SyncItemError{
				TransactionId: entry.InvoiceNo,
				Code:          models.SyncItemErrorInvalidInput,
				Message:       err.Error(),
			}}
		}
		return pushVoucher(ctx, gateway, opts, entry.InvoiceNo, *voucher, warnings)
	})

	result.State = BatchStateDone
	return concludeBatch(ctx, opts, runId, result, len(entries))
}

// itemOutcome is one transaction's result, keyed by its originating
// identity so completion order never matters.
type itemOutcome struct {
	id       string
	err      *SyncItemError
	warnings []string
}

// pushAll fans a batch out over a bounded worker pool and folds the
// per-item outcomes into result under a single lock.
func pushAll[T any](ctx context.Context, opts SyncOptions, result *SyncResult, items []T, push func(context.Context, T) itemOutcome) {
	jobs := make(chan T)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				outcome := push(ctx, item)
				mu.Lock()
				for _, w := range outcome.warnings {
					result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", outcome.id, w))
				}
				switch {
				case outcome.err == nil:
					result.Succeeded++
					result.SyncedIDs = append(result.SyncedIDs, outcome.id)
				case outcome.err.Code == models.SyncItemErrorLedgerUnavailable:
					result.Skipped++
					result.Errors = append(result.Errors, *outcome.err)
				default:
					result.Failed++
					result.Errors = append(result.Errors, *outcome.err)
				}
				mu.Unlock()
			}
		}()
	}
	for _, item := range items {
		jobs <- item
	}
	close(jobs)
	wg.Wait()
}

// pushVoucher sends one voucher with no automatic retry. Warnings carry
// builder degradations such as a defaulted date.
func pushVoucher(ctx context.Context, gateway TallyGateway, opts SyncOptions, itemId string, voucher models.Voucher, warnings []string) itemOutcome {
	if _, err := gateway.CreateVoucher(ctx, opts.Company, voucher); err != nil {
		config.LogError(opts.Logger, "syncWorkflow.go", "pushVoucher", "Pushing voucher "+itemId, opts.Company, err)
		return itemOutcome{id: itemId, warnings: warnings, err: &SyncItemError{
			TransactionId: itemId,
			Code:          models.SyncItemErrorPushFailed,
			Message:       err.Error(),
			Retryable:     true,
		}}
	}
	return itemOutcome{id: itemId, warnings: warnings}
}

// concludeBatch derives the run status, persists it, and applies the
// terminal-failure rule: zero successes on a non-empty batch fails the
// whole run with the first per-item error aggregated.
func concludeBatch(ctx context.Context, opts SyncOptions, runId uint, result *SyncResult, batchSize int) (*SyncResult, error) {
	status := models.SyncRunStatusSuccess
	switch {
	case result.Succeeded == 0:
		status = models.SyncRunStatusFailed
	case result.Failed > 0 || result.Skipped > 0:
		status = models.SyncRunStatusPartial
	}
	finishRun(ctx, opts, runId, status, result)

	if batchSize > 0 && result.Succeeded == 0 {
		first := "no transactions succeeded"
		if len(result.Errors) > 0 {
			first = result.Errors[0].Message
		}
		if len(result.LedgersFailed) > 0 {
			first = fmt.Sprintf("%s (ledger provisioning failed for %d ledgers)", first, len(result.LedgersFailed))
		}
		return result, errors.New("sync run failed: " + first)
	}
	return result, nil
}

func finishRun(ctx context.Context, opts SyncOptions, runId uint, status string, result *SyncResult) {
	for _, itemErr := range result.Errors {
		if err := opts.Recorder.RecordItemError(ctx, runId, itemErr.TransactionId, itemErr.Code, itemErr.Message, itemErr.Retryable); err != nil {
			config.LogError(opts.Logger, "syncWorkflow.go", "finishRun", "Recording item error", itemErr, err)
		}
	}
	stats := map[string]int{
		"succeeded":       result.Succeeded,
		"failed":          result.Failed,
		"skipped":         result.Skipped,
		"ledgers_created": result.LedgersCreated,
	}
	if err := opts.Recorder.FinishRun(ctx, runId, status, stats); err != nil {
		config.LogError(opts.Logger, "syncWorkflow.go", "finishRun", "Recording run finish", opts.Company, err)
	}
}

// ApplySyncedFlags marks the statement lines whose vouchers were
// confirmed. The import pipeline owns BankEntry records; this is the
// single field the sync core touches.
func ApplySyncedFlags(entries []models.BankEntry, syncedIDs []string) {
	synced := make(map[string]bool, len(syncedIDs))
	for _, id := range syncedIDs {
		synced[id] = true
	}
	for i := range entries {
		if synced[entries[i].ID] {
			entries[i].Synced = true
		}
	}
}
