package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalEntry is a voucher-derived line on the books side of a
// reconciliation, reduced to the bank ledger's perspective:
// Receipt -> credit, Payment -> debit.
type ExternalEntry struct {
	VoucherID string          `json:"voucher_id"`
	Date      time.Time       `json:"date"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// ReconciliationMatch pairs one bank entry with one external entry.
// Matches are created by the automatic passes or by explicit user
// action, and destroyed only by explicit unmatch.
type ReconciliationMatch struct {
	BankEntryID       string          `json:"bank_entry_id"`
	ExternalVoucherID string          `json:"external_voucher_id"`
	Confidence        MatchConfidence `json:"confidence"`
}

// ReconciliationSummary is the balance picture after matching.
// Difference within 0.01 counts as reconciled.
type ReconciliationSummary struct {
	BankBalance       decimal.Decimal `json:"bank_balance"`
	ExternalBalance   decimal.Decimal `json:"external_balance"`
	Difference        decimal.Decimal `json:"difference"`
	BankMatched       int             `json:"bank_matched"`
	BankUnmatched     int             `json:"bank_unmatched"`
	ExternalMatched   int             `json:"external_matched"`
	ExternalUnmatched int             `json:"external_unmatched"`
	Reconciled        bool            `json:"reconciled"`
}

// ReconciliationResult is what a reconcile call hands back to its
// caller. ObservedLedgers is populated only when no external entries
// matched the requested bank ledger, as a pick-the-right-ledger hint.
type ReconciliationResult struct {
	Matches         []ReconciliationMatch `json:"matches"`
	Summary         ReconciliationSummary `json:"summary"`
	BankEntries     []BankEntry           `json:"bank_entries"`
	ExternalEntries []ExternalEntry       `json:"external_entries"`
	ObservedLedgers []string              `json:"observed_ledgers,omitempty"`
}
