package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VoucherEntry is one leg of a double-entry voucher. Amount follows the
// Tally wire convention: negative amounts are deemed positive (debit),
// positive amounts are credits.
type VoucherEntry struct {
	LedgerName       string          `json:"ledger_name"`
	Amount           decimal.Decimal `json:"amount"`
	IsDeemedPositive bool            `json:"is_deemed_positive"`
}

// NewVoucherEntry derives the deemed-positive flag from the amount sign.
func NewVoucherEntry(ledgerName string, amount decimal.Decimal) VoucherEntry {
	return VoucherEntry{
		LedgerName:       ledgerName,
		Amount:           amount,
		IsDeemedPositive: amount.IsNegative(),
	}
}

// Voucher is a balanced double-entry record. Vouchers are created once
// and never edited or deleted after a successful push.
type Voucher struct {
	Date       time.Time      `json:"date"`
	Type       VoucherType    `json:"type"`
	Narration  string         `json:"narration"`
	InvoiceRef string         `json:"invoice_ref,omitempty"`
	Entries    []VoucherEntry `json:"entries"`
}

// balanceTolerance absorbs float noise from callers that constructed
// amounts from float64 input. Decimal arithmetic inside this package is
// exact, so a real imbalance always exceeds it.
var balanceTolerance = decimal.RequireFromString("0.000001")

// ValidateBalance enforces the double-entry invariant: entry amounts sum
// to zero. An unbalanced voucher is a programming error in the builder,
// not a runtime condition, and must never reach the wire.
func (v *Voucher) ValidateBalance() error {
	if len(v.Entries) < 2 {
		return fmt.Errorf("voucher requires at least two entries, got %d", len(v.Entries))
	}
	sum := decimal.Zero
	for _, entry := range v.Entries {
		sum = sum.Add(entry.Amount)
	}
	if sum.Abs().GreaterThan(balanceTolerance) {
		return fmt.Errorf("voucher entries sum to %s, want 0", sum.String())
	}
	return nil
}

// TotalDebit returns the voucher magnitude (sum of negative legs, as a
// positive number). Used for narration context and run stats.
func (v *Voucher) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range v.Entries {
		if entry.Amount.IsNegative() {
			total = total.Add(entry.Amount.Neg())
		}
	}
	return total
}

// VoucherRecord is a voucher as read back from the external system's
// daybook, reduced to what reconciliation needs.
type VoucherRecord struct {
	ID      string         `json:"id"`
	Number  string         `json:"number"`
	Date    time.Time      `json:"date"`
	Type    VoucherType    `json:"type"`
	Entries []VoucherEntry `json:"entries"`
}
