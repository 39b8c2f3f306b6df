package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// Tax ledger names used for GST splits. The resolver provisions these
// under Duties & Taxes on first use.
const (
	ledgerCGST = "CGST"
	ledgerSGST = "SGST"
	ledgerIGST = "IGST"
)

var (
	errNoAmount       = errors.New("transaction has neither debit nor credit amount")
	errInvoiceAmount  = errors.New("invoice amount must be positive")
	errMissingLedgers = errors.New("invoice requires party and item ledgers")
)

// voucherDate normalizes the importer's date representation. Unparseable
// dates fall back to today; the degradation is reported as a warning,
// never hidden.
func voucherDate(raw string, warnings []string) (time.Time, []string) {
	if date, ok := utils.ParseFlexibleDate(raw); ok {
		return date, warnings
	}
	warnings = append(warnings, fmt.Sprintf("date %q not recognized, defaulting to today", raw))
	return time.Now(), warnings
}

// BuildBankVoucher converts one categorized statement line into a
// Payment or Receipt voucher. Money in credits the party and debits the
// bank; money out mirrors. Amounts round to two decimals here, at
// construction, not earlier.
func BuildBankVoucher(txn models.ImportedTransaction, bankLedger string) (*models.Voucher, []string, error) {
	var warnings []string
	date, warnings := voucherDate(txn.Date, warnings)

	var voucherType models.VoucherType
	var amount decimal.Decimal
	switch {
	case txn.Credit.IsPositive():
		voucherType = models.VoucherTypeReceipt
		amount = utils.Round2(txn.Credit)
	case txn.Debit.IsPositive():
		voucherType = models.VoucherTypePayment
		amount = utils.Round2(txn.Debit)
	default:
		return nil, warnings, errNoAmount
	}

	party := txn.PartyLedger()
	var entries []models.VoucherEntry
	if voucherType == models.VoucherTypeReceipt {
		entries = []models.VoucherEntry{
			models.NewVoucherEntry(party, amount),
			models.NewVoucherEntry(bankLedger, amount.Neg()),
		}
	} else {
		entries = []models.VoucherEntry{
			models.NewVoucherEntry(party, amount.Neg()),
			models.NewVoucherEntry(bankLedger, amount),
		}
	}

	voucher := &models.Voucher{
		Date:      date,
		Type:      voucherType,
		Narration: txn.Description,
		Entries:   entries,
	}
	if err := voucher.ValidateBalance(); err != nil {
		return nil, warnings, err
	}
	return voucher, warnings, nil
}

// BuildInvoiceVoucher converts an invoice line into a Sales or Purchase
// voucher with its GST split. Intra-state tax splits into equal CGST and
// SGST halves; SGST takes the rounding remainder so the voucher stays
// balanced on odd cents. Inter-state tax is a single IGST leg.
func BuildInvoiceVoucher(entry models.InvoiceEntry) (*models.Voucher, []string, error) {
	var warnings []string

	if !entry.Amount.IsPositive() {
		return nil, warnings, errInvoiceAmount
	}
	party := invoicePartyLedger(entry)
	if party == "" || entry.ItemLedger == "" {
		return nil, warnings, errMissingLedgers
	}

	date, warnings := voucherDate(entry.Date, warnings)

	base := utils.Round2(entry.Amount)
	tax := decimal.Zero
	if entry.GstRate.IsPositive() {
		tax = utils.Round2(base.Mul(entry.GstRate).Div(decimal.NewFromInt(100)))
	}
	total := base.Add(tax)

	// Sign convention: purchases owe the party (credit) and debit the
	// item and tax ledgers; sales mirror.
	sign := decimal.NewFromInt(1)
	voucherType := models.VoucherTypeSales
	if entry.IsPurchase {
		sign = decimal.NewFromInt(-1)
		voucherType = models.VoucherTypePurchase
	}

	entries := []models.VoucherEntry{
		models.NewVoucherEntry(party, total.Mul(sign).Neg()),
		models.NewVoucherEntry(entry.ItemLedger, base.Mul(sign)),
	}
	if tax.IsPositive() {
		if entry.IsInterState {
			entries = append(entries, models.NewVoucherEntry(ledgerIGST, tax.Mul(sign)))
		} else {
			cgst := utils.Round2(tax.Div(decimal.NewFromInt(2)))
			sgst := tax.Sub(cgst)
			entries = append(entries,
				models.NewVoucherEntry(ledgerCGST, cgst.Mul(sign)),
				models.NewVoucherEntry(ledgerSGST, sgst.Mul(sign)),
			)
		}
	}

	voucher := &models.Voucher{
		Date:       date,
		Type:       voucherType,
		Narration:  fmt.Sprintf("Invoice %s - %s", entry.InvoiceNo, entry.PartyName),
		InvoiceRef: entry.InvoiceNo,
		Entries:    entries,
	}
	if err := voucher.ValidateBalance(); err != nil {
		return nil, warnings, err
	}
	return voucher, warnings, nil
}

// invoicePartyLedger picks the ledger carrying the party side: an
// explicit ledger wins, otherwise a ledger named after the party.
func invoicePartyLedger(entry models.InvoiceEntry) string {
	if entry.PartyLedger != "" {
		return entry.PartyLedger
	}
	return entry.PartyName
}

// invoiceTaxLedgers lists the tax ledgers a line will reference, for
// batch ledger resolution ahead of the push.
func invoiceTaxLedgers(entry models.InvoiceEntry) []string {
	if !entry.GstRate.IsPositive() {
		return nil
	}
	if entry.IsInterState {
		return []string{ledgerIGST}
	}
	return []string{ledgerCGST, ledgerSGST}
}
