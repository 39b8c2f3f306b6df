package workflow

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// VoucherFetcher is the read side of the protocol client, as the
// reconciler sees it.
type VoucherFetcher interface {
	FetchVouchers(ctx context.Context, company string, from, to time.Time) ([]models.VoucherRecord, error)
}

// Matching tolerances. Amount differences under 0.02 currency units
// pair; pass 1 additionally requires the dates within 7 days.
var (
	amountTolerance     = decimal.RequireFromString("0.02")
	reconciledTolerance = decimal.RequireFromString("0.01")
	matchDateWindow     = 7 * 24 * time.Hour
)

// Reconcile fetches the company's vouchers for a period, reduces them
// to the selected bank ledger's perspective, and runs the automatic
// matching passes against the bank-side entries. When the fetched
// vouchers never touch the requested ledger the result carries the
// ledger names that were observed instead, so the caller can pick the
// right one.
func Reconcile(ctx context.Context, logger *logrus.Logger, fetcher VoucherFetcher, company, bankLedger string, from, to time.Time, bankEntries []models.BankEntry) (*models.ReconciliationResult, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	records, err := fetcher.FetchVouchers(ctx, company, from, to)
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "Reconcile", "Fetching vouchers", company, err)
		return nil, err
	}

	external := ExternalEntriesForLedger(records, bankLedger)
	result := &models.ReconciliationResult{
		BankEntries:     bankEntries,
		ExternalEntries: external,
	}
	if len(external) == 0 {
		result.ObservedLedgers = observedLedgerNames(records)
		result.Summary = Summarize(bankEntries, external, nil)
		return result, nil
	}

	result.Matches = MatchEntries(bankEntries, external)
	result.Summary = Summarize(bankEntries, external, result.Matches)
	return result, nil
}

// ExternalEntriesForLedger reduces voucher records to bank-perspective
// lines for one ledger: a Receipt credits the bank side, a Payment
// debits it, and any other voucher type falls back to the sign of the
// ledger leg (negative legs are money in).
func ExternalEntriesForLedger(records []models.VoucherRecord, bankLedger string) []models.ExternalEntry {
	key := utils.NormalizeLedgerName(bankLedger)
	var entries []models.ExternalEntry
	for _, record := range records {
		for _, leg := range record.Entries {
			if utils.NormalizeLedgerName(leg.LedgerName) != key {
				continue
			}
			entry := models.ExternalEntry{VoucherID: record.ID, Date: record.Date}
			magnitude := leg.Amount.Abs()
			switch record.Type {
			case models.VoucherTypeReceipt:
				entry.Credit = magnitude
			case models.VoucherTypePayment:
				entry.Debit = magnitude
			default:
				if leg.Amount.IsNegative() {
					entry.Credit = magnitude
				} else {
					entry.Debit = magnitude
				}
			}
			entries = append(entries, entry)
			break
		}
	}
	return entries
}

// MatchEntries runs the two automatic passes: first-fit greedy, each
// entry consumed at most once, external entries scanned in fetch order
// (the first within tolerance wins; there is no closest-date
// tie-break). Pass 1 pairs same-side entries with close amounts and
// dates within the window as high confidence; pass 2 drops the date
// constraint for what remains, as medium.
func MatchEntries(bankEntries []models.BankEntry, external []models.ExternalEntry) []models.ReconciliationMatch {
	var matches []models.ReconciliationMatch
	usedBank := make(map[int]bool)
	usedExternal := make(map[int]bool)

	pass := func(confidence models.MatchConfidence, checkDate bool) {
		for i, bank := range bankEntries {
			if usedBank[i] {
				continue
			}
			for j, ext := range external {
				if usedExternal[j] {
					continue
				}
				if !sameSide(bank, ext) {
					continue
				}
				if amountDiff(bank, ext).GreaterThanOrEqual(amountTolerance) {
					continue
				}
				if checkDate && absDuration(bank.Date.Sub(ext.Date)) > matchDateWindow {
					continue
				}
				usedBank[i] = true
				usedExternal[j] = true
				matches = append(matches, models.ReconciliationMatch{
					BankEntryID:       bank.ID,
					ExternalVoucherID: ext.VoucherID,
					Confidence:        confidence,
				})
				break
			}
		}
	}

	pass(models.MatchConfidenceHigh, true)
	pass(models.MatchConfidenceMedium, false)
	return matches
}

func sameSide(bank models.BankEntry, ext models.ExternalEntry) bool {
	if bank.Credit.IsPositive() {
		return ext.Credit.IsPositive()
	}
	return ext.Debit.IsPositive()
}

func amountDiff(bank models.BankEntry, ext models.ExternalEntry) decimal.Decimal {
	if bank.Credit.IsPositive() {
		return bank.Credit.Sub(ext.Credit).Abs()
	}
	return bank.Debit.Sub(ext.Debit).Abs()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ManualMatch appends a user-asserted pair. No tolerance validation is
// applied; the user is the authority.
func ManualMatch(matches []models.ReconciliationMatch, bankId, externalId string) []models.ReconciliationMatch {
	return append(matches, models.ReconciliationMatch{
		BankEntryID:       bankId,
		ExternalVoucherID: externalId,
		Confidence:        models.MatchConfidenceManual,
	})
}

// Unmatch removes every pair containing the bank entry.
func Unmatch(matches []models.ReconciliationMatch, bankId string) []models.ReconciliationMatch {
	kept := matches[:0]
	for _, match := range matches {
		if match.BankEntryID != bankId {
			kept = append(kept, match)
		}
	}
	return kept
}

// Summarize computes the balance picture: each side's balance is the
// sum of credit minus debit, and a difference within 0.01 counts as
// reconciled.
func Summarize(bankEntries []models.BankEntry, external []models.ExternalEntry, matches []models.ReconciliationMatch) models.ReconciliationSummary {
	matchedBank := make(map[string]bool)
	matchedExternal := make(map[string]bool)
	for _, match := range matches {
		matchedBank[match.BankEntryID] = true
		matchedExternal[match.ExternalVoucherID] = true
	}

	summary := models.ReconciliationSummary{
		BankBalance:     decimal.Zero,
		ExternalBalance: decimal.Zero,
	}
	for _, entry := range bankEntries {
		summary.BankBalance = summary.BankBalance.Add(entry.Credit.Sub(entry.Debit))
		if matchedBank[entry.ID] {
			summary.BankMatched++
		} else {
			summary.BankUnmatched++
		}
	}
	for _, entry := range external {
		summary.ExternalBalance = summary.ExternalBalance.Add(entry.Credit.Sub(entry.Debit))
		if matchedExternal[entry.VoucherID] {
			summary.ExternalMatched++
		} else {
			summary.ExternalUnmatched++
		}
	}
	summary.Difference = summary.BankBalance.Sub(summary.ExternalBalance)
	summary.Reconciled = summary.Difference.Abs().LessThanOrEqual(reconciledTolerance)
	return summary
}

// observedLedgerNames lists the distinct ledgers the fetched vouchers
// actually touch, sorted, as a wrong-ledger diagnostic.
func observedLedgerNames(records []models.VoucherRecord) []string {
	seen := make(map[string]string)
	for _, record := range records {
		for _, leg := range record.Entries {
			key := utils.NormalizeLedgerName(leg.LedgerName)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; !ok {
				seen[key] = leg.LedgerName
			}
		}
	}
	names := make([]string, 0, len(seen))
	for _, name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
