package workflow

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/tallybridge/models"
)

func day(value string) time.Time {
	t, _ := time.Parse("2006-01-02", value)
	return t
}

func entryFor(ledger, amount string) models.VoucherEntry {
	return models.NewVoucherEntry(ledger, dec(amount))
}

func TestMatchEntries_HighConfidenceWithinWindow(t *testing.T) {
	bank := []models.BankEntry{{ID: "1", Credit: dec("1000"), Date: day("2024-04-01")}}
	external := []models.ExternalEntry{{VoucherID: "v1", Credit: dec("1000"), Date: day("2024-04-03")}}

	matches := MatchEntries(bank, external)
	if len(matches) != 1 {
		t.Fatalf("matches = %+v", matches)
	}
	if matches[0].Confidence != models.MatchConfidenceHigh {
		t.Errorf("confidence = %q, want high", matches[0].Confidence)
	}
	if matches[0].BankEntryID != "1" || matches[0].ExternalVoucherID != "v1" {
		t.Errorf("pair = %+v", matches[0])
	}
}

func TestMatchEntries_DistantDateDropsToMedium(t *testing.T) {
	bank := []models.BankEntry{{ID: "1", Credit: dec("1000"), Date: day("2024-04-01")}}
	external := []models.ExternalEntry{{VoucherID: "v1", Credit: dec("1000"), Date: day("2024-05-01")}}

	matches := MatchEntries(bank, external)
	if len(matches) != 1 {
		t.Fatalf("matches = %+v", matches)
	}
	if matches[0].Confidence != models.MatchConfidenceMedium {
		t.Errorf("confidence = %q, want medium", matches[0].Confidence)
	}
}

func TestMatchEntries_SignAndToleranceRules(t *testing.T) {
	bank := []models.BankEntry{
		{ID: "credit-side", Credit: dec("500"), Date: day("2024-04-01")},
		{ID: "off-by-more", Credit: dec("100"), Date: day("2024-04-01")},
	}
	external := []models.ExternalEntry{
		// Debit-side entry must never pair with a credit-side bank line.
		{VoucherID: "v-debit", Debit: dec("500"), Date: day("2024-04-01")},
		// 100.02 differs by exactly the tolerance; strict less-than.
		{VoucherID: "v-off", Credit: dec("100.02"), Date: day("2024-04-01")},
	}
	matches := MatchEntries(bank, external)
	if len(matches) != 0 {
		t.Errorf("matches = %+v", matches)
	}

	external[1].Credit = dec("100.01")
	matches = MatchEntries(bank, external)
	if len(matches) != 1 || matches[0].BankEntryID != "off-by-more" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestMatchEntries_FirstFitInFetchOrder(t *testing.T) {
	bank := []models.BankEntry{{ID: "1", Credit: dec("1000"), Date: day("2024-04-05")}}
	external := []models.ExternalEntry{
		{VoucherID: "v-far", Credit: dec("1000"), Date: day("2024-04-10")},
		{VoucherID: "v-near", Credit: dec("1000"), Date: day("2024-04-05")},
	}
	matches := MatchEntries(bank, external)
	if len(matches) != 1 {
		t.Fatalf("matches = %+v", matches)
	}
	// No closest-date tie-break: the first within tolerance wins.
	if matches[0].ExternalVoucherID != "v-far" {
		t.Errorf("matched %q, want first in fetch order", matches[0].ExternalVoucherID)
	}
}

func TestMatchEntries_EachEntryConsumedOnce(t *testing.T) {
	bank := []models.BankEntry{
		{ID: "1", Credit: dec("1000"), Date: day("2024-04-01")},
		{ID: "2", Credit: dec("1000"), Date: day("2024-04-02")},
	}
	external := []models.ExternalEntry{{VoucherID: "v1", Credit: dec("1000"), Date: day("2024-04-01")}}
	matches := MatchEntries(bank, external)
	if len(matches) != 1 {
		t.Errorf("single external entry matched twice: %+v", matches)
	}
}

func TestManualMatchAndUnmatch(t *testing.T) {
	matches := ManualMatch(nil, "1", "v9")
	if len(matches) != 1 || matches[0].Confidence != models.MatchConfidenceManual {
		t.Fatalf("matches = %+v", matches)
	}
	matches = ManualMatch(matches, "2", "v10")
	matches = Unmatch(matches, "1")
	if len(matches) != 1 || matches[0].BankEntryID != "2" {
		t.Errorf("matches after unmatch = %+v", matches)
	}
}

func TestSummarize_FullyReconciled(t *testing.T) {
	bank := []models.BankEntry{
		{ID: "1", Credit: dec("3000"), Date: day("2024-04-01")},
		{ID: "2", Credit: dec("2000"), Date: day("2024-04-02")},
	}
	external := []models.ExternalEntry{
		{VoucherID: "v1", Credit: dec("3000"), Date: day("2024-04-01")},
		{VoucherID: "v2", Credit: dec("2000"), Date: day("2024-04-02")},
	}
	matches := MatchEntries(bank, external)
	summary := Summarize(bank, external, matches)

	if !summary.Difference.IsZero() {
		t.Errorf("difference = %s, want 0", summary.Difference)
	}
	if summary.BankUnmatched != 0 || summary.ExternalUnmatched != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.Reconciled {
		t.Error("zero difference should report reconciled")
	}
}

func TestSummarize_DebitsReduceBalance(t *testing.T) {
	bank := []models.BankEntry{
		{ID: "1", Credit: dec("1000"), Date: day("2024-04-01")},
		{ID: "2", Debit: dec("400"), Date: day("2024-04-02")},
	}
	summary := Summarize(bank, nil, nil)
	if !summary.BankBalance.Equal(dec("600")) {
		t.Errorf("bank balance = %s, want 600", summary.BankBalance)
	}
	if summary.Reconciled {
		t.Error("600 difference must not report reconciled")
	}
}

type fakeFetcher struct {
	records []models.VoucherRecord
	err     error
}

func (f *fakeFetcher) FetchVouchers(context.Context, string, time.Time, time.Time) ([]models.VoucherRecord, error) {
	return f.records, f.err
}

func TestReconcile_ReportsObservedLedgersOnEmptyFilter(t *testing.T) {
	fetcher := &fakeFetcher{records: []models.VoucherRecord{{
		ID:   "v1",
		Type: models.VoucherTypeReceipt,
		Date: day("2024-04-01"),
		Entries: []models.VoucherEntry{
			entryFor("Sales Account", "1000"),
			entryFor("Cash", "-1000"),
		},
	}}}

	result, err := Reconcile(context.Background(), testLogger(), fetcher, "Demo Co", "Bank Account",
		day("2024-04-01"), day("2024-04-30"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.ExternalEntries) != 0 {
		t.Errorf("external entries = %+v", result.ExternalEntries)
	}
	if len(result.ObservedLedgers) != 2 {
		t.Fatalf("observed = %v", result.ObservedLedgers)
	}
	if result.ObservedLedgers[0] != "Cash" || result.ObservedLedgers[1] != "Sales Account" {
		t.Errorf("observed not sorted: %v", result.ObservedLedgers)
	}
}

func TestReconcile_EndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{records: []models.VoucherRecord{
		{
			ID:   "v1",
			Type: models.VoucherTypeReceipt,
			Date: day("2024-04-03"),
			Entries: []models.VoucherEntry{
				entryFor("Sales Account", "1000"),
				entryFor("Bank Account", "-1000"),
			},
		},
		{
			ID:   "v2",
			Type: models.VoucherTypePayment,
			Date: day("2024-04-05"),
			Entries: []models.VoucherEntry{
				entryFor("Office Rent", "-400"),
				entryFor("Bank Account", "400"),
			},
		},
	}}
	bank := []models.BankEntry{
		{ID: "1", Credit: dec("1000"), Date: day("2024-04-01")},
		{ID: "2", Debit: dec("400"), Date: day("2024-04-05")},
	}

	result, err := Reconcile(context.Background(), testLogger(), fetcher, "Demo Co", "Bank Account",
		day("2024-04-01"), day("2024-04-30"), bank)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.ExternalEntries) != 2 {
		t.Fatalf("external entries = %+v", result.ExternalEntries)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("matches = %+v", result.Matches)
	}
	if !result.Summary.Reconciled {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.ObservedLedgers != nil {
		t.Errorf("observed ledgers populated on a successful filter: %v", result.ObservedLedgers)
	}
}

func TestExternalEntriesForLedger_Conversion(t *testing.T) {
	records := []models.VoucherRecord{
		{
			ID:   "v1",
			Type: models.VoucherTypeReceipt,
			Date: day("2024-04-01"),
			Entries: []models.VoucherEntry{
				entryFor("Sales Account", "1000"),
				entryFor("bank account", "-1000"),
			},
		},
		{
			ID:   "v2",
			Type: models.VoucherType("Journal"),
			Date: day("2024-04-02"),
			Entries: []models.VoucherEntry{
				entryFor("Bank Account", "250"),
				entryFor("Suspense", "-250"),
			},
		},
	}
	entries := ExternalEntriesForLedger(records, "Bank Account")
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if !entries[0].Credit.Equal(dec("1000")) || !entries[0].Debit.IsZero() {
		t.Errorf("receipt conversion = %+v", entries[0])
	}
	// Unknown voucher type falls back to the leg sign: positive = debit.
	if !entries[1].Debit.Equal(dec("250")) || !entries[1].Credit.IsZero() {
		t.Errorf("sign fallback conversion = %+v", entries[1])
	}
}
