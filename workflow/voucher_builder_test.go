package workflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/tallybridge/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entrySum(voucher *models.Voucher) decimal.Decimal {
	sum := decimal.Zero
	for _, entry := range voucher.Entries {
		sum = sum.Add(entry.Amount)
	}
	return sum
}

func TestBuildBankVoucher_Receipt(t *testing.T) {
	txn := models.ImportedTransaction{
		ID:         "t1",
		Date:       "2024-04-01",
		Credit:     dec("1500"),
		UserLedger: "Sales Account",
	}
	voucher, warnings, err := BuildBankVoucher(txn, "Bank Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if voucher.Type != models.VoucherTypeReceipt {
		t.Errorf("type = %q", voucher.Type)
	}
	if len(voucher.Entries) != 2 {
		t.Fatalf("entries = %+v", voucher.Entries)
	}
	if voucher.Entries[0].LedgerName != "Sales Account" || !voucher.Entries[0].Amount.Equal(dec("1500")) {
		t.Errorf("party leg = %+v", voucher.Entries[0])
	}
	if voucher.Entries[1].LedgerName != "Bank Account" || !voucher.Entries[1].Amount.Equal(dec("-1500")) {
		t.Errorf("bank leg = %+v", voucher.Entries[1])
	}
	if !entrySum(voucher).IsZero() {
		t.Errorf("entries sum to %s", entrySum(voucher))
	}
}

func TestBuildBankVoucher_PaymentMirrorsSigns(t *testing.T) {
	txn := models.ImportedTransaction{
		ID:                "t2",
		Date:              "2024-04-05",
		Debit:             dec("800.50"),
		AISuggestedLedger: "Office Rent",
	}
	voucher, _, err := BuildBankVoucher(txn, "Bank Account")
	if err != nil {
		t.Fatal(err)
	}
	if voucher.Type != models.VoucherTypePayment {
		t.Errorf("type = %q", voucher.Type)
	}
	if !voucher.Entries[0].Amount.Equal(dec("-800.50")) {
		t.Errorf("party leg = %s", voucher.Entries[0].Amount)
	}
	if !voucher.Entries[1].Amount.Equal(dec("800.50")) {
		t.Errorf("bank leg = %s", voucher.Entries[1].Amount)
	}
	if !entrySum(voucher).IsZero() {
		t.Errorf("entries sum to %s", entrySum(voucher))
	}
}

func TestBuildBankVoucher_PartyLedgerDefaults(t *testing.T) {
	in := models.ImportedTransaction{ID: "t3", Credit: dec("100"), Date: "2024-04-01"}
	voucher, _, err := BuildBankVoucher(in, "Bank Account")
	if err != nil {
		t.Fatal(err)
	}
	if voucher.Entries[0].LedgerName != models.GroupSundryDebtors {
		t.Errorf("money in should default to %q, got %q", models.GroupSundryDebtors, voucher.Entries[0].LedgerName)
	}

	out := models.ImportedTransaction{ID: "t4", Debit: dec("100"), Date: "2024-04-01"}
	voucher, _, err = BuildBankVoucher(out, "Bank Account")
	if err != nil {
		t.Fatal(err)
	}
	if voucher.Entries[0].LedgerName != models.GroupSundryCreditors {
		t.Errorf("money out should default to %q, got %q", models.GroupSundryCreditors, voucher.Entries[0].LedgerName)
	}
}

func TestBuildBankVoucher_BadDateWarnsAndDefaults(t *testing.T) {
	txn := models.ImportedTransaction{ID: "t5", Credit: dec("100"), Date: "not a date", UserLedger: "Sales Account"}
	voucher, warnings, err := BuildBankVoucher(txn, "Bank Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
	if voucher.Date.IsZero() {
		t.Error("date should default to today, not zero")
	}
}

func TestBuildBankVoucher_NoAmount(t *testing.T) {
	txn := models.ImportedTransaction{ID: "t6", Date: "2024-04-01"}
	if _, _, err := BuildBankVoucher(txn, "Bank Account"); err == nil {
		t.Fatal("transaction without amount accepted")
	}
}

func TestBuildInvoiceVoucher_IntraStateGSTSplit(t *testing.T) {
	entry := models.InvoiceEntry{
		Date:       "2024-04-01",
		InvoiceNo:  "INV-1",
		PartyName:  "ABC Traders",
		Amount:     dec("1000"),
		GstRate:    dec("18"),
		IsPurchase: true,
		ItemLedger: "Purchase Account",
	}
	voucher, _, err := BuildInvoiceVoucher(entry)
	if err != nil {
		t.Fatal(err)
	}
	if voucher.Type != models.VoucherTypePurchase {
		t.Errorf("type = %q", voucher.Type)
	}
	if len(voucher.Entries) != 4 {
		t.Fatalf("entries = %+v", voucher.Entries)
	}
	byLedger := map[string]decimal.Decimal{}
	for _, e := range voucher.Entries {
		byLedger[e.LedgerName] = e.Amount
	}
	if !byLedger["ABC Traders"].Equal(dec("1180")) {
		t.Errorf("party leg = %s", byLedger["ABC Traders"])
	}
	if !byLedger["Purchase Account"].Equal(dec("-1000")) {
		t.Errorf("item leg = %s", byLedger["Purchase Account"])
	}
	if !byLedger["CGST"].Equal(dec("-90.00")) {
		t.Errorf("CGST = %s, want -90.00", byLedger["CGST"])
	}
	if !byLedger["SGST"].Equal(dec("-90.00")) {
		t.Errorf("SGST = %s, want -90.00", byLedger["SGST"])
	}
	if !entrySum(voucher).IsZero() {
		t.Errorf("entries sum to %s", entrySum(voucher))
	}
}

func TestBuildInvoiceVoucher_OddCentSplitStaysBalanced(t *testing.T) {
	// 333.33 at 18% -> tax 60.00 (59.9994 rounds); 100.15 at 5% -> 5.01,
	// halves 2.51 + 2.50.
	entry := models.InvoiceEntry{
		Date:       "2024-04-01",
		InvoiceNo:  "INV-2",
		PartyName:  "ABC Traders",
		Amount:     dec("100.15"),
		GstRate:    dec("5"),
		IsPurchase: true,
		ItemLedger: "Purchase Account",
	}
	voucher, _, err := BuildInvoiceVoucher(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !entrySum(voucher).IsZero() {
		t.Errorf("entries sum to %s", entrySum(voucher))
	}
	var cgst, sgst decimal.Decimal
	for _, e := range voucher.Entries {
		switch e.LedgerName {
		case "CGST":
			cgst = e.Amount
		case "SGST":
			sgst = e.Amount
		}
	}
	if !cgst.Add(sgst).Equal(dec("-5.01")) {
		t.Errorf("tax halves %s + %s != -5.01", cgst, sgst)
	}
}

func TestBuildInvoiceVoucher_InterStateSingleIGST(t *testing.T) {
	entry := models.InvoiceEntry{
		Date:         "2024-04-01",
		InvoiceNo:    "INV-3",
		PartyName:    "XYZ Exports",
		Amount:       dec("2000"),
		GstRate:      dec("18"),
		IsInterState: true,
		ItemLedger:   "Sales Account",
	}
	voucher, _, err := BuildInvoiceVoucher(entry)
	if err != nil {
		t.Fatal(err)
	}
	if voucher.Type != models.VoucherTypeSales {
		t.Errorf("type = %q", voucher.Type)
	}
	if len(voucher.Entries) != 3 {
		t.Fatalf("entries = %+v", voucher.Entries)
	}
	var igst decimal.Decimal
	for _, e := range voucher.Entries {
		if e.LedgerName == "IGST" {
			igst = e.Amount
		}
	}
	if !igst.Equal(dec("360.00")) {
		t.Errorf("IGST = %s, want 360.00", igst)
	}
	if !entrySum(voucher).IsZero() {
		t.Errorf("entries sum to %s", entrySum(voucher))
	}
}

func TestBuildInvoiceVoucher_ZeroRateSkipsTaxLegs(t *testing.T) {
	entry := models.InvoiceEntry{
		Date:       "2024-04-01",
		InvoiceNo:  "INV-4",
		PartyName:  "ABC Traders",
		Amount:     dec("500"),
		ItemLedger: "Sales Account",
	}
	voucher, _, err := BuildInvoiceVoucher(entry)
	if err != nil {
		t.Fatal(err)
	}
	if len(voucher.Entries) != 2 {
		t.Errorf("entries = %+v", voucher.Entries)
	}
}
