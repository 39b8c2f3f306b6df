package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func entry(ledger, amount string) VoucherEntry {
	return NewVoucherEntry(ledger, decimal.RequireFromString(amount))
}

func TestValidateBalance(t *testing.T) {
	voucher := Voucher{
		Date: time.Now(),
		Type: VoucherTypeReceipt,
		Entries: []VoucherEntry{
			entry("Sales Account", "1500"),
			entry("Bank Account", "-1500"),
		},
	}
	if err := voucher.ValidateBalance(); err != nil {
		t.Fatalf("balanced voucher rejected: %v", err)
	}
}

func TestValidateBalance_Unbalanced(t *testing.T) {
	voucher := Voucher{
		Type: VoucherTypePayment,
		Entries: []VoucherEntry{
			entry("Office Rent", "-500"),
			entry("Bank Account", "499.99"),
		},
	}
	if err := voucher.ValidateBalance(); err == nil {
		t.Fatal("unbalanced voucher passed validation")
	}
}

func TestValidateBalance_SingleEntry(t *testing.T) {
	voucher := Voucher{
		Type:    VoucherTypePayment,
		Entries: []VoucherEntry{entry("Bank Account", "100")},
	}
	if err := voucher.ValidateBalance(); err == nil {
		t.Fatal("single-entry voucher passed validation")
	}
}

func TestNewVoucherEntry_DeemedPositiveTracksSign(t *testing.T) {
	if !entry("Bank Account", "-10").IsDeemedPositive {
		t.Error("negative amount should be deemed positive (debit)")
	}
	if entry("Bank Account", "10").IsDeemedPositive {
		t.Error("positive amount should not be deemed positive")
	}
}

func TestTotalDebit(t *testing.T) {
	voucher := Voucher{
		Entries: []VoucherEntry{
			entry("Party", "1180"),
			entry("Purchases", "-1000"),
			entry("CGST", "-90"),
			entry("SGST", "-90"),
		},
	}
	if got := voucher.TotalDebit(); !got.Equal(decimal.RequireFromString("1180")) {
		t.Errorf("TotalDebit = %s, want 1180", got)
	}
}
