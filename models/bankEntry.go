package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankEntry is one imported statement line. The import pipeline owns
// these records; the sync core only flips Synced after a confirmed push.
type BankEntry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Synced      bool            `json:"synced"`
}

// ImportedTransaction is the categorization pipeline's hand-off into the
// voucher builder. Exactly one of Debit/Credit is expected to be
// positive; Date is whatever representation the importer kept.
type ImportedTransaction struct {
	ID                string          `json:"id" binding:"required"`
	Date              string          `json:"date"`
	Description       string          `json:"description"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	UserLedger        string          `json:"user_ledger"`
	AISuggestedLedger string          `json:"ai_suggested_ledger"`
}

// PartyLedger resolves the counterparty ledger for a transaction: user
// choice wins, then the categorizer's suggestion, then a direction
// default (money in -> Sundry Debtors, money out -> Sundry Creditors).
func (t ImportedTransaction) PartyLedger() string {
	if t.UserLedger != "" {
		return t.UserLedger
	}
	if t.AISuggestedLedger != "" {
		return t.AISuggestedLedger
	}
	if t.Credit.IsPositive() {
		return GroupSundryDebtors
	}
	return GroupSundryCreditors
}

// InvoiceEntry is a sales or purchase invoice line handed over by the
// invoicing flow. Amount is the tax-exclusive base.
type InvoiceEntry struct {
	Date         string          `json:"date"`
	InvoiceNo    string          `json:"invoice_no" binding:"required"`
	PartyName    string          `json:"party_name" binding:"required"`
	PartyLedger  string          `json:"party_ledger"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	GstRate      decimal.Decimal `json:"gst_rate"`
	IsInterState bool            `json:"is_inter_state"`
	IsPurchase   bool            `json:"is_purchase"`
	ItemLedger   string          `json:"item_ledger" binding:"required"`
}
