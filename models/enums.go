package models

// VoucherType is the Tally voucher class a transaction maps to.
type VoucherType string

const (
	VoucherTypePayment  VoucherType = "Payment"
	VoucherTypeReceipt  VoucherType = "Receipt"
	VoucherTypeSales    VoucherType = "Sales"
	VoucherTypePurchase VoucherType = "Purchase"
)

// Accounting groups used for ledger placement. Groups are assigned at
// creation and never updated afterwards.
const (
	GroupBankAccounts     = "Bank Accounts"
	GroupCashInHand       = "Cash-in-Hand"
	GroupSundryDebtors    = "Sundry Debtors"
	GroupSundryCreditors  = "Sundry Creditors"
	GroupSalesAccounts    = "Sales Accounts"
	GroupPurchaseAccounts = "Purchase Accounts"
	GroupDirectExpenses   = "Direct Expenses"
	GroupIndirectExpenses = "Indirect Expenses"
	GroupDirectIncomes    = "Direct Incomes"
	GroupIndirectIncomes  = "Indirect Incomes"
	GroupDutiesAndTaxes   = "Duties & Taxes"
	GroupLoansLiability   = "Loans (Liability)"
	GroupCurrentAssets    = "Current Assets"
	GroupCurrentLiability = "Current Liabilities"
	GroupFixedAssets      = "Fixed Assets"
	GroupInvestments      = "Investments"
	GroupCapitalAccount   = "Capital Account"
)

// MatchConfidence grades a reconciliation pair.
type MatchConfidence string

const (
	MatchConfidenceHigh   MatchConfidence = "high"
	MatchConfidenceMedium MatchConfidence = "medium"
	MatchConfidenceManual MatchConfidence = "manual"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual = "manual"
	SyncTriggeredRetry  = "retry"
	SyncTriggeredSystem = "system"
)

// Per-item outcome codes recorded on a sync run.
const (
	SyncItemErrorLedgerUnavailable = "ledger_unavailable"
	SyncItemErrorPushFailed        = "push_failed"
	SyncItemErrorInvalidInput      = "invalid_input"
)
