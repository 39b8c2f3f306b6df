package models

import (
	"strings"
)

// Ledger is a named account in the company's chart of accounts. The
// group decides statement placement and is fixed at creation; nothing in
// this codebase ever updates an existing ledger's group.
type Ledger struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// wellKnownLedgerGroups is the exact-name lookup consulted before any
// keyword heuristic. Keys are normalized (lowercase, trimmed).
var wellKnownLedgerGroups = map[string]string{
	"bank account":          GroupBankAccounts,
	"bank":                  GroupBankAccounts,
	"hdfc bank":             GroupBankAccounts,
	"icici bank":            GroupBankAccounts,
	"sbi bank":              GroupBankAccounts,
	"axis bank":             GroupBankAccounts,
	"kotak bank":            GroupBankAccounts,
	"current account":       GroupBankAccounts,
	"savings account":       GroupBankAccounts,
	"cash":                  GroupCashInHand,
	"petty cash":            GroupCashInHand,
	"cash in hand":          GroupCashInHand,
	"sundry debtors":        GroupSundryDebtors,
	"accounts receivable":   GroupSundryDebtors,
	"debtors":               GroupSundryDebtors,
	"sundry creditors":      GroupSundryCreditors,
	"accounts payable":      GroupSundryCreditors,
	"creditors":             GroupSundryCreditors,
	"sales":                 GroupSalesAccounts,
	"sales account":         GroupSalesAccounts,
	"local sales":           GroupSalesAccounts,
	"export sales":          GroupSalesAccounts,
	"purchase":              GroupPurchaseAccounts,
	"purchases":             GroupPurchaseAccounts,
	"purchase account":      GroupPurchaseAccounts,
	"local purchases":       GroupPurchaseAccounts,
	"rent":                  GroupIndirectExpenses,
	"office rent":           GroupIndirectExpenses,
	"salary":                GroupIndirectExpenses,
	"salaries":              GroupIndirectExpenses,
	"wages":                 GroupDirectExpenses,
	"electricity":           GroupIndirectExpenses,
	"electricity charges":   GroupIndirectExpenses,
	"telephone expenses":    GroupIndirectExpenses,
	"internet charges":      GroupIndirectExpenses,
	"printing & stationery": GroupIndirectExpenses,
	"postage & courier":     GroupIndirectExpenses,
	"travelling expenses":   GroupIndirectExpenses,
	"conveyance":            GroupIndirectExpenses,
	"repairs & maintenance": GroupIndirectExpenses,
	"insurance":             GroupIndirectExpenses,
	"legal & professional":  GroupIndirectExpenses,
	"professional fees":     GroupIndirectExpenses,
	"audit fees":            GroupIndirectExpenses,
	"bank charges":          GroupIndirectExpenses,
	"advertisement":         GroupIndirectExpenses,
	"marketing expenses":    GroupIndirectExpenses,
	"freight & forwarding":  GroupDirectExpenses,
	"carriage inward":       GroupDirectExpenses,
	"carriage outward":      GroupIndirectExpenses,
	"commission received":   GroupIndirectIncomes,
	"interest received":     GroupIndirectIncomes,
	"interest income":       GroupIndirectIncomes,
	"discount received":     GroupIndirectIncomes,
	"rental income":         GroupIndirectIncomes,
	"other income":          GroupIndirectIncomes,
	"interest paid":         GroupIndirectExpenses,
	"discount allowed":      GroupIndirectExpenses,
	"gst":                   GroupDutiesAndTaxes,
	"igst":                  GroupDutiesAndTaxes,
	"cgst":                  GroupDutiesAndTaxes,
	"sgst":                  GroupDutiesAndTaxes,
	"tds":                   GroupDutiesAndTaxes,
	"tds payable":           GroupDutiesAndTaxes,
	"input gst":             GroupDutiesAndTaxes,
	"output gst":            GroupDutiesAndTaxes,
	"bank loan":             GroupLoansLiability,
	"term loan":             GroupLoansLiability,
	"vehicle loan":          GroupLoansLiability,
	"emi":                   GroupLoansLiability,
	"capital":               GroupCapitalAccount,
	"owner's capital":       GroupCapitalAccount,
	"drawings":              GroupCapitalAccount,
	"fixed deposit":         GroupInvestments,
	"mutual funds":          GroupInvestments,
	"furniture & fixtures":  GroupFixedAssets,
	"office equipment":      GroupFixedAssets,
	"computers":             GroupFixedAssets,
	"machinery":             GroupFixedAssets,
}

// keywordGroupRules are fallback heuristics on the normalized name,
// checked in order. First hit wins.
var keywordGroupRules = []struct {
	keywords []string
	group    string
}{
	{[]string{"bank"}, GroupBankAccounts},
	{[]string{"cash"}, GroupCashInHand},
	{[]string{"tax", "gst", "tds", "cess", "duty"}, GroupDutiesAndTaxes},
	{[]string{"loan", "emi", "borrowing"}, GroupLoansLiability},
	{[]string{"sales", "revenue"}, GroupSalesAccounts},
	{[]string{"purchase"}, GroupPurchaseAccounts},
	{[]string{"income", "received", "earning"}, GroupIndirectIncomes},
	{[]string{"expense", "charges", "fees", "fee", "bill", "payment"}, GroupIndirectExpenses},
	{[]string{"debtor", "receivable", "customer"}, GroupSundryDebtors},
	{[]string{"creditor", "payable", "supplier", "vendor"}, GroupSundryCreditors},
	{[]string{"salary", "rent", "wage"}, GroupIndirectExpenses},
	{[]string{"asset", "equipment", "machinery", "furniture"}, GroupFixedAssets},
	{[]string{"capital", "drawing"}, GroupCapitalAccount},
	{[]string{"investment", "deposit"}, GroupInvestments},
}

// InferLedgerGroup maps a ledger name to the accounting group a newly
// provisioned ledger should be created under. Exact lookup first, then
// keyword heuristics, then Indirect Expenses as the catch-all. Pure
// function; kept free of any network or storage concern so the
// inference stays auditable in isolation.
func InferLedgerGroup(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return GroupIndirectExpenses
	}
	if group, ok := wellKnownLedgerGroups[normalized]; ok {
		return group
	}
	for _, rule := range keywordGroupRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.group
			}
		}
	}
	return GroupIndirectExpenses
}
