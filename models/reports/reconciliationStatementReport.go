package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/tallybridge/models"
)

const reconciliationSheet = "Reconciliation"

// BuildReconciliationStatement renders a bank reconciliation statement
// workbook: the balance summary on top, then the unmatched lines on
// each side. Matched lines are summarized by count only; the statement
// exists to show what still differs.
func BuildReconciliationStatement(company, bankLedger string, asOf time.Time, result *models.ReconciliationResult) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(reconciliationSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(reconciliationSheet, "A1", "Bank Reconciliation Statement")
	f.SetCellValue(reconciliationSheet, "A2", "Company")
	f.SetCellValue(reconciliationSheet, "B2", company)
	f.SetCellValue(reconciliationSheet, "A3", "Bank Ledger")
	f.SetCellValue(reconciliationSheet, "B3", bankLedger)
	f.SetCellValue(reconciliationSheet, "A4", "As Of")
	f.SetCellValue(reconciliationSheet, "B4", asOf.Format("2006-01-02"))

	summary := result.Summary
	f.SetCellValue(reconciliationSheet, "A6", "Balance as per bank statement")
	f.SetCellValue(reconciliationSheet, "B6", summary.BankBalance.InexactFloat64())
	f.SetCellValue(reconciliationSheet, "A7", "Balance as per books")
	f.SetCellValue(reconciliationSheet, "B7", summary.ExternalBalance.InexactFloat64())
	f.SetCellValue(reconciliationSheet, "A8", "Difference")
	f.SetCellValue(reconciliationSheet, "B8", summary.Difference.InexactFloat64())
	f.SetCellValue(reconciliationSheet, "A9", "Matched Entries")
	f.SetCellValue(reconciliationSheet, "B9", summary.BankMatched)
	f.SetCellValue(reconciliationSheet, "A10", "Reconciled")
	f.SetCellValue(reconciliationSheet, "B10", summary.Reconciled)

	matchedBank := make(map[string]bool)
	matchedExternal := make(map[string]bool)
	for _, match := range result.Matches {
		matchedBank[match.BankEntryID] = true
		matchedExternal[match.ExternalVoucherID] = true
	}

	row := 12
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("A%d", row), "Unmatched Bank Entries")
	row++
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("A%d", row), "Date")
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("B%d", row), "Description")
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("C%d", row), "Debit")
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("D%d", row), "Credit")
	row++
	for _, entry := range result.BankEntries {
		if matchedBank[entry.ID] {
			continue
		}
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("A%d", row), entry.Date.Format("2006-01-02"))
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("B%d", row), entry.Description)
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("C%d", row), entry.Debit.InexactFloat64())
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("D%d", row), entry.Credit.InexactFloat64())
		row++
	}

	row++
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("A%d", row), "Unmatched Book Entries")
	row++
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("A%d", row), "Voucher")
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("B%d", row), "Date")
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("C%d", row), "Debit")
	f.SetCellValue(reconciliationSheet, fmt.Sprintf("D%d", row), "Credit")
	row++
	for _, entry := range result.ExternalEntries {
		if matchedExternal[entry.VoucherID] {
			continue
		}
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("A%d", row), entry.VoucherID)
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("B%d", row), entry.Date.Format("2006-01-02"))
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("C%d", row), entry.Debit.InexactFloat64())
		f.SetCellValue(reconciliationSheet, fmt.Sprintf("D%d", row), entry.Credit.InexactFloat64())
		row++
	}

	return f, nil
}

// WriteReconciliationStatement streams the workbook as an attachment.
func WriteReconciliationStatement(w http.ResponseWriter, company, bankLedger string, asOf time.Time, result *models.ReconciliationResult) {
	f, err := BuildReconciliationStatement(company, bankLedger, asOf, result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=reconciliation.xlsx")
	if err := f.Write(w); err != nil {
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
	}
}
