package tally

import (
	"encoding/xml"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

const (
	requestTypeExport = "Export Data"
	requestTypeImport = "Import Data"

	reportListOfCompanies = "List of Companies"
	reportListOfAccounts  = "List of Accounts"
	reportAllMasters      = "All Masters"
	reportVouchers        = "Vouchers"
	reportDayBook         = "Day Book"

	exportFormatXML = "$$SysName:XML"
	actionCreate    = "Create"
	udfNamespace    = "TallyUDF"
)

func marshalEnvelope(env requestEnvelope) ([]byte, error) {
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func buildListCompaniesRequest() ([]byte, error) {
	return marshalEnvelope(requestEnvelope{
		Header: requestHeader{TallyRequest: requestTypeExport},
		Body: requestBody{
			ExportData: &exportData{
				RequestDesc: requestDesc{
					ReportName:      reportListOfCompanies,
					StaticVariables: &staticVariables{ExportFormat: exportFormatXML},
				},
			},
		},
	})
}

func buildListLedgersRequest(company string) ([]byte, error) {
	if strings.TrimSpace(company) == "" {
		return nil, errors.New("company name is required")
	}
	return marshalEnvelope(requestEnvelope{
		Header: requestHeader{TallyRequest: requestTypeExport},
		Body: requestBody{
			ExportData: &exportData{
				RequestDesc: requestDesc{
					ReportName: reportListOfAccounts,
					StaticVariables: &staticVariables{
						ExportFormat:   exportFormatXML,
						CurrentCompany: company,
					},
				},
			},
		},
	})
}

func buildCreateCompanyRequest(name string) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("company name is required")
	}
	return marshalEnvelope(requestEnvelope{
		Header: requestHeader{TallyRequest: requestTypeImport},
		Body: requestBody{
			ImportData: &importData{
				RequestDesc: requestDesc{ReportName: reportAllMasters},
				RequestData: &requestData{
					Messages: []tallyMessage{{
						UDF: udfNamespace,
						Company: &companyMessage{
							NameAttr: name,
							Action:   actionCreate,
							Name:     name,
						},
					}},
				},
			},
		},
	})
}

func buildCreateLedgerRequest(company string, ledger models.Ledger) ([]byte, error) {
	if strings.TrimSpace(company) == "" {
		return nil, errors.New("company name is required")
	}
	if strings.TrimSpace(ledger.Name) == "" {
		return nil, errors.New("ledger name is required")
	}
	group := ledger.Group
	if group == "" {
		group = models.InferLedgerGroup(ledger.Name)
	}
	return marshalEnvelope(requestEnvelope{
		Header: requestHeader{TallyRequest: requestTypeImport},
		Body: requestBody{
			ImportData: &importData{
				RequestDesc: requestDesc{
					ReportName:      reportAllMasters,
					StaticVariables: &staticVariables{CurrentCompany: company},
				},
				RequestData: &requestData{
					Messages: []tallyMessage{{
						UDF: udfNamespace,
						Ledger: &ledgerMessage{
							NameAttr: ledger.Name,
							Action:   actionCreate,
							Name:     ledger.Name,
							Parent:   group,
						},
					}},
				},
			},
		},
	})
}

func buildCreateVoucherRequest(company string, voucher models.Voucher) ([]byte, error) {
	if strings.TrimSpace(company) == "" {
		return nil, errors.New("company name is required")
	}
	entries := make([]ledgerEntryNode, 0, len(voucher.Entries))
	for _, entry := range voucher.Entries {
		deemed := "No"
		if entry.IsDeemedPositive {
			deemed = "Yes"
		}
		entries = append(entries, ledgerEntryNode{
			LedgerName:       entry.LedgerName,
			IsDeemedPositive: deemed,
			Amount:           entry.Amount.StringFixed(2),
		})
	}
	return marshalEnvelope(requestEnvelope{
		Header: requestHeader{TallyRequest: requestTypeImport},
		Body: requestBody{
			ImportData: &importData{
				RequestDesc: requestDesc{
					ReportName:      reportVouchers,
					StaticVariables: &staticVariables{CurrentCompany: company},
				},
				RequestData: &requestData{
					Messages: []tallyMessage{{
						UDF: udfNamespace,
						Voucher: &voucherMessage{
							VchType:         string(voucher.Type),
							Action:          actionCreate,
							Date:            utils.FormatTallyDate(voucher.Date),
							VoucherTypeName: string(voucher.Type),
							Narration:       voucher.Narration,
							Reference:       voucher.InvoiceRef,
							Entries:         entries,
						},
					}},
				},
			},
		},
	})
}

func buildDayBookRequest(company string, from, to time.Time) ([]byte, error) {
	if strings.TrimSpace(company) == "" {
		return nil, errors.New("company name is required")
	}
	return marshalEnvelope(requestEnvelope{
		Header: requestHeader{TallyRequest: requestTypeExport},
		Body: requestBody{
			ExportData: &exportData{
				RequestDesc: requestDesc{
					ReportName: reportDayBook,
					StaticVariables: &staticVariables{
						ExportFormat:   exportFormatXML,
						CurrentCompany: company,
						FromDate:       utils.FormatTallyDate(from),
						ToDate:         utils.FormatTallyDate(to),
					},
				},
			},
		},
	})
}
