package tally

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// Simulator is the in-memory backend behind TransportSimulated. It
// answers the same envelopes the real gateway would, including the
// rejection texts the decoder classifies, so demo installs and tests
// cover the whole codec path. Safe for concurrent use.
type Simulator struct {
	mu            sync.Mutex
	companies     map[string]*simCompany
	nextVoucherId int
}

type simCompany struct {
	name     string
	ledgers  map[string]models.Ledger
	vouchers []simVoucher
}

type simVoucher struct {
	id        int
	vchType   string
	date      time.Time
	narration string
	entries   []ledgerEntryNode
}

func NewSimulator() *Simulator {
	return &Simulator{companies: make(map[string]*simCompany)}
}

// SeedCompany pre-provisions a company with ledgers, for demo data.
func (s *Simulator) SeedCompany(name string, ledgers ...models.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	company := s.ensureCompanyLocked(name)
	for _, ledger := range ledgers {
		company.ledgers[utils.NormalizeLedgerName(ledger.Name)] = ledger
	}
}

func (s *Simulator) ensureCompanyLocked(name string) *simCompany {
	key := utils.NormalizeLedgerName(name)
	company, ok := s.companies[key]
	if !ok {
		company = &simCompany{name: name, ledgers: make(map[string]models.Ledger)}
		s.companies[key] = company
	}
	return company
}

func (s *Simulator) Send(_ context.Context, payload []byte) ([]byte, error) {
	var env requestEnvelope
	if err := xml.Unmarshal(payload, &env); err != nil {
		return lineError("Unable to parse request envelope"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case env.Body.ExportData != nil:
		return s.handleExport(env.Body.ExportData), nil
	case env.Body.ImportData != nil:
		return s.handleImport(env.Body.ImportData), nil
	default:
		return lineError("Request has no body"), nil
	}
}

func (s *Simulator) handleExport(export *exportData) []byte {
	desc := export.RequestDesc
	switch desc.ReportName {
	case reportListOfCompanies:
		var buf bytes.Buffer
		buf.WriteString("<ENVELOPE>")
		for _, company := range s.companies {
			buf.WriteString("<COMPANYNAME>")
			xmlEscape(&buf, company.name)
			buf.WriteString("</COMPANYNAME>")
		}
		buf.WriteString("</ENVELOPE>")
		return buf.Bytes()

	case reportListOfAccounts:
		company, errResp := s.lookupCompany(desc.StaticVariables)
		if errResp != nil {
			return errResp
		}
		var buf bytes.Buffer
		buf.WriteString("<ENVELOPE>")
		for _, ledger := range company.ledgers {
			// Attribute-style nodes on purpose: this is the report
			// variant that exercises the decoder's fallback strategy.
			buf.WriteString(`<LEDGER NAME="`)
			xmlEscape(&buf, ledger.Name)
			buf.WriteString(`"><PARENT>`)
			xmlEscape(&buf, ledger.Group)
			buf.WriteString("</PARENT></LEDGER>")
		}
		buf.WriteString("</ENVELOPE>")
		return buf.Bytes()

	case reportDayBook, reportVouchers:
		company, errResp := s.lookupCompany(desc.StaticVariables)
		if errResp != nil {
			return errResp
		}
		from, to := exportDateRange(desc.StaticVariables)
		var buf bytes.Buffer
		buf.WriteString("<ENVELOPE>")
		for _, voucher := range company.vouchers {
			if !from.IsZero() && voucher.date.Before(from) {
				continue
			}
			if !to.IsZero() && voucher.date.After(to) {
				continue
			}
			writeVoucherBlock(&buf, voucher)
		}
		buf.WriteString("</ENVELOPE>")
		return buf.Bytes()
	}

	return lineError(fmt.Sprintf("Report '%s' is not available", desc.ReportName))
}

func (s *Simulator) handleImport(importReq *importData) []byte {
	if importReq.RequestData == nil {
		return lineError("Import request carries no data")
	}
	created := 0
	var lastVchId int
	for _, msg := range importReq.RequestData.Messages {
		switch {
		case msg.Company != nil:
			key := utils.NormalizeLedgerName(msg.Company.Name)
			if _, exists := s.companies[key]; exists {
				return lineError(fmt.Sprintf("Company '%s' already exists!", msg.Company.Name))
			}
			s.ensureCompanyLocked(msg.Company.Name)
			created++

		case msg.Ledger != nil:
			company, errResp := s.lookupCompany(importReq.RequestDesc.StaticVariables)
			if errResp != nil {
				return errResp
			}
			key := utils.NormalizeLedgerName(msg.Ledger.Name)
			if _, exists := company.ledgers[key]; exists {
				return lineError(fmt.Sprintf("Ledger '%s' already exists!", msg.Ledger.Name))
			}
			company.ledgers[key] = models.Ledger{Name: msg.Ledger.Name, Group: msg.Ledger.Parent}
			created++

		case msg.Voucher != nil:
			company, errResp := s.lookupCompany(importReq.RequestDesc.StaticVariables)
			if errResp != nil {
				return errResp
			}
			for _, entry := range msg.Voucher.Entries {
				if _, exists := company.ledgers[utils.NormalizeLedgerName(entry.LedgerName)]; !exists {
					return lineError(fmt.Sprintf("Ledger '%s' does not exist!", entry.LedgerName))
				}
			}
			date, ok := utils.ParseFlexibleDate(msg.Voucher.Date)
			if !ok {
				return lineError(fmt.Sprintf("Invalid voucher date '%s'", msg.Voucher.Date))
			}
			s.nextVoucherId++
			company.vouchers = append(company.vouchers, simVoucher{
				id:        s.nextVoucherId,
				vchType:   msg.Voucher.VchType,
				date:      date,
				narration: msg.Voucher.Narration,
				entries:   msg.Voucher.Entries,
			})
			lastVchId = s.nextVoucherId
			created++
		}
	}

	var buf bytes.Buffer
	buf.WriteString("<ENVELOPE><BODY><DATA><IMPORTRESULT>")
	buf.WriteString("<CREATED>" + strconv.Itoa(created) + "</CREATED>")
	buf.WriteString("<ALTERED>0</ALTERED><ERRORS>0</ERRORS>")
	if lastVchId > 0 {
		buf.WriteString("<LASTVCHID>" + strconv.Itoa(lastVchId) + "</LASTVCHID>")
	}
	buf.WriteString("</IMPORTRESULT></DATA></BODY></ENVELOPE>")
	return buf.Bytes()
}

func (s *Simulator) lookupCompany(vars *staticVariables) (*simCompany, []byte) {
	name := ""
	if vars != nil {
		name = vars.CurrentCompany
	}
	if name == "" {
		return nil, lineError("No company selected")
	}
	company, ok := s.companies[utils.NormalizeLedgerName(name)]
	if !ok {
		return nil, lineError(fmt.Sprintf("Company '%s' does not exist!", name))
	}
	return company, nil
}

func exportDateRange(vars *staticVariables) (time.Time, time.Time) {
	var from, to time.Time
	if vars == nil {
		return from, to
	}
	if parsed, ok := utils.ParseFlexibleDate(vars.FromDate); ok {
		from = parsed
	}
	if parsed, ok := utils.ParseFlexibleDate(vars.ToDate); ok {
		to = parsed
	}
	return from, to
}

func writeVoucherBlock(buf *bytes.Buffer, voucher simVoucher) {
	buf.WriteString(`<VOUCHER VCHTYPE="`)
	xmlEscape(buf, voucher.vchType)
	buf.WriteString(`" ACTION="Create">`)
	buf.WriteString("<DATE>" + voucher.date.Format(utils.TallyDateLayout) + "</DATE>")
	buf.WriteString("<VOUCHERTYPENAME>")
	xmlEscape(buf, voucher.vchType)
	buf.WriteString("</VOUCHERTYPENAME>")
	buf.WriteString("<VOUCHERNUMBER>" + strconv.Itoa(voucher.id) + "</VOUCHERNUMBER>")
	buf.WriteString("<MASTERID>" + strconv.Itoa(voucher.id) + "</MASTERID>")
	buf.WriteString("<NARRATION>")
	xmlEscape(buf, voucher.narration)
	buf.WriteString("</NARRATION>")
	for _, entry := range voucher.entries {
		buf.WriteString("<ALLLEDGERENTRIES.LIST><LEDGERNAME>")
		xmlEscape(buf, entry.LedgerName)
		buf.WriteString("</LEDGERNAME><ISDEEMEDPOSITIVE>" + entry.IsDeemedPositive + "</ISDEEMEDPOSITIVE>")
		buf.WriteString("<AMOUNT>" + entry.Amount + "</AMOUNT></ALLLEDGERENTRIES.LIST>")
	}
	buf.WriteString("</VOUCHER>")
}

func lineError(message string) []byte {
	var buf bytes.Buffer
	buf.WriteString("<ENVELOPE><BODY><DATA><LINEERROR>")
	xmlEscape(&buf, message)
	buf.WriteString("</LINEERROR></DATA></BODY></ENVELOPE>")
	return buf.Bytes()
}

func xmlEscape(buf *bytes.Buffer, value string) {
	_ = xml.EscapeText(buf, []byte(value))
}
