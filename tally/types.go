package tally

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// Request envelope structures. Tally speaks one XML envelope per
// operation: an export (read) names a report plus static variables, an
// import (write) carries a message list of typed records. encoding/xml
// entity-escapes every untrusted string (ledger names, narrations) on
// marshal, which is what keeps envelope injection off the table.

type requestEnvelope struct {
	XMLName xml.Name      `xml:"ENVELOPE"`
	Header  requestHeader `xml:"HEADER"`
	Body    requestBody   `xml:"BODY"`
}

type requestHeader struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type requestBody struct {
	ExportData *exportData `xml:"EXPORTDATA,omitempty"`
	ImportData *importData `xml:"IMPORTDATA,omitempty"`
}

type exportData struct {
	RequestDesc requestDesc `xml:"REQUESTDESC"`
}

type importData struct {
	RequestDesc requestDesc  `xml:"REQUESTDESC"`
	RequestData *requestData `xml:"REQUESTDATA,omitempty"`
}

type requestDesc struct {
	ReportName      string           `xml:"REPORTNAME"`
	StaticVariables *staticVariables `xml:"STATICVARIABLES,omitempty"`
}

type staticVariables struct {
	ExportFormat   string `xml:"SVEXPORTFORMAT,omitempty"`
	CurrentCompany string `xml:"SVCURRENTCOMPANY,omitempty"`
	FromDate       string `xml:"SVFROMDATE,omitempty"`
	ToDate         string `xml:"SVTODATE,omitempty"`
}

type requestData struct {
	Messages []tallyMessage `xml:"TALLYMESSAGE"`
}

type tallyMessage struct {
	UDF     string          `xml:"xmlns:UDF,attr"`
	Company *companyMessage `xml:"COMPANY,omitempty"`
	Ledger  *ledgerMessage  `xml:"LEDGER,omitempty"`
	Voucher *voucherMessage `xml:"VOUCHER,omitempty"`
}

type companyMessage struct {
	NameAttr string `xml:"NAME,attr"`
	Action   string `xml:"ACTION,attr"`
	Name     string `xml:"NAME"`
}

type ledgerMessage struct {
	NameAttr string `xml:"NAME,attr"`
	Action   string `xml:"ACTION,attr"`
	Name     string `xml:"NAME"`
	Parent   string `xml:"PARENT"`
}

type voucherMessage struct {
	VchType         string            `xml:"VCHTYPE,attr"`
	Action          string            `xml:"ACTION,attr"`
	Date            string            `xml:"DATE"`
	VoucherTypeName string            `xml:"VOUCHERTYPENAME"`
	Narration       string            `xml:"NARRATION"`
	Reference       string            `xml:"REFERENCE,omitempty"`
	Entries         []ledgerEntryNode `xml:"ALLLEDGERENTRIES.LIST"`
}

type ledgerEntryNode struct {
	LedgerName       string `xml:"LEDGERNAME"`
	IsDeemedPositive string `xml:"ISDEEMEDPOSITIVE"`
	Amount           string `xml:"AMOUNT"`
}

// ConnectionStatus is the connectivity probe result handed to callers.
type ConnectionStatus struct {
	Connected bool `json:"connected"`
	Simulated bool `json:"simulated"`
}

// Error taxonomy. Read failures and timeouts wrap ErrUnreachable; an
// explicit rejection surfaces the external system's own message; a
// response the classifier cannot place is ErrAmbiguousResponse and is
// treated by every caller as a failure.
var (
	ErrUnreachable       = errors.New("tally endpoint unreachable")
	ErrAmbiguousResponse = errors.New("ambiguous response from tally")
)

// RejectionError carries the external system's verbatim rejection
// message. Never silently retried for writes.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("tally rejected request: %s", e.Message)
}

// IsRejection reports whether err (or anything it wraps) is an explicit
// protocol rejection as opposed to a connectivity problem.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}
