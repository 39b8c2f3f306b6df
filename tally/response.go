package tally

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// Tally reports success and failure inside the response body, never via
// the HTTP status (the gateway answers 200 to everything). Responses are
// frequently not well-formed XML either, so decoding is a tolerant scan:
// explicit error markers first, then success markers, then an ordered
// list of extraction strategies per concept because report node names
// changed across Tally releases.

type responseOutcome int

const (
	outcomeRejected responseOutcome = iota
	outcomeSuccess
	outcomeAmbiguous
)

var (
	lineErrorPattern = regexp.MustCompile(`(?is)<LINEERROR>(.*?)</LINEERROR>`)
	errorsPattern    = regexp.MustCompile(`(?is)<ERRORS>\s*(\d+)\s*</ERRORS>`)
	createdPattern   = regexp.MustCompile(`(?is)<CREATED>\s*(\d+)\s*</CREATED>`)
	alteredPattern   = regexp.MustCompile(`(?is)<ALTERED>\s*(\d+)\s*</ALTERED>`)
	importedPattern  = regexp.MustCompile(`(?is)<IMPORTED>\s*(\d+)\s*</IMPORTED>`)
	lastVchIdPattern = regexp.MustCompile(`(?is)<LASTVCHID>\s*(\d+)\s*</LASTVCHID>`)
)

var entityUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#4;", "",
	"&amp;", "&",
)

func unescape(value string) string {
	return strings.TrimSpace(entityUnescaper.Replace(value))
}

// classifyResponse places a raw response into one of three outcome
// classes, in priority order: explicit error markers, success markers,
// ambiguous. The rejection message (when present) rides along.
func classifyResponse(raw []byte) (responseOutcome, string) {
	body := string(raw)

	if m := lineErrorPattern.FindStringSubmatch(body); m != nil {
		return outcomeRejected, unescape(m[1])
	}
	if m := errorsPattern.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return outcomeRejected, "import reported errors without a line error"
		}
	}

	for _, pattern := range []*regexp.Regexp{createdPattern, alteredPattern, importedPattern} {
		if m := pattern.FindStringSubmatch(body); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return outcomeSuccess, ""
			}
		}
	}
	if lastVchIdPattern.MatchString(body) {
		return outcomeSuccess, ""
	}
	// A well-formed envelope with no error marker is a successful read.
	if strings.Contains(body, "<ENVELOPE") && strings.Contains(body, "</ENVELOPE>") {
		return outcomeSuccess, ""
	}

	return outcomeAmbiguous, ""
}

// importCounters reports whether the response carries CREATED/ALTERED/
// IMPORTED counters and whether any of them is positive. The
// bare-envelope success fallback in classifyResponse exists for reads;
// import callers check the counters instead, so an all-zero import
// result is not mistaken for a creation.
func importCounters(raw []byte) (counted, positive bool) {
	body := string(raw)
	for _, pattern := range []*regexp.Regexp{createdPattern, alteredPattern, importedPattern} {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		counted = true
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			positive = true
		}
	}
	return counted, positive
}

// duplicateMarkers identify "already exists" style rejections. Creation
// retries and concurrent provisioning make these routine; they are
// remapped to success, never surfaced as errors.
var duplicateMarkers = []string{
	"already exists",
	"duplicate",
	"same name",
}

func isDuplicateRejection(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range duplicateMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// extraction is one node-name variant for a concept. Strategies run in
// order; the first that yields anything wins.
type extraction struct {
	name    string
	pattern *regexp.Regexp
}

var ledgerNameExtractions = []extraction{
	{"ledgername-node", regexp.MustCompile(`(?is)<LEDGERNAME>(.*?)</LEDGERNAME>`)},
	{"ledger-name-attr", regexp.MustCompile(`(?is)<LEDGER[^>]*\bNAME="([^"]*)"`)},
	{"dsp-display-name", regexp.MustCompile(`(?is)<DSPDISPNAME>(.*?)</DSPDISPNAME>`)},
	{"account-name", regexp.MustCompile(`(?is)<ACCOUNTNAME>(.*?)</ACCOUNTNAME>`)},
}

var companyNameExtractions = []extraction{
	{"companyname-node", regexp.MustCompile(`(?is)<COMPANYNAME>(.*?)</COMPANYNAME>`)},
	{"company-name-attr", regexp.MustCompile(`(?is)<COMPANY[^>]*\bNAME="([^"]*)"`)},
	{"sv-current-company", regexp.MustCompile(`(?is)<SVCURRENTCOMPANY>(.*?)</SVCURRENTCOMPANY>`)},
}

func runExtractions(body string, strategies []extraction) []string {
	for _, strategy := range strategies {
		matches := strategy.pattern.FindAllStringSubmatch(body, -1)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[string]bool, len(matches))
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			name := unescape(m[1])
			if name == "" {
				continue
			}
			key := utils.NormalizeLedgerName(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, name)
		}
		if len(names) > 0 {
			return names
		}
	}
	return nil
}

func parseCompanyList(raw []byte) []string {
	return runExtractions(string(raw), companyNameExtractions)
}

func parseLedgerList(raw []byte) []models.Ledger {
	names := runExtractions(string(raw), ledgerNameExtractions)
	ledgers := make([]models.Ledger, 0, len(names))
	for _, name := range names {
		ledgers = append(ledgers, models.Ledger{Name: name})
	}
	return ledgers
}

// Voucher parsing for reconciliation reads. Each voucher block is
// scanned independently; node-name variants again tried in order.
var (
	voucherBlockPattern = regexp.MustCompile(`(?is)<VOUCHER\b([^>]*)>(.*?)</VOUCHER>`)
	entryBlockPattern   = regexp.MustCompile(`(?is)<(?:ALLLEDGERENTRIES|LEDGERENTRIES)\.LIST>(.*?)</(?:ALLLEDGERENTRIES|LEDGERENTRIES)\.LIST>`)
	entryLedgerPattern  = regexp.MustCompile(`(?is)<LEDGERNAME>(.*?)</LEDGERNAME>`)
	entryAmountPattern  = regexp.MustCompile(`(?is)<AMOUNT>(.*?)</AMOUNT>`)
	vchTypeAttrPattern  = regexp.MustCompile(`(?i)\bVCHTYPE="([^"]*)"`)
)

var voucherDateExtractions = []extraction{
	{"date-node", regexp.MustCompile(`(?is)<DATE>(.*?)</DATE>`)},
	{"voucher-date-node", regexp.MustCompile(`(?is)<VOUCHERDATE>(.*?)</VOUCHERDATE>`)},
	{"effective-date-node", regexp.MustCompile(`(?is)<EFFECTIVEDATE>(.*?)</EFFECTIVEDATE>`)},
}

var voucherTypeExtractions = []extraction{
	{"vouchertypename-node", regexp.MustCompile(`(?is)<VOUCHERTYPENAME>(.*?)</VOUCHERTYPENAME>`)},
	{"vchtype-node", regexp.MustCompile(`(?is)<VCHTYPE>(.*?)</VCHTYPE>`)},
}

var voucherIdExtractions = []extraction{
	{"masterid-node", regexp.MustCompile(`(?is)<MASTERID>(.*?)</MASTERID>`)},
	{"alterid-node", regexp.MustCompile(`(?is)<ALTERID>(.*?)</ALTERID>`)},
	{"voucherkey-node", regexp.MustCompile(`(?is)<VOUCHERKEY>(.*?)</VOUCHERKEY>`)},
	{"vouchernumber-node", regexp.MustCompile(`(?is)<VOUCHERNUMBER>(.*?)</VOUCHERNUMBER>`)},
}

var voucherNumberExtractions = []extraction{
	{"vouchernumber-node", regexp.MustCompile(`(?is)<VOUCHERNUMBER>(.*?)</VOUCHERNUMBER>`)},
}

func parseVoucherRecords(raw []byte) []models.VoucherRecord {
	body := string(raw)
	blocks := voucherBlockPattern.FindAllStringSubmatch(body, -1)
	records := make([]models.VoucherRecord, 0, len(blocks))

	for i, block := range blocks {
		attrs, inner := block[1], block[2]

		record := models.VoucherRecord{}
		if ids := runExtractions(inner, voucherIdExtractions); len(ids) > 0 {
			record.ID = ids[0]
		} else {
			// Positional fallback keeps every fetched voucher addressable.
			record.ID = "voucher-" + strconv.Itoa(i+1)
		}
		if numbers := runExtractions(inner, voucherNumberExtractions); len(numbers) > 0 {
			record.Number = numbers[0]
		}

		if types := runExtractions(inner, voucherTypeExtractions); len(types) > 0 {
			record.Type = models.VoucherType(types[0])
		} else if m := vchTypeAttrPattern.FindStringSubmatch(attrs); m != nil {
			record.Type = models.VoucherType(unescape(m[1]))
		}

		if dates := runExtractions(inner, voucherDateExtractions); len(dates) > 0 {
			if parsed, ok := utils.ParseFlexibleDate(dates[0]); ok {
				record.Date = parsed
			}
		}

		for _, entryBlock := range entryBlockPattern.FindAllStringSubmatch(inner, -1) {
			entryBody := entryBlock[1]
			ledgerMatch := entryLedgerPattern.FindStringSubmatch(entryBody)
			amountMatch := entryAmountPattern.FindStringSubmatch(entryBody)
			if ledgerMatch == nil || amountMatch == nil {
				continue
			}
			amount, err := decimal.NewFromString(strings.TrimSpace(unescape(amountMatch[1])))
			if err != nil {
				continue
			}
			record.Entries = append(record.Entries, models.NewVoucherEntry(unescape(ledgerMatch[1]), amount))
		}

		records = append(records, record)
	}

	return records
}
