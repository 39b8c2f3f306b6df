package utils

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tallybridge/appctx"
	"github.com/shopspring/decimal"
)

// TallyDateLayout is the fixed-width numeric date format the Tally wire
// protocol expects everywhere (requests and daybook responses).
const TallyDateLayout = "20060102"

// acceptedDateLayouts are the input representations the import pipeline
// hands us. Tried in order; first parse wins.
var acceptedDateLayouts = []string{
	TallyDateLayout,
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseFlexibleDate parses any accepted date representation.
func ParseFlexibleDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTallyDate normalizes t to the protocol's fixed-width date.
func FormatTallyDate(t time.Time) string {
	return t.Format(TallyDateLayout)
}

// Round2 rounds to the currency's minor unit. Monetary values are rounded
// here, at the point of voucher construction, never earlier.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NormalizeLedgerName is the comparison key for ledger names: existence
// checks are case-insensitive and trimmed.
func NormalizeLedgerName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func SetCompanyNameInContext(ctx context.Context, companyName string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCompanyName, companyName)
}

func GetCompanyNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCompanyName)
}
