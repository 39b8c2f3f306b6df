package workflow

import (
	"context"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// LedgerGateway is the slice of the protocol client the resolver needs.
type LedgerGateway interface {
	ListLedgers(ctx context.Context, company string) ([]models.Ledger, error)
	CreateLedger(ctx context.Context, company string, ledger models.Ledger) (bool, error)
}

// LedgerFailure records one ledger the resolver could not provision.
// Nothing downstream treats this as fatal; vouchers depending on the
// ledger are skipped instead.
type LedgerFailure struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Error string `json:"error"`
}

// LedgerResolution is the outcome of resolving a batch's required
// ledger names. Confirmed keys are normalized (lowercased, trimmed).
type LedgerResolution struct {
	Confirmed map[string]bool
	Created   int
	Failed    []LedgerFailure
}

// Has reports whether a ledger name is usable, case-insensitively.
func (r LedgerResolution) Has(name string) bool {
	return r.Confirmed[utils.NormalizeLedgerName(name)]
}

// ResolveLedgers guarantees every required ledger name exists in the
// company before any voucher referencing it is sent. Existing ledgers
// are fetched once; missing ones get a group inferred from their name
// and are created through the gateway. A duplicate rejection from a
// concurrent provisioner counts as confirmed. The listing failure is
// the only error returned; creation failures land in Failed.
func ResolveLedgers(ctx context.Context, logger *logrus.Logger, gateway LedgerGateway, company string, required []string) (LedgerResolution, error) {
	resolution := LedgerResolution{Confirmed: make(map[string]bool)}

	existing, err := gateway.ListLedgers(ctx, company)
	if err != nil {
		config.LogError(logger, "ledgerResolver.go", "ResolveLedgers", "Listing existing ledgers", company, err)
		return resolution, err
	}
	for _, ledger := range existing {
		resolution.Confirmed[utils.NormalizeLedgerName(ledger.Name)] = true
	}

	seen := make(map[string]bool)
	for _, name := range required {
		key := utils.NormalizeLedgerName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if resolution.Confirmed[key] {
			continue
		}

		group := models.InferLedgerGroup(name)
		created, err := gateway.CreateLedger(ctx, company, models.Ledger{Name: name, Group: group})
		if err != nil {
			config.LogError(logger, "ledgerResolver.go", "ResolveLedgers", "Creating ledger "+name, company, err)
			resolution.Failed = append(resolution.Failed, LedgerFailure{Name: name, Group: group, Error: err.Error()})
			continue
		}
		if created {
			resolution.Created++
		}
		resolution.Confirmed[key] = true
	}

	return resolution, nil
}
