package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// fakeGateway is an in-memory TallyGateway for workflow tests.
type fakeGateway struct {
	mu         sync.Mutex
	existing   []models.Ledger
	created    []models.Ledger
	listErr    error
	createErr  map[string]error // by normalized ledger name
	voucherErr map[string]error // by party ledger of the first entry
	pushed     []models.Voucher
}

func (g *fakeGateway) ListLedgers(_ context.Context, _ string) ([]models.Ledger, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Ledger(nil), g.existing...), nil
}

func (g *fakeGateway) CreateLedger(_ context.Context, _ string, ledger models.Ledger) (bool, error) {
	key := utils.NormalizeLedgerName(ledger.Name)
	if err := g.createErr[key]; err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, have := range g.existing {
		if utils.NormalizeLedgerName(have.Name) == key {
			return false, nil
		}
	}
	g.existing = append(g.existing, ledger)
	g.created = append(g.created, ledger)
	return true, nil
}

func (g *fakeGateway) CreateVoucher(_ context.Context, _ string, voucher models.Voucher) (string, error) {
	if len(voucher.Entries) > 0 {
		if err := g.voucherErr[utils.NormalizeLedgerName(voucher.Entries[0].LedgerName)]; err != nil {
			return "", err
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushed = append(g.pushed, voucher)
	return "1", nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestResolveLedgers_CreatesMissingWithInferredGroup(t *testing.T) {
	gateway := &fakeGateway{existing: []models.Ledger{{Name: "Bank Account"}}}
	resolution, err := ResolveLedgers(context.Background(), testLogger(), gateway, "Demo Co",
		[]string{"Bank Account", "Office Rent", "CGST"})
	if err != nil {
		t.Fatal(err)
	}
	if resolution.Created != 2 {
		t.Errorf("Created = %d, want 2", resolution.Created)
	}
	for _, name := range []string{"Bank Account", "Office Rent", "CGST"} {
		if !resolution.Has(name) {
			t.Errorf("%q not confirmed", name)
		}
	}
	groups := map[string]string{}
	for _, ledger := range gateway.created {
		groups[ledger.Name] = ledger.Group
	}
	if groups["Office Rent"] != models.GroupIndirectExpenses {
		t.Errorf("Office Rent group = %q", groups["Office Rent"])
	}
	if groups["CGST"] != models.GroupDutiesAndTaxes {
		t.Errorf("CGST group = %q", groups["CGST"])
	}
}

func TestResolveLedgers_Idempotent(t *testing.T) {
	gateway := &fakeGateway{}
	required := []string{"Office Rent"}

	first, err := ResolveLedgers(context.Background(), testLogger(), gateway, "Demo Co", required)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ResolveLedgers(context.Background(), testLogger(), gateway, "Demo Co", required)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Has("Office Rent") || !second.Has("Office Rent") {
		t.Error("ledger should be confirmed both times")
	}
	if len(second.Failed) != 0 {
		t.Errorf("second resolve reported failures: %+v", second.Failed)
	}
	if second.Created != 0 {
		t.Errorf("second resolve created %d, want 0", second.Created)
	}
}

func TestResolveLedgers_CaseInsensitiveAndDeduped(t *testing.T) {
	gateway := &fakeGateway{existing: []models.Ledger{{Name: "OFFICE RENT"}}}
	resolution, err := ResolveLedgers(context.Background(), testLogger(), gateway, "Demo Co",
		[]string{"office rent", " Office Rent ", "Office Rent"})
	if err != nil {
		t.Fatal(err)
	}
	if resolution.Created != 0 {
		t.Errorf("Created = %d, want 0", resolution.Created)
	}
	if len(gateway.created) != 0 {
		t.Errorf("gateway created %+v", gateway.created)
	}
}

func TestResolveLedgers_CreateFailureIsNonFatal(t *testing.T) {
	gateway := &fakeGateway{
		createErr: map[string]error{"broken ledger": errors.New("rejected by gateway")},
	}
	resolution, err := ResolveLedgers(context.Background(), testLogger(), gateway, "Demo Co",
		[]string{"Broken Ledger", "Office Rent"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resolution.Failed) != 1 || resolution.Failed[0].Name != "Broken Ledger" {
		t.Errorf("Failed = %+v", resolution.Failed)
	}
	if resolution.Has("Broken Ledger") {
		t.Error("failed ledger must not be confirmed")
	}
	if !resolution.Has("Office Rent") {
		t.Error("later ledger should still resolve")
	}
}

func TestResolveLedgers_ListFailureAborts(t *testing.T) {
	gateway := &fakeGateway{listErr: errors.New("unreachable")}
	if _, err := ResolveLedgers(context.Background(), testLogger(), gateway, "Demo Co", []string{"Cash"}); err == nil {
		t.Fatal("listing failure should propagate")
	}
}
