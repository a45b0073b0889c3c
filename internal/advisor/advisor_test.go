package advisor

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/infra/observability"

	"go.uber.org/zap"
)

// --- Fixtures ---

var testWindowTo = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func testWindow() domain.Window {
	return domain.Window{From: testWindowTo.AddDate(0, -6, 0), To: testWindowTo}
}

// fullSnapshot triggers every analyzer: healthy savings margin,
// entertainment spending above threshold, and available balances.
func fullSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Accounts: []domain.Account{
			{ID: "acc-1", Nickname: "Main", BankCode: "vtb"},
		},
		Balances: []domain.Balance{
			{AccountID: "acc-1", Amount: 10000, Currency: "RUB", Type: domain.BalanceTypeInterimAvailable},
		},
		Transactions: []domain.Transaction{
			{
				AccountID:            "acc-1",
				Amount:               1000,
				CreditDebitIndicator: domain.IndicatorCredit,
				BankTransactionCode:  domain.CodeReceivedCreditTransfer,
				BookingDateTime:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				AccountID:            "acc-1",
				Amount:               100,
				CreditDebitIndicator: domain.IndicatorDebit,
				BankTransactionCode:  domain.CodeIssuedDebitTransfer,
				BookingDateTime:      time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC),
				TransactionInfo:      "Развлечения: кино",
			},
		},
		Window: testWindow(),
	}
}

type failingAnalyzer struct{}

func (failingAnalyzer) Name() string { return "failing" }

func (failingAnalyzer) Evaluate(*domain.Snapshot) (*domain.Advice, error) {
	return nil, errors.New("boom")
}

func newTestEngine() *Engine {
	e := NewEngine(observability.NewMetrics(), zap.NewNop())
	e.now = func() time.Time { return testWindowTo }
	return e
}

// --- Tests ---

func TestEvaluate_AllAnalyzersFire(t *testing.T) {
	e := newTestEngine()

	recs := e.Evaluate(fullSnapshot())
	if len(recs) != 4 {
		t.Fatalf("expected 4 recommendations, got %d", len(recs))
	}

	wantCategories := []string{"payment", "savings", "expenses", "risk"}
	for i, rec := range recs {
		if rec.ID != i+1 {
			t.Errorf("recommendation %d: expected id %d, got %d", i, i+1, rec.ID)
		}
		if rec.Category != wantCategories[i] {
			t.Errorf("recommendation %d: expected category %q, got %q", i, wantCategories[i], rec.Category)
		}
		if rec.CreatedAt != testWindowTo.Format(time.RFC3339) {
			t.Errorf("recommendation %d: unexpected created_at %q", i, rec.CreatedAt)
		}
	}
}

func TestEvaluate_EmptySnapshot(t *testing.T) {
	e := newTestEngine()

	recs := e.Evaluate(&domain.Snapshot{Window: testWindow()})
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(recs))
	}
}

func TestEvaluate_AnalyzerFaultIsolated(t *testing.T) {
	e := newTestEngine()
	e.analyzers = []Analyzer{failingAnalyzer{}, SmartPayment{}, failingAnalyzer{}}

	recs := e.Evaluate(fullSnapshot())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if recs[0].ID != 1 {
		t.Errorf("expected id 1 after skipped fault, got %d", recs[0].ID)
	}
	if recs[0].Category != "payment" {
		t.Errorf("expected category 'payment', got %q", recs[0].Category)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newTestEngine()

	first := e.Evaluate(fullSnapshot())
	second := e.Evaluate(fullSnapshot())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical snapshots produced different results:\n%v\n%v", first, second)
	}
}

func TestEvaluateAffordability_InvalidAmount(t *testing.T) {
	e := newTestEngine()

	for _, amount := range []float64{0, -50} {
		_, err := e.EvaluateAffordability(fullSnapshot(), amount)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("amount %v: expected validation error, got %v", amount, err)
		}
	}
}

func TestEvaluateAffordability_ReturnsSingleRecommendation(t *testing.T) {
	e := newTestEngine()

	rec, err := e.EvaluateAffordability(fullSnapshot(), 3000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("expected id 1, got %d", rec.ID)
	}
	if rec.Category != "affordability" {
		t.Errorf("expected category 'affordability', got %q", rec.Category)
	}
}
