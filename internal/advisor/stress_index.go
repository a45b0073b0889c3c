package advisor

import (
	"fmt"

	"github.com/finbalance/advisor-go/internal/domain"
)

// StressIndex scores financial stress on [0,1] by blending the
// spending ratio with balance coverage of monthly income.
// Applicable whenever the snapshot shows any credit income.
type StressIndex struct{}

func (StressIndex) Name() string { return "stress_index" }

func (StressIndex) Evaluate(snap *domain.Snapshot) (*domain.Advice, error) {
	var income, expenses float64
	for _, tx := range snap.Transactions {
		switch tx.CreditDebitIndicator {
		case domain.IndicatorCredit:
			income += tx.Amount
		case domain.IndicatorDebit:
			expenses += tx.Amount
		}
	}
	if income == 0 {
		// Both ratios are undefined without income; not applicable.
		return nil, nil
	}

	var balance float64
	for _, b := range snap.Balances {
		if b.Available() {
			balance += b.Amount
		}
	}

	ratioSpending := expenses / income
	ratioBalance := balance / income

	stress := 0.6*ratioSpending + 0.4*(1-ratioBalance)
	stress = clamp01(stress)

	var level, priority string
	switch {
	case stress < 0.4:
		level, priority = "low", domain.PriorityLow
	case stress < 0.7:
		level, priority = "medium", domain.PriorityMedium
	default:
		level, priority = "high", domain.PriorityHigh
	}

	return &domain.Advice{
		Title: fmt.Sprintf("Financial stress: %s", level),
		Description: fmt.Sprintf(
			"Your stress index is %.0f%%. Spending is %.0f%% of income and your balance covers %.0f%% of monthly income. Reducing expenses and growing a safety cushion would lower the risk.",
			stress*100, ratioSpending*100, ratioBalance*100,
		),
		Category: "risk",
		Priority: priority,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
