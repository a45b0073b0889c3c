package advisor

import (
	"fmt"

	"github.com/finbalance/advisor-go/internal/domain"
)

// savingsSpendingThreshold is the spending ratio below which the
// client has enough margin to put money aside.
const savingsSpendingThreshold = 0.8

// savingsRate is the recommended share of income to save each month.
const savingsRate = 0.2

// AutoSavings recommends a monthly savings amount when the client
// spends less than 80% of their transfer income.
type AutoSavings struct{}

func (AutoSavings) Name() string { return "auto_savings" }

func (AutoSavings) Evaluate(snap *domain.Snapshot) (*domain.Advice, error) {
	var income, expenses float64
	for _, tx := range snap.Transactions {
		switch {
		case tx.IsIncome():
			income += tx.Amount
		case tx.IsExpense():
			expenses += tx.Amount
		}
	}

	// Zero income means zero savings margin, expressed as a maximal
	// spending ratio rather than a division fault.
	spendingRatio := 1.0
	if income > 0 {
		spendingRatio = expenses / income
	}
	if spendingRatio >= savingsSpendingThreshold {
		return nil, nil
	}

	var totalBalance float64
	for _, b := range snap.Balances {
		if b.Available() {
			totalBalance += b.Amount
		}
	}

	monthlySavings := savingsRate * income

	return &domain.Advice{
		Title: "Savings recommendation",
		Description: fmt.Sprintf(
			"You spend about %.0f%% of your income. Setting aside at least 20%% (~%.0f) would build a reserve. Current balance: %.0f.",
			spendingRatio*100, monthlySavings, totalBalance,
		),
		Category: "savings",
		Priority: domain.PriorityHigh,
	}, nil
}
