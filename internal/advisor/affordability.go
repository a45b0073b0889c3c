package advisor

import (
	"fmt"

	"github.com/finbalance/advisor-go/internal/domain"
)

// safeLimitShare is the share of the total available balance that is
// considered safe to spend on a single purchase.
const safeLimitShare = 0.4

// affordabilityMonths is the averaging window for monthly income and
// expenses; snapshots for affordability cover six months.
const affordabilityMonths = 6

// Affordability assesses whether the client can afford a planned
// purchase of Amount. Unlike the other analyzers it is parameterized
// and always produces advice.
type Affordability struct {
	Amount float64
}

func (Affordability) Name() string { return "affordability" }

func (a Affordability) Evaluate(snap *domain.Snapshot) (*domain.Advice, error) {
	var totalBalance float64
	for _, b := range snap.Balances {
		if b.Available() {
			totalBalance += b.Amount
		}
	}

	var expenses, incomes float64
	for _, tx := range snap.Transactions {
		switch tx.CreditDebitIndicator {
		case domain.IndicatorDebit:
			expenses += tx.Amount
		case domain.IndicatorCredit:
			incomes += tx.Amount
		}
	}
	avgMonthlyExpenses := expenses / affordabilityMonths
	avgMonthlyIncome := incomes / affordabilityMonths

	safeLimit := safeLimitShare * totalBalance

	var verdict, priority string
	switch {
	case a.Amount <= safeLimit:
		verdict = "The purchase is safe, you can afford it."
		priority = domain.PriorityLow
	case a.Amount <= totalBalance:
		verdict = "The purchase exceeds the safe limit, but you have sufficient funds."
		priority = domain.PriorityMedium
	default:
		verdict = "The purchase could leave you with a deficit."
		priority = domain.PriorityHigh
	}

	if avgMonthlyExpenses > avgMonthlyIncome {
		verdict += " Note that your expenses currently exceed your income, so extra caution is advised."
	}

	return &domain.Advice{
		Title: "Planned purchase assessment",
		Description: fmt.Sprintf(
			"%s Balance: %.0f. Safe limit: %.0f. Purchase amount: %.0f.",
			verdict, totalBalance, safeLimit, a.Amount,
		),
		Category: "affordability",
		Priority: priority,
	}, nil
}
