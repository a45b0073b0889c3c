package advisor

import (
	"fmt"

	"github.com/finbalance/advisor-go/internal/domain"
)

// entertainmentWindowDays bounds the analysis to the trailing three
// months of the snapshot window.
const entertainmentWindowDays = 90

// entertainmentRatioThreshold is the share of monthly income spent on
// entertainment above which the analyzer speaks up.
const entertainmentRatioThreshold = 0.08

// entertainmentKeywords are matched case-insensitively against the
// free-text transaction information field. Keyword matching is a weak
// heuristic; upstream data carries no proper category code yet.
var entertainmentKeywords = []string{"развлечения", "entertainment"}

// EntertainmentControl flags entertainment spending that exceeds ~8%
// of income over the last 90 days of the snapshot window.
type EntertainmentControl struct{}

func (EntertainmentControl) Name() string { return "entertainment_control" }

func (EntertainmentControl) Evaluate(snap *domain.Snapshot) (*domain.Advice, error) {
	if len(snap.Transactions) == 0 {
		return nil, nil
	}

	cutoff := snap.Window.To.AddDate(0, 0, -entertainmentWindowDays)

	var income, entertainment float64
	for _, tx := range snap.Transactions {
		if tx.BookingDateTime.Before(cutoff) {
			continue
		}
		switch {
		case tx.IsIncome():
			income += tx.Amount
		case tx.BankTransactionCode == domain.CodeIssuedDebitTransfer && isEntertainment(tx):
			entertainment += tx.Amount
		}
	}
	if income == 0 {
		return nil, nil
	}

	monthlyExpense := entertainment / 3
	expenseRatio := monthlyExpense / (income / 3)
	if expenseRatio < entertainmentRatioThreshold {
		return nil, nil
	}

	return &domain.Advice{
		Title: "Entertainment spending control",
		Description: fmt.Sprintf(
			"Entertainment spending over the last 3 months averaged %.0f per month, about %.0f%% of income, which is above the recommended 8%%. Consider cutting back to free up savings.",
			monthlyExpense, expenseRatio*100,
		),
		Category: "expenses",
		Priority: domain.PriorityMedium,
	}, nil
}

func isEntertainment(tx domain.Transaction) bool {
	for _, kw := range entertainmentKeywords {
		if tx.InfoContains(kw) {
			return true
		}
	}
	return false
}
