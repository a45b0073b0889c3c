package advisor

import (
	"fmt"

	"github.com/finbalance/advisor-go/internal/domain"
)

// SmartPayment recommends which account to pay from: the one holding
// the highest available balance across all of the client's banks.
type SmartPayment struct{}

func (SmartPayment) Name() string { return "smart_payment" }

func (SmartPayment) Evaluate(snap *domain.Snapshot) (*domain.Advice, error) {
	if len(snap.Accounts) == 0 || len(snap.Balances) == 0 {
		return nil, nil
	}

	// Duplicate balance reports may exist per account; the maximum
	// available amount is authoritative.
	maxAvailable := make(map[string]float64)
	currencies := make(map[string]string)
	for _, b := range snap.Balances {
		if !b.Available() {
			continue
		}
		if cur, ok := maxAvailable[b.AccountID]; !ok || b.Amount > cur {
			maxAvailable[b.AccountID] = b.Amount
			currencies[b.AccountID] = b.Currency
		}
	}

	var best *domain.Account
	var bestAmount float64
	for i, acc := range snap.Accounts {
		amount, ok := maxAvailable[acc.ID]
		if !ok {
			continue // balances with dangling account refs are ignored too
		}
		if best == nil || amount > bestAmount {
			best = &snap.Accounts[i]
			bestAmount = amount
		}
	}
	if best == nil {
		return nil, nil
	}

	name := best.Nickname
	if name == "" {
		name = best.ID
	}

	return &domain.Advice{
		Title: "Smart payment",
		Description: fmt.Sprintf(
			"Pay from account %q: it holds the highest available balance (%.2f %s).",
			name, bestAmount, currencies[best.ID],
		),
		Category: "payment",
		Priority: domain.PriorityMedium,
	}, nil
}
