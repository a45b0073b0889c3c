// Package port defines the interfaces (ports) for external
// dependencies. Following hexagonal architecture, these ports decouple
// the service layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
)

// BankGateway retrieves banking data from the upstream open-banking
// API on behalf of the client identified by the bearer token. Balances
// are pre-filtered to the interim-available type by the gateway, but
// consumers must not rely on that and filter defensively.
type BankGateway interface {
	FetchAccounts(ctx context.Context, token string) ([]domain.Account, error)
	FetchBalances(ctx context.Context, token, accountID, bankCode string) ([]domain.Balance, error)
	FetchTransactions(ctx context.Context, token, accountID, bankCode string, from, to time.Time, page, limit int) ([]domain.Transaction, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
