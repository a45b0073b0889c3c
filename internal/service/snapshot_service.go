// Package service provides the business logic layer (use cases):
// snapshot assembly, rule evaluation and spending forecasts.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/infra/observability"
	"github.com/finbalance/advisor-go/internal/infra/resilience"
	"github.com/finbalance/advisor-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var snapTracer = otel.Tracer("service/snapshot")

// SnapshotService materializes the normalized banking snapshot one
// evaluation run works on: all accounts, their available balances and
// their transactions over the lookback window, fetched concurrently
// per account.
type SnapshotService struct {
	bank     port.BankGateway
	cache    port.Cache[*domain.Snapshot]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger

	lookbackMonths int
	pageLimit      int
	now            func() time.Time
}

// NewSnapshotService creates a snapshot service.
func NewSnapshotService(
	bank port.BankGateway,
	cache port.Cache[*domain.Snapshot],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
	lookbackMonths, pageLimit int,
) *SnapshotService {
	return &SnapshotService{
		bank:           bank,
		cache:          cache,
		bulkhead:       bulkhead,
		metrics:        metrics,
		logger:         logger,
		lookbackMonths: lookbackMonths,
		pageLimit:      pageLimit,
		now:            time.Now,
	}
}

// accountData holds one account's fetch results, kept per index so the
// joined snapshot is ordered by account regardless of goroutine timing.
type accountData struct {
	balances     []domain.Balance
	transactions []domain.Transaction
}

// BuildSnapshot fetches or returns the cached snapshot for the token's
// owner. A snapshot is only cached when every upstream fetch succeeded;
// partial data never reaches the analyzers.
func (s *SnapshotService) BuildSnapshot(ctx context.Context, token string) (*domain.Snapshot, error) {
	ctx, span := snapTracer.Start(ctx, "SnapshotService.BuildSnapshot")
	defer span.End()

	key := snapshotCacheKey(token)
	if snap, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("snapshot")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return snap, nil
	}
	s.metrics.IncrCacheMiss("snapshot")

	to := s.now().UTC()
	window := domain.Window{From: to.AddDate(0, -s.lookbackMonths, 0), To: to}

	accounts, err := s.bank.FetchAccounts(ctx, token)
	if err != nil {
		s.metrics.IncrExternalError("accounts")
		s.logger.Error("failed to fetch accounts", zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("accounts.count", len(accounts)))

	results := make([]accountData, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, acc := range accounts {
		i, acc := i, acc
		g.Go(func() error {
			data, err := s.fetchAccountData(gctx, token, acc, window)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("bank-api")
		s.logger.Error("failed to assemble snapshot", zap.Error(err))
		return nil, err
	}

	snap := &domain.Snapshot{
		Accounts: accounts,
		Window:   window,
	}
	for _, r := range results {
		snap.Balances = append(snap.Balances, r.balances...)
		snap.Transactions = append(snap.Transactions, r.transactions...)
	}

	s.cache.Set(key, snap)
	s.logger.Info("snapshot assembled",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("balances", len(snap.Balances)),
		zap.Int("transactions", len(snap.Transactions)),
		zap.Time("window_from", window.From),
		zap.Time("window_to", window.To),
	)
	return snap, nil
}

// fetchAccountData fetches balances and the complete paginated
// transaction history for one account, bounded by the bulkhead.
func (s *SnapshotService) fetchAccountData(ctx context.Context, token string, acc domain.Account, window domain.Window) (accountData, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return accountData{}, err
	}
	defer s.bulkhead.Release()

	balances, err := s.bank.FetchBalances(ctx, token, acc.ID, acc.BankCode)
	if err != nil {
		return accountData{}, err
	}

	var txs []domain.Transaction
	for page := 1; ; page++ {
		batch, err := s.bank.FetchTransactions(ctx, token, acc.ID, acc.BankCode, window.From, window.To, page, s.pageLimit)
		if err != nil {
			return accountData{}, err
		}
		txs = append(txs, batch...)
		if len(batch) < s.pageLimit {
			break
		}
	}

	return accountData{balances: balances, transactions: txs}, nil
}

// InvalidateSnapshot drops the cached snapshot for a token, forcing the
// next run to refetch.
func (s *SnapshotService) InvalidateSnapshot(token string) {
	s.cache.Delete(snapshotCacheKey(token))
}

// snapshotCacheKey hashes the bearer token so raw credentials never
// appear as cache keys or in logs.
func snapshotCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "snapshot:" + hex.EncodeToString(sum[:])
}
