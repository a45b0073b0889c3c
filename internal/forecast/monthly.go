// Package forecast builds the monthly spending feature table and
// trains a gradient boosted regression model to predict next month's
// expenses.
package forecast

import (
	"sort"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
)

// MonthlyRow is one month of aggregated transaction history plus the
// lag and rolling features used by the forecast model.
type MonthlyRow struct {
	Month    time.Time `json:"month"`
	Income   float64   `json:"income"`
	Expenses float64   `json:"expenses"`
	TxCount  int       `json:"tx_count"`

	Lag1      float64 `json:"lag_1"`       // expenses one month back
	Lag2      float64 `json:"lag_2"`       // expenses two months back
	Lag3      float64 `json:"lag_3"`       // expenses three months back
	RollMean3 float64 `json:"roll_mean_3"` // trailing 3-month mean of Lag1
	MonthNum  int     `json:"month_num"`   // 1..12
}

// BuildMonthly aggregates a flat transaction sequence into a
// chronologically ordered feature table. Months are derived from the
// booking timestamp truncated to month granularity; lags are over the
// expense series of the months present in the data. The earliest three
// months carry undefined lag/rolling features and are dropped, so the
// result is empty unless the data spans at least four months.
func BuildMonthly(txs []domain.Transaction) []MonthlyRow {
	if len(txs) == 0 {
		return nil
	}

	type agg struct {
		income   float64
		expenses float64
		count    int
	}
	byMonth := make(map[time.Time]*agg)
	for _, tx := range txs {
		m := time.Date(tx.BookingDateTime.Year(), tx.BookingDateTime.Month(), 1, 0, 0, 0, 0, time.UTC)
		a := byMonth[m]
		if a == nil {
			a = &agg{}
			byMonth[m] = a
		}
		switch tx.CreditDebitIndicator {
		case domain.IndicatorCredit:
			a.income += tx.Amount
		case domain.IndicatorDebit:
			a.expenses += tx.Amount
		}
		a.count++
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	rows := make([]MonthlyRow, len(months))
	for i, m := range months {
		a := byMonth[m]
		rows[i] = MonthlyRow{
			Month:    m,
			Income:   a.income,
			Expenses: a.expenses,
			TxCount:  a.count,
			MonthNum: int(m.Month()),
		}
	}

	out := make([]MonthlyRow, 0, len(rows))
	for i := 3; i < len(rows); i++ {
		r := rows[i]
		r.Lag1 = rows[i-1].Expenses
		r.Lag2 = rows[i-2].Expenses
		r.Lag3 = rows[i-3].Expenses
		r.RollMean3 = (rows[i-1].Expenses + rows[i-2].Expenses + rows[i-3].Expenses) / 3
		out = append(out, r)
	}
	return out
}

func (r MonthlyRow) features() []float64 {
	return []float64{r.Lag1, r.Lag2, r.Lag3, r.RollMean3, float64(r.MonthNum)}
}

// CountMonths reports how many distinct calendar months the
// transaction sequence spans, including the leading months BuildMonthly
// drops for lack of lag features.
func CountMonths(txs []domain.Transaction) int {
	seen := make(map[time.Time]struct{})
	for _, tx := range txs {
		m := time.Date(tx.BookingDateTime.Year(), tx.BookingDateTime.Month(), 1, 0, 0, 0, 0, time.UTC)
		seen[m] = struct{}{}
	}
	return len(seen)
}
