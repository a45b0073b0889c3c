// Package domain defines the core business entities for the FinBalance
// advisor. These models are the normalized, typed view of the upstream
// open-banking data and are independent of any transport shape.
package domain

import (
	"strings"
	"time"
)

// ============================================================
// Accounts & Balances
// ============================================================

// Account represents a bank account as reported by the upstream API.
// Immutable once fetched into a snapshot.
type Account struct {
	ID          string `json:"account_id"`
	Nickname    string `json:"nickname"`
	BankCode    string `json:"bank"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency,omitempty"`
}

// BalanceTypeInterimAvailable is the only balance type meaningful for
// payment and affordability logic; other balance reports (booked,
// pending) must be filtered out before use.
const BalanceTypeInterimAvailable = "InterimAvailable"

// Balance is a single balance report for an account. Upstream may send
// duplicate reports per account; the maximum available amount per
// account is authoritative.
type Balance struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Type      string  `json:"type"`
}

// Available reports whether this balance record represents currently
// usable funds.
func (b Balance) Available() bool {
	return b.Type == BalanceTypeInterimAvailable
}

// ============================================================
// Transactions
// ============================================================

// Credit/Debit indicator values.
const (
	IndicatorCredit = "Credit"
	IndicatorDebit  = "Debit"
)

// Bank transaction codes distinguishing transfer direction.
const (
	CodeReceivedCreditTransfer = "ReceivedCreditTransfer"
	CodeReceivedDebitTransfer  = "ReceivedDebitTransfer"
	CodeIssuedCreditTransfer   = "IssuedCreditTransfer"
	CodeIssuedDebitTransfer    = "IssuedDebitTransfer"
)

// Transaction is an immutable historical fact within the snapshot's
// time window.
type Transaction struct {
	AccountID            string    `json:"account_id"`
	Amount               float64   `json:"amount"`
	Currency             string    `json:"currency"`
	CreditDebitIndicator string    `json:"credit_debit_indicator"`
	BankTransactionCode  string    `json:"bank_transaction_code"`
	BookingDateTime      time.Time `json:"booking_date_time"`
	TransactionInfo      string    `json:"transaction_information,omitempty"`
}

// IsIncome reports whether the bank transaction code marks a received
// transfer.
func (t Transaction) IsIncome() bool {
	return t.BankTransactionCode == CodeReceivedCreditTransfer ||
		t.BankTransactionCode == CodeReceivedDebitTransfer
}

// IsExpense reports whether the bank transaction code marks an issued
// transfer.
func (t Transaction) IsExpense() bool {
	return t.BankTransactionCode == CodeIssuedCreditTransfer ||
		t.BankTransactionCode == CodeIssuedDebitTransfer
}

// InfoContains does a case-insensitive substring match against the
// free-text transaction information field.
func (t Transaction) InfoContains(keyword string) bool {
	return strings.Contains(strings.ToLower(t.TransactionInfo), strings.ToLower(keyword))
}

// ============================================================
// Snapshot
// ============================================================

// Window is the bounded time range a snapshot was materialized for.
// Analyzers derive all their sub-windows from it instead of reading
// the wall clock, so evaluation is deterministic.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Snapshot is the normalized in-memory view of one client's accounts,
// balances and transactions over a bounded lookback window. Every
// balance/transaction should reference an account present in Accounts,
// but upstream data is not guaranteed consistent: analyzers treat
// dangling references as "no match", never as an error.
type Snapshot struct {
	Accounts     []Account     `json:"accounts"`
	Balances     []Balance     `json:"balances"`
	Transactions []Transaction `json:"transactions"`
	Window       Window        `json:"window"`
}

// ============================================================
// Recommendations
// ============================================================

// Recommendation priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Advice is the partial recommendation an analyzer produces. The
// evaluation engine assigns identity and timestamp; analyzers never do.
type Advice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// Recommendation is a finalized advice record. IDs are 1-based and
// sequential within a single evaluation run.
type Recommendation struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"created_at"` // ISO-8601, UTC
}

// ============================================================
// Forecast
// ============================================================

// ForecastResult is the output of a spending forecast run.
type ForecastResult struct {
	NextMonthExpenses float64 `json:"next_month_expenses"`
	MonthsObserved    int     `json:"months_observed"`
	RowsTrained       int     `json:"rows_trained"`
}
