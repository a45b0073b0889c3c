// Package client implements the HTTP gateway to the upstream
// banking-data API with retry, circuit breaking, and tracing.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/client")

// BankClient fetches accounts, balances and transactions from the
// banking-data API. The caller's bearer token is forwarded verbatim.
type BankClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewBankClient creates a new BankClient.
func NewBankClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *BankClient {
	return &BankClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// wireAmount is the nested amount object used across the upstream API.
// Amounts arrive as decimal strings and are parsed exactly before
// conversion to float64 domain values.
type wireAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (w wireAmount) value() (float64, error) {
	d, err := decimal.NewFromString(w.Amount)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", w.Amount, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// FetchAccounts retrieves all accounts visible to the token's owner.
func (c *BankClient) FetchAccounts(ctx context.Context, token string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "BankClient.FetchAccounts")
	defer span.End()

	var payload struct {
		Accounts []domain.Account `json:"accounts"`
	}
	err := c.do(ctx, token, "", c.baseURL+"/api/accounts", &payload)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "accounts", Err: err}
	}
	span.SetAttributes(attribute.Int("accounts.count", len(payload.Accounts)))
	return payload.Accounts, nil
}

// FetchBalances retrieves the balance reports for one account,
// filtered to the interim-available type.
func (c *BankClient) FetchBalances(ctx context.Context, token, accountID, bankCode string) ([]domain.Balance, error) {
	ctx, span := tracer.Start(ctx, "BankClient.FetchBalances")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var payload struct {
		Data struct {
			Balance []struct {
				AccountID string     `json:"accountId"`
				Type      string     `json:"type"`
				Amount    wireAmount `json:"amount"`
			} `json:"balance"`
		} `json:"data"`
	}

	reqURL := fmt.Sprintf("%s/api/accounts/%s/balances", c.baseURL, url.PathEscape(accountID))
	if err := c.do(ctx, token, bankCode, reqURL, &payload); err != nil {
		return nil, &domain.ErrExternalService{Service: "balances", Err: err}
	}

	balances := make([]domain.Balance, 0, len(payload.Data.Balance))
	for _, b := range payload.Data.Balance {
		if b.Type != domain.BalanceTypeInterimAvailable {
			continue
		}
		amount, err := b.Amount.value()
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "balances", Err: err}
		}
		balances = append(balances, domain.Balance{
			AccountID: b.AccountID,
			Amount:    amount,
			Currency:  b.Amount.Currency,
			Type:      b.Type,
		})
	}
	return balances, nil
}

// FetchTransactions retrieves one page of transactions for an account
// within [from, to].
func (c *BankClient) FetchTransactions(ctx context.Context, token, accountID, bankCode string, from, to time.Time, page, limit int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "BankClient.FetchTransactions")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.Int("page", page),
	)

	var payload struct {
		Data struct {
			Transaction []struct {
				AccountID            string     `json:"accountId"`
				Amount               wireAmount `json:"amount"`
				CreditDebitIndicator string     `json:"creditDebitIndicator"`
				BankTransactionCode  struct {
					Code string `json:"code"`
				} `json:"bankTransactionCode"`
				BookingDateTime        string `json:"bookingDateTime"`
				TransactionInformation string `json:"transactionInformation"`
			} `json:"transaction"`
		} `json:"data"`
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
	reqURL := fmt.Sprintf("%s/api/accounts/%s/transactions?%s", c.baseURL, url.PathEscape(accountID), q.Encode())

	if err := c.do(ctx, token, bankCode, reqURL, &payload); err != nil {
		return nil, &domain.ErrExternalService{Service: "transactions", Err: err}
	}

	txs := make([]domain.Transaction, 0, len(payload.Data.Transaction))
	for _, t := range payload.Data.Transaction {
		amount, err := t.Amount.value()
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "transactions", Err: err}
		}
		booked, err := parseBookingTime(t.BookingDateTime)
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "transactions", Err: err}
		}
		txs = append(txs, domain.Transaction{
			AccountID:            t.AccountID,
			Amount:               amount,
			Currency:             t.Amount.Currency,
			CreditDebitIndicator: t.CreditDebitIndicator,
			BankTransactionCode:  t.BankTransactionCode.Code,
			BookingDateTime:      booked,
			TransactionInfo:      t.TransactionInformation,
		})
	}
	return txs, nil
}

// do performs a GET with retry and circuit breaking, decoding the JSON
// body into out.
func (c *BankClient) do(ctx context.Context, token, bankCode, reqURL string, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", token)
			if bankCode != "" {
				req.Header.Set("X-Bank-Code", bankCode)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				return &domain.ErrUnauthorized{Message: "bank API rejected the token"}
			case resp.StatusCode == http.StatusNotFound:
				return &domain.ErrNotFound{Resource: "bank resource", ID: reqURL}
			case resp.StatusCode != http.StatusOK:
				return fmt.Errorf("bank API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "bank-api"}
	}
	return err
}

// parseBookingTime accepts RFC3339 as well as the second-precision
// variant some banks emit without a zone suffix.
func parseBookingTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if len(s) >= 19 {
		if t, err := time.Parse("2006-01-02T15:04:05", s[:19]); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse bookingDateTime %q", s)
}
