// Package integration exercises the full HTTP stack against a fake
// open-banking API served over httptest.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finbalance/advisor-go/internal/advisor"
	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/handler"
	"github.com/finbalance/advisor-go/internal/infra/cache"
	"github.com/finbalance/advisor-go/internal/infra/client"
	"github.com/finbalance/advisor-go/internal/infra/observability"
	"github.com/finbalance/advisor-go/internal/infra/resilience"
	"github.com/finbalance/advisor-go/internal/service"

	"go.uber.org/zap"
)

// fakeBankAPI mimics the upstream aggregator's wire format.
func fakeBankAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{
			"accounts": [
				{"account_id": "acc-1", "nickname": "Main", "bank": "vtb", "account_type": "Personal", "currency": "RUB"}
			]
		}`)
	})

	mux.HandleFunc("/api/accounts/acc-1/balances", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Bank-Code") != "vtb" {
			t.Errorf("balances: expected X-Bank-Code 'vtb', got %q", r.Header.Get("X-Bank-Code"))
		}
		fmt.Fprint(w, `{
			"data": {
				"balance": [
					{"accountId": "acc-1", "type": "InterimAvailable", "amount": {"amount": "10000.50", "currency": "RUB"}},
					{"accountId": "acc-1", "type": "ClosingBooked", "amount": {"amount": "999999.00", "currency": "RUB"}}
				]
			}
		}`)
	})

	mux.HandleFunc("/api/accounts/acc-1/transactions", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") == "" || q.Get("limit") == "" {
			t.Errorf("transactions: expected page/limit params, got %q", r.URL.RawQuery)
		}
		if q.Get("page") != "1" {
			fmt.Fprint(w, `{"data": {"transaction": []}}`)
			return
		}
		booked := time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339)
		fmt.Fprintf(w, `{
			"data": {
				"transaction": [
					{
						"accountId": "acc-1",
						"amount": {"amount": "1000.00", "currency": "RUB"},
						"creditDebitIndicator": "Credit",
						"bankTransactionCode": {"code": "ReceivedCreditTransfer"},
						"bookingDateTime": %q,
						"transactionInformation": "Зарплата"
					},
					{
						"accountId": "acc-1",
						"amount": {"amount": "100.00", "currency": "RUB"},
						"creditDebitIndicator": "Debit",
						"bankTransactionCode": {"code": "IssuedDebitTransfer"},
						"bookingDateTime": %q,
						"transactionInformation": "Развлечения: кино"
					}
				]
			}
		}`, booked, booked)
	})

	return httptest.NewServer(mux)
}

func newAdvisorAPI(bankURL string) http.Handler {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	resilienceCfg := resilience.Config{
		MaxRetries:     1,
		InitialBackoff: 10 * time.Millisecond,
		MaxConcurrency: 4,
	}
	cb := resilience.NewCircuitBreaker("bank-api-test")
	bankClient := client.NewBankClient(&http.Client{Timeout: 5 * time.Second}, bankURL, cb, resilienceCfg)

	snapshots := service.NewSnapshotService(
		bankClient,
		cache.New[*domain.Snapshot](time.Minute),
		resilience.NewBulkhead(4),
		metrics,
		logger,
		6,
		50,
	)
	engine := advisor.NewEngine(metrics, logger)
	advisorSvc := service.NewAdvisorService(snapshots, engine, metrics, logger)
	forecastSvc := service.NewForecastService(snapshots, metrics, logger)
	return handler.NewRouter(advisorSvc, forecastSvc, metrics, "", logger)
}

func TestAdviceEndToEnd(t *testing.T) {
	bank := fakeBankAPI(t)
	defer bank.Close()

	api := newAdvisorAPI(bank.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/advice", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Status string                  `json:"status"`
		RunID  string                  `json:"run_id"`
		Data   []domain.Recommendation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if env.Status != "success" {
		t.Fatalf("expected success, got %q", env.Status)
	}
	if env.RunID == "" {
		t.Error("expected a run id")
	}
	if len(env.Data) == 0 {
		t.Fatal("expected recommendations")
	}

	// SmartPayment should name the account and the parsed decimal
	// balance, with the non-available report filtered out.
	found := false
	for _, rec := range env.Data {
		if rec.Category == "payment" {
			found = true
			if !strings.Contains(rec.Description, "Main") {
				t.Errorf("expected account nickname in %q", rec.Description)
			}
			if !strings.Contains(rec.Description, "10000.50") {
				t.Errorf("expected parsed balance in %q", rec.Description)
			}
		}
	}
	if !found {
		t.Error("expected a payment recommendation")
	}
}

func TestAffordabilityEndToEnd(t *testing.T) {
	bank := fakeBankAPI(t)
	defer bank.Close()

	api := newAdvisorAPI(bank.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/advice/affordability", strings.NewReader(`{"amount": 3000}`))
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Status string                `json:"status"`
		Data   domain.Recommendation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if env.Data.Priority != domain.PriorityLow {
		t.Errorf("expected low priority for 3000 against a 10000.50 balance, got %q", env.Data.Priority)
	}
}

func TestForecastEndToEnd(t *testing.T) {
	bank := fakeBankAPI(t)
	defer bank.Close()

	api := newAdvisorAPI(bank.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Status string `json:"status"`
		Data   struct {
			Forecast *domain.ForecastResult `json:"forecast"`
			Message  string                 `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	// One month of history is the insufficient-data outcome.
	if env.Data.Forecast != nil {
		t.Errorf("expected nil forecast, got %+v", env.Data.Forecast)
	}
	if env.Data.Message == "" {
		t.Error("expected an explanatory message")
	}
}

func TestUpstreamRejectionPropagates(t *testing.T) {
	bank := fakeBankAPI(t)
	defer bank.Close()

	api := newAdvisorAPI(bank.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/advice", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 passthrough from the bank API, got %d: %s", rec.Code, rec.Body.String())
	}
}
