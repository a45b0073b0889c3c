package advisor

import (
	"strings"
	"testing"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
)

func income(amount float64, day int) domain.Transaction {
	return domain.Transaction{
		Amount:               amount,
		CreditDebitIndicator: domain.IndicatorCredit,
		BankTransactionCode:  domain.CodeReceivedCreditTransfer,
		BookingDateTime:      time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
	}
}

func expense(amount float64, day int, info string) domain.Transaction {
	return domain.Transaction{
		Amount:               amount,
		CreditDebitIndicator: domain.IndicatorDebit,
		BankTransactionCode:  domain.CodeIssuedDebitTransfer,
		BookingDateTime:      time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
		TransactionInfo:      info,
	}
}

func availableBalance(accountID string, amount float64) domain.Balance {
	return domain.Balance{
		AccountID: accountID,
		Amount:    amount,
		Currency:  "RUB",
		Type:      domain.BalanceTypeInterimAvailable,
	}
}

// --- SmartPayment ---

func TestSmartPayment_PicksHighestBalance(t *testing.T) {
	snapshots := []*domain.Snapshot{
		{
			Accounts: []domain.Account{{ID: "a", Nickname: "Alpha"}, {ID: "b", Nickname: "Beta"}},
			Balances: []domain.Balance{availableBalance("a", 500), availableBalance("b", 1200)},
		},
		{
			// Same data, reversed order: the winner must not change.
			Accounts: []domain.Account{{ID: "b", Nickname: "Beta"}, {ID: "a", Nickname: "Alpha"}},
			Balances: []domain.Balance{availableBalance("b", 1200), availableBalance("a", 500)},
		},
	}
	for i, snap := range snapshots {
		advice, err := SmartPayment{}.Evaluate(snap)
		if err != nil {
			t.Fatalf("snapshot %d: unexpected error %v", i, err)
		}
		if advice == nil {
			t.Fatalf("snapshot %d: expected advice", i)
		}
		if !strings.Contains(advice.Description, "Beta") {
			t.Errorf("snapshot %d: expected account Beta in %q", i, advice.Description)
		}
	}
}

func TestSmartPayment_DeduplicatesBalanceReports(t *testing.T) {
	snap := &domain.Snapshot{
		Accounts: []domain.Account{{ID: "a", Nickname: "Alpha"}, {ID: "b", Nickname: "Beta"}},
		Balances: []domain.Balance{
			availableBalance("a", 900),
			availableBalance("a", 300), // stale duplicate, max wins
			availableBalance("b", 700),
		},
	}
	advice, err := SmartPayment{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice == nil || !strings.Contains(advice.Description, "Alpha") {
		t.Errorf("expected Alpha to win with its max report, got %+v", advice)
	}
}

func TestSmartPayment_IgnoresNonAvailableBalances(t *testing.T) {
	snap := &domain.Snapshot{
		Accounts: []domain.Account{{ID: "a"}},
		Balances: []domain.Balance{{AccountID: "a", Amount: 999, Type: "ClosingBooked"}},
	}
	advice, err := SmartPayment{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected no advice without available balances, got %+v", advice)
	}
}

func TestSmartPayment_NicknameFallsBackToID(t *testing.T) {
	snap := &domain.Snapshot{
		Accounts: []domain.Account{{ID: "acc-42"}},
		Balances: []domain.Balance{availableBalance("acc-42", 100)},
	}
	advice, err := SmartPayment{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice == nil || !strings.Contains(advice.Description, "acc-42") {
		t.Errorf("expected account id in description, got %+v", advice)
	}
}

// --- AutoSavings ---

func TestAutoSavings_RecommendsWhenMarginExists(t *testing.T) {
	snap := &domain.Snapshot{
		Balances:     []domain.Balance{availableBalance("a", 5000)},
		Transactions: []domain.Transaction{income(1000, 1), expense(700, 5, "groceries")},
	}
	advice, err := AutoSavings{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice == nil {
		t.Fatal("expected advice at 70% spending ratio")
	}
	if !strings.Contains(advice.Description, "200") {
		t.Errorf("expected monthly savings 200 in %q", advice.Description)
	}
	if advice.Priority != domain.PriorityHigh {
		t.Errorf("expected high priority, got %q", advice.Priority)
	}
}

func TestAutoSavings_SilentWhenSpendingHigh(t *testing.T) {
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{income(1000, 1), expense(900, 5, "rent")},
	}
	advice, err := AutoSavings{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected no advice at 90%% spending ratio, got %+v", advice)
	}
}

func TestAutoSavings_SilentWithoutIncome(t *testing.T) {
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{expense(100, 5, "rent")},
	}
	advice, err := AutoSavings{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected no advice without income, got %+v", advice)
	}
}

// --- EntertainmentControl ---

func TestEntertainmentControl_FlagsHighSpending(t *testing.T) {
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{
			income(1000, 1),
			expense(100, 5, "Развлечения: кино"),
		},
		Window: testWindow(),
	}
	advice, err := EntertainmentControl{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice == nil {
		t.Fatal("expected advice at 10% entertainment share")
	}
	if advice.Category != "expenses" {
		t.Errorf("expected category 'expenses', got %q", advice.Category)
	}
}

func TestEntertainmentControl_KeywordMatchIsCaseInsensitive(t *testing.T) {
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{
			income(1000, 1),
			expense(100, 5, "ENTERTAINMENT subscription"),
		},
		Window: testWindow(),
	}
	advice, err := EntertainmentControl{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice == nil {
		t.Fatal("expected keyword match regardless of case")
	}
}

func TestEntertainmentControl_SilentBelowThreshold(t *testing.T) {
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{
			income(1000, 1),
			expense(50, 5, "развлечения"),
		},
		Window: testWindow(),
	}
	advice, err := EntertainmentControl{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected no advice at 5%% share, got %+v", advice)
	}
}

func TestEntertainmentControl_SilentWithoutIncome(t *testing.T) {
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{expense(100, 5, "развлечения")},
		Window:       testWindow(),
	}
	advice, err := EntertainmentControl{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected no advice without income, got %+v", advice)
	}
}

func TestEntertainmentControl_IgnoresSpendingOutsideWindow(t *testing.T) {
	old := expense(500, 1, "развлечения")
	old.BookingDateTime = testWindowTo.AddDate(0, 0, -entertainmentWindowDays-10)
	snap := &domain.Snapshot{
		Transactions: []domain.Transaction{income(1000, 1), old},
		Window:       testWindow(),
	}
	advice, err := EntertainmentControl{}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected spending before the cutoff to be ignored, got %+v", advice)
	}
}

// --- StressIndex ---

func TestStressIndex_SilentWithoutIncome(t *testing.T) {
	advice, err := StressIndex{}.Evaluate(&domain.Snapshot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != nil {
		t.Errorf("expected no advice on empty snapshot, got %+v", advice)
	}
}

func TestStressIndex_Levels(t *testing.T) {
	cases := []struct {
		name     string
		income   float64
		expenses float64
		balance  float64
		priority string
	}{
		// 0.6*0.1 + 0.4*(1-10) clamps to 0
		{"low", 1000, 100, 10000, domain.PriorityLow},
		// 0.6*0.5 + 0.4*(1-0.2) = 0.62
		{"medium", 1000, 500, 200, domain.PriorityMedium},
		// 0.6*1.2 + 0.4*(1-0) = 1.12 clamps to 1
		{"high", 1000, 1200, 0, domain.PriorityHigh},
	}
	for _, tc := range cases {
		snap := &domain.Snapshot{
			Balances: []domain.Balance{availableBalance("a", tc.balance)},
			Transactions: []domain.Transaction{
				income(tc.income, 1),
				expense(tc.expenses, 5, "stuff"),
			},
		}
		advice, err := StressIndex{}.Evaluate(snap)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if advice == nil {
			t.Fatalf("%s: expected advice", tc.name)
		}
		if advice.Priority != tc.priority {
			t.Errorf("%s: expected priority %q, got %q", tc.name, tc.priority, advice.Priority)
		}
		if !strings.Contains(advice.Title, tc.name) {
			t.Errorf("%s: expected level in title %q", tc.name, advice.Title)
		}
	}
}

// --- Affordability ---

func TestAffordability_Tiers(t *testing.T) {
	snap := &domain.Snapshot{
		Balances: []domain.Balance{availableBalance("a", 10000)},
		Transactions: []domain.Transaction{
			income(3000, 1),
			expense(1000, 5, "rent"),
		},
	}
	cases := []struct {
		amount   float64
		priority string
	}{
		{3000, domain.PriorityLow},    // under the 4000 safe limit
		{9000, domain.PriorityMedium}, // over the limit, within balance
		{12000, domain.PriorityHigh},  // over the balance
	}
	for _, tc := range cases {
		advice, err := Affordability{Amount: tc.amount}.Evaluate(snap)
		if err != nil {
			t.Fatalf("amount %v: unexpected error: %v", tc.amount, err)
		}
		if advice == nil {
			t.Fatalf("amount %v: expected advice", tc.amount)
		}
		if advice.Priority != tc.priority {
			t.Errorf("amount %v: expected priority %q, got %q", tc.amount, tc.priority, advice.Priority)
		}
	}
}

func TestAffordability_CautionWhenExpensesExceedIncome(t *testing.T) {
	snap := &domain.Snapshot{
		Balances: []domain.Balance{availableBalance("a", 10000)},
		Transactions: []domain.Transaction{
			income(1000, 1),
			expense(2000, 5, "rent"),
		},
	}
	advice, err := Affordability{Amount: 1000}.Evaluate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(advice.Description, "caution") {
		t.Errorf("expected caution note in %q", advice.Description)
	}
}

func TestAffordability_EmptySnapshotIsDeficit(t *testing.T) {
	advice, err := Affordability{Amount: 500}.Evaluate(&domain.Snapshot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice.Priority != domain.PriorityHigh {
		t.Errorf("expected high priority with no funds, got %q", advice.Priority)
	}
}
