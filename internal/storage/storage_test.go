package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func openTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(context.Background(), path, core.FixedClock(now))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustInsert(t *testing.T, s *Store, date, category, amount, note string) int64 {
	t.Helper()
	id, err := s.Transactions.Insert(context.Background(), core.TransactionInput{
		Date: date, Category: category, Amount: amount, Note: note,
	})
	if err != nil {
		t.Fatalf("Insert(%s, %s, %s): %v", date, category, amount, err)
	}
	return id
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOpen_SeedsDefaultsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := Open(ctx, path, core.SystemClock)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		cats, err := s.Categories.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(cats) != len(core.DefaultCategories) {
			t.Errorf("Open #%d: got %d categories, want %d", i+1, len(cats), len(core.DefaultCategories))
		}
		s.Close()
	}
}

func TestOpen_InMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:", core.SystemClock)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	cats, err := s.Categories.List(ctx)
	if err != nil {
		t.Fatalf("List categories: %v", err)
	}
	if len(cats) != len(core.DefaultCategories) {
		t.Errorf("got %d categories, want %d", len(cats), len(core.DefaultCategories))
	}

	mustInsert(t, s, "2024-03-10", "Food", "12.50", "")
	mustInsert(t, s, "2024-03-11", "Bills", "7.50", "")
	total, err := s.Aggregates.TotalSpent(ctx)
	if err != nil || !total.Equal(dec("20")) {
		t.Errorf("TotalSpent = %s, %v; want 20", total, err)
	}
}

func TestTransactions_RoundTrip(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	id := mustInsert(t, s, "2024-03-10", "Food", "12.50", "lunch")

	got, err := s.Transactions.List(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	tx := got[0]
	if tx.ID != id || tx.Date != "2024-03-10" || tx.Category != "Food" || tx.Note != "lunch" {
		t.Errorf("unexpected row %+v", tx)
	}
	if !tx.Amount.Equal(dec("12.5")) {
		t.Errorf("amount = %s, want 12.50", tx.Amount)
	}

	byID, err := s.Transactions.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if byID.ID != tx.ID || byID.Date != tx.Date || byID.Note != tx.Note || !byID.Amount.Equal(tx.Amount) {
		t.Errorf("Get = %+v, want %+v", byID, tx)
	}
}

func TestTransactions_InsertRejectsInvalidInput(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	tests := []struct {
		name  string
		in    core.TransactionInput
		field string
	}{
		{"missing date", core.TransactionInput{Amount: "1"}, "date"},
		{"bad date", core.TransactionInput{Date: "10/03/2024", Amount: "1"}, "date"},
		{"missing amount", core.TransactionInput{Date: "2024-03-10"}, "amount"},
		{"bad amount", core.TransactionInput{Date: "2024-03-10", Amount: "ten"}, "amount"},
		{"amount overflows", core.TransactionInput{Date: "2024-03-10", Amount: "1e400"}, "amount"},
		{"amount too large", core.TransactionInput{Date: "2024-03-10", Amount: "-1e13"}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Transactions.Insert(ctx, tt.in)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	n, err := s.Transactions.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestTransactions_InsertThenDeleteRestoresTotal(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	mustInsert(t, s, "2024-01-01", "Food", "10", "")
	before, err := s.Aggregates.TotalSpent(ctx)
	if err != nil {
		t.Fatal(err)
	}

	id := mustInsert(t, s, "2024-01-02", "Bills", "33.33", "")
	if err := s.Transactions.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	after, err := s.Aggregates.TotalSpent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !after.Equal(before) {
		t.Errorf("total after insert+delete = %s, want %s", after, before)
	}
}

func TestTransactions_DeleteMissingIsNoop(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()
	mustInsert(t, s, "2024-01-01", "Food", "10", "")

	if err := s.Transactions.Delete(ctx, 9999); err != nil {
		t.Fatalf("Delete missing id: %v", err)
	}
	n, _ := s.Transactions.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestTransactions_UpdateMissingIsNotFound(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()
	id := mustInsert(t, s, "2024-01-01", "Food", "10", "pizza")

	err := s.Transactions.Update(ctx, id+100, core.TransactionInput{Date: "2024-02-02", Amount: "99"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Update missing id: got %v, want ErrNotFound", err)
	}

	got, err := s.Transactions.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2024-01-01" || !got.Amount.Equal(dec("10")) || got.Note != "pizza" {
		t.Errorf("existing row changed: %+v", got)
	}

	if _, err := s.Transactions.Get(ctx, id+100); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get missing id: got %v, want ErrNotFound", err)
	}
}

func TestTransactions_UpdateReplacesAllFields(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()
	id := mustInsert(t, s, "2024-01-01", "Food", "10", "pizza")

	err := s.Transactions.Update(ctx, id, core.TransactionInput{Date: "2024-01-05", Category: "", Amount: "7,25", Note: ""})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Transactions.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := core.Transaction{ID: id, Date: "2024-01-05", Amount: dec("7.25")}
	if got.ID != want.ID || got.Date != want.Date || got.Category != "" || got.Note != "" || !got.Amount.Equal(want.Amount) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTransactions_ListFilters(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	mustInsert(t, s, "2024-01-01", "Food", "10", "Pizza night")
	mustInsert(t, s, "2024-01-15", "Bills", "50", "electricity")
	mustInsert(t, s, "2024-01-31", "Food", "5", "coffee")
	mustInsert(t, s, "2024-02-01", "Transport", "20", "100% refundable_ticket")

	tests := []struct {
		name  string
		f     core.Filter
		dates []string
	}{
		{"no filter newest first", core.Filter{}, []string{"2024-02-01", "2024-01-31", "2024-01-15", "2024-01-01"}},
		{"closed range", core.Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"}, []string{"2024-01-31", "2024-01-15", "2024-01-01"}},
		{"start only", core.Filter{StartDate: "2024-01-31"}, []string{"2024-02-01", "2024-01-31"}},
		{"category exact", core.Filter{Category: "Food"}, []string{"2024-01-31", "2024-01-01"}},
		{"category is case sensitive", core.Filter{Category: "food"}, nil},
		{"search note case insensitive", core.Filter{Search: "PIZZA"}, []string{"2024-01-01"}},
		{"search matches category", core.Filter{Search: "bill"}, []string{"2024-01-15"}},
		{"percent is literal", core.Filter{Search: "100%"}, []string{"2024-02-01"}},
		{"underscore is literal", core.Filter{Search: "e_t"}, []string{"2024-02-01"}},
		{"combined", core.Filter{Search: "o", Category: "Food", EndDate: "2024-01-15"}, []string{"2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Transactions.List(ctx, tt.f)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.dates) {
				t.Fatalf("got %d rows, want %d: %+v", len(got), len(tt.dates), got)
			}
			for i, d := range tt.dates {
				if got[i].Date != d {
					t.Errorf("row %d date = %s, want %s", i, got[i].Date, d)
				}
			}
		})
	}
}

func TestCategories_AddDuplicateIsNoop(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	before, err := s.Categories.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Categories.Add(ctx, "Travel"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Categories.Add(ctx, "  Travel "); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	after, err := s.Categories.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before)+1 {
		t.Errorf("got %d categories, want %d", len(after), len(before)+1)
	}
	for i := 1; i < len(after); i++ {
		if after[i-1].Name > after[i].Name {
			t.Errorf("categories not sorted: %q before %q", after[i-1].Name, after[i].Name)
		}
	}

	if err := s.Categories.Add(ctx, "   "); !core.IsValidation(err) {
		t.Errorf("blank name: got %v, want ValidationError", err)
	}
}

func TestCategories_EnsureDefaultsContinuesPastFailures(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	err := s.Categories.EnsureDefaults(ctx, []string{"Alpha", " ", "Beta"})
	if err == nil {
		t.Fatal("expected error for blank name")
	}
	cats, err := s.Categories.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, c := range cats {
		names[c.Name] = true
	}
	if !names["Alpha"] || !names["Beta"] {
		t.Errorf("expected Alpha and Beta to be inserted, got %v", names)
	}
}

func TestAggregates_Scenario(t *testing.T) {
	s := openTestStore(t, time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	mustInsert(t, s, "2024-01-05", "Food", "20", "")
	mustInsert(t, s, "2024-01-20", "Bills", "50", "")
	mustInsert(t, s, "2024-02-03", "Food", "15", "")

	total, err := s.Aggregates.TotalSpent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(dec("85")) {
		t.Errorf("TotalSpent = %s, want 85", total)
	}

	top, err := s.Aggregates.TopCategory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if top != "Bills" {
		t.Errorf("TopCategory = %q, want Bills", top)
	}

	series, err := s.Aggregates.MonthlySeries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []core.PeriodTotal{{Period: "2024-01", Total: dec("70")}, {Period: "2024-02", Total: dec("15")}}
	if len(series) != len(want) {
		t.Fatalf("MonthlySeries = %+v, want %+v", series, want)
	}
	for i := range want {
		if series[i].Period != want[i].Period || !series[i].Total.Equal(want[i].Total) {
			t.Errorf("MonthlySeries[%d] = %+v, want %+v", i, series[i], want[i])
		}
	}

	current, err := s.Aggregates.CurrentMonthTotal(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !current.Equal(dec("15")) {
		t.Errorf("CurrentMonthTotal = %s, want 15", current)
	}

	breakdown, err := s.Aggregates.CategoryBreakdown(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(breakdown) != 2 || breakdown[0].Category != "Bills" || breakdown[1].Category != "Food" || !breakdown[1].Total.Equal(dec("35")) {
		t.Errorf("CategoryBreakdown = %+v", breakdown)
	}

	daily, err := s.Aggregates.DailySeries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 3 || daily[0].Period != "2024-01-05" || daily[2].Period != "2024-02-03" {
		t.Errorf("DailySeries = %+v", daily)
	}

	sum, err := s.Aggregates.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Month != "2024-02" || !sum.MonthTotal.Equal(dec("15")) || sum.TopCategory != "Bills" {
		t.Errorf("Summary = %+v", sum)
	}
}

func TestAggregates_Empty(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	total, err := s.Aggregates.TotalSpent(ctx)
	if err != nil || !total.IsZero() {
		t.Errorf("TotalSpent = %s, %v; want 0", total, err)
	}
	top, err := s.Aggregates.TopCategory(ctx)
	if err != nil || top != core.TopCategoryNone {
		t.Errorf("TopCategory = %q, %v; want None", top, err)
	}
	series, err := s.Aggregates.MonthlySeries(ctx)
	if err != nil || len(series) != 0 {
		t.Errorf("MonthlySeries = %+v, %v; want empty", series, err)
	}
}

func TestAggregates_LargeAmounts(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		mustInsert(t, s, "2024-01-01", "Savings", "1000000000000", "")
	}
	total, err := s.Aggregates.TotalSpent(ctx)
	if err != nil || !total.Equal(dec("10000000000000")) {
		t.Errorf("TotalSpent = %s, %v; want 1e13", total, err)
	}
}

func TestAggregates_NonFiniteSumIsUnavailable(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	// Rows beyond the amount bound can only come from outside Insert.
	for i := 0; i < 2; i++ {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO transactions (date, category, amount, note) VALUES ('2024-01-01', 'Food', 1e308, '')`); err != nil {
			t.Fatalf("raw insert: %v", err)
		}
	}

	if _, err := s.Transactions.List(ctx, core.Filter{}); err != nil {
		t.Fatalf("List of finite rows: %v", err)
	}
	if _, err := s.Aggregates.TotalSpent(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("TotalSpent: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.Aggregates.Summary(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Summary: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.Aggregates.Charts(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Charts: got %v, want ErrStoreUnavailable", err)
	}
}

func TestTransactions_NonFiniteRowIsUnavailable(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (date, category, amount, note) VALUES ('2024-01-01', 'Food', 9e999, '')`)
	if err != nil {
		t.Fatalf("raw insert: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Transactions.List(ctx, core.Filter{}); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("List: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.Transactions.Get(ctx, id); !errors.Is(err, core.ErrNonFiniteAmount) {
		t.Errorf("Get: got %v, want ErrNonFiniteAmount", err)
	}
	if _, err := s.Aggregates.CategoryBreakdown(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("CategoryBreakdown: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.Aggregates.DailySeries(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("DailySeries: got %v, want ErrStoreUnavailable", err)
	}
}

func TestAggregates_MonthlyTotal(t *testing.T) {
	s := openTestStore(t, time.Now())
	ctx := context.Background()

	mustInsert(t, s, "2024-03-01", "Food", "1.10", "")
	mustInsert(t, s, "2024-03-31", "Food", "2.20", "")
	mustInsert(t, s, "2024-04-01", "Food", "4", "")
	mustInsert(t, s, "2023-03-15", "Food", "8", "")
	mustInsert(t, s, "2024-03-10", "Refund", "-0.30", "")

	got, err := s.Aggregates.MonthlyTotal(ctx, "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(dec("3")) {
		t.Errorf("MonthlyTotal(2024-03) = %s, want 3", got)
	}

	none, err := s.Aggregates.MonthlyTotal(ctx, "2025-01")
	if err != nil || !none.IsZero() {
		t.Errorf("MonthlyTotal(2025-01) = %s, %v; want 0", none, err)
	}

	for _, bad := range []string{"2024-3", "2024/03", "", "2024-03-01"} {
		if _, err := s.Aggregates.MonthlyTotal(ctx, bad); !core.IsValidation(err) {
			t.Errorf("MonthlyTotal(%q): got %v, want ValidationError", bad, err)
		}
	}
}

func TestAggregates_TopCategoryTieBreaksByName(t *testing.T) {
	s := openTestStore(t, time.Now())
	mustInsert(t, s, "2024-01-01", "Zeta", "10", "")
	mustInsert(t, s, "2024-01-02", "Alpha", "10", "")

	top, err := s.Aggregates.TopCategory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if top != "Alpha" {
		t.Errorf("TopCategory = %q, want Alpha", top)
	}
}

func TestAggregates_TopCategoryUncategorized(t *testing.T) {
	s := openTestStore(t, time.Now())
	mustInsert(t, s, "2024-01-01", "", "30", "")
	mustInsert(t, s, "2024-01-02", "Food", "10", "")

	top, err := s.Aggregates.TopCategory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if top != core.UncategorizedLabel {
		t.Errorf("TopCategory = %q, want %q", top, core.UncategorizedLabel)
	}
}

func TestStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	s := openTestStore(t, time.Now())
	s.Close()

	_, err := s.Transactions.List(context.Background(), core.Filter{})
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("List on closed store: got %v, want ErrStoreUnavailable", err)
	}
}
