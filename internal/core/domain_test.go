package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionInputTransaction(t *testing.T) {
	good := TransactionInput{Date: " 2024-01-05 ", Category: "Food", Amount: "20", Note: "Coffee"}
	tx, err := good.Transaction()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.Date != "2024-01-05" || tx.Category != "Food" || tx.Note != "Coffee" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected amount: %s", tx.Amount)
	}

	// Category and note are optional.
	if _, err := (TransactionInput{Date: "2024-01-05", Amount: "1"}).Transaction(); err != nil {
		t.Fatalf("expected ok without category/note, got %v", err)
	}

	bads := []struct {
		in    TransactionInput
		field string
	}{
		{TransactionInput{Amount: "1"}, "date"},
		{TransactionInput{Date: "05/01/2024", Amount: "1"}, "date"},
		{TransactionInput{Date: "2024-02-30", Amount: "1"}, "date"},
		{TransactionInput{Date: "2024-01-05"}, "amount"},
		{TransactionInput{Date: "2024-01-05", Amount: "twenty"}, "amount"},
	}
	for i, tc := range bads {
		_, err := tc.in.Transaction()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("case %d expected field %q, got %q", i, tc.field, ve.Field)
		}
	}
}

func TestTransactionInputRoundTrip(t *testing.T) {
	tx := Transaction{ID: 3, Date: "2024-03-01", Category: "Bills", Amount: decimal.RequireFromString("50.5"), Note: "power"}
	in := tx.Input()
	if in.Amount != "50.50" {
		t.Fatalf("expected fixed two decimals, got %q", in.Amount)
	}
	back, err := in.Transaction()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back.ID = tx.ID
	if back.Date != tx.Date || back.Category != tx.Category || back.Note != tx.Note || !back.Amount.Equal(tx.Amount) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, tx)
	}
}

func TestNormalizeCategoryName(t *testing.T) {
	if got, err := NormalizeCategoryName("  Travel "); err != nil || got != "Travel" {
		t.Fatalf("expected Travel, got %q (err=%v)", got, err)
	}
	if _, err := NormalizeCategoryName("   "); !IsValidation(err) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestFilterIsZero(t *testing.T) {
	if !(Filter{}).IsZero() {
		t.Fatal("empty filter should be zero")
	}
	f := Filter{Search: "  "}.Normalize()
	if !f.IsZero() {
		t.Fatal("whitespace-only search should normalize to zero filter")
	}
	if (Filter{Category: "Food"}).IsZero() {
		t.Fatal("category filter should not be zero")
	}
}

func TestStoreErrorMatchesUnavailable(t *testing.T) {
	err := &StoreError{Op: "list transactions", Err: errors.New("disk I/O error")}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatal("StoreError should match ErrStoreUnavailable")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("StoreError should not match ErrNotFound")
	}
}

func TestClockHelpers(t *testing.T) {
	c := FixedClock(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))
	if CurrentMonth(c) != "2024-03" {
		t.Fatalf("unexpected month %s", CurrentMonth(c))
	}
	if Today(c) != "2024-03-09" {
		t.Fatalf("unexpected day %s", Today(c))
	}
}
