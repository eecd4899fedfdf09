package google

import (
	"fmt"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

// transactionRow renders t in Header column order. The amount is a fixed
// two-decimal string so the sheet never shows float noise.
func transactionRow(t core.Transaction) []any {
	return []any{
		strconv.FormatInt(t.ID, 10),
		t.Date,
		t.Category,
		t.Amount.StringFixed(core.AmountScale),
		t.Note,
	}
}

func headerRow() []any {
	out := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		out[i] = h
	}
	return out
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
// values is column A as returned by the Values API, starting at row 1.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}

func a1(sheet, rng string) string {
	// Sheet names with spaces or punctuation must be quoted
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), rng)
}
