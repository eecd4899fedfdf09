package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Aggregator computes grouped sums over transactions. Nothing is cached;
// every call reads the table.
type Aggregator struct {
	db    DBTX
	clock core.Clock
}

func NewAggregator(db DBTX, clock core.Clock) *Aggregator {
	if clock == nil {
		clock = core.SystemClock
	}
	return &Aggregator{db: db, clock: clock}
}

// TotalSpent sums every amount. An empty table yields zero.
func (a *Aggregator) TotalSpent(ctx context.Context) (decimal.Decimal, error) {
	return a.sum(ctx, "total spent", `SELECT SUM(amount) FROM transactions`)
}

// MonthlyTotal sums the amounts whose date starts with month (YYYY-MM).
func (a *Aggregator) MonthlyTotal(ctx context.Context, month string) (decimal.Decimal, error) {
	if _, err := time.Parse(core.MonthLayout, month); err != nil {
		return decimal.Zero, &core.ValidationError{Field: "month", Message: "month must be in YYYY-MM format"}
	}
	return a.sum(ctx, "monthly total",
		`SELECT SUM(amount) FROM transactions WHERE substr(date, 1, 7) = ?`, month)
}

func (a *Aggregator) CurrentMonthTotal(ctx context.Context) (decimal.Decimal, error) {
	return a.MonthlyTotal(ctx, core.CurrentMonth(a.clock))
}

// TopCategory returns the category with the largest summed amount, breaking
// ties by name. It returns core.TopCategoryNone when there are no transactions
// and core.UncategorizedLabel when uncategorized rows sum highest.
func (a *Aggregator) TopCategory(ctx context.Context) (string, error) {
	var name string
	err := a.db.QueryRowContext(ctx, `
		SELECT COALESCE(category, '') AS c
		FROM transactions
		GROUP BY c
		ORDER BY SUM(amount) DESC, c ASC
		LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TopCategoryNone, nil
	}
	if err != nil {
		return "", &core.StoreError{Op: "top category", Err: err}
	}
	if name == "" {
		return core.UncategorizedLabel, nil
	}
	return name, nil
}

// CategoryBreakdown returns one total per distinct category, largest first.
func (a *Aggregator) CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT COALESCE(category, '') AS c, SUM(amount)
		FROM transactions
		GROUP BY c
		ORDER BY SUM(amount) DESC, c ASC`)
	if err != nil {
		return nil, &core.StoreError{Op: "category breakdown", Err: err}
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var (
			ct    core.CategoryTotal
			total float64
		)
		if err := rows.Scan(&ct.Category, &total); err != nil {
			return nil, &core.StoreError{Op: "category breakdown", Err: err}
		}
		if ct.Total, err = core.AmountFromFloat(total); err != nil {
			return nil, &core.StoreError{Op: "category breakdown", Err: err}
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "category breakdown", Err: err}
	}
	return out, nil
}

// MonthlySeries returns per-month totals in ascending month order.
func (a *Aggregator) MonthlySeries(ctx context.Context) ([]core.PeriodTotal, error) {
	return a.series(ctx, "monthly series", `
		SELECT substr(date, 1, 7) AS p, SUM(amount)
		FROM transactions
		GROUP BY p
		ORDER BY p ASC`)
}

// DailySeries returns per-day totals in ascending date order.
func (a *Aggregator) DailySeries(ctx context.Context) ([]core.PeriodTotal, error) {
	return a.series(ctx, "daily series", `
		SELECT date, SUM(amount)
		FROM transactions
		GROUP BY date
		ORDER BY date ASC`)
}

// Summary bundles the headline figures for the current month.
func (a *Aggregator) Summary(ctx context.Context) (core.Summary, error) {
	month := core.CurrentMonth(a.clock)

	total, err := a.TotalSpent(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	monthTotal, err := a.MonthlyTotal(ctx, month)
	if err != nil {
		return core.Summary{}, err
	}
	top, err := a.TopCategory(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summary{
		TotalSpent:  total,
		Month:       month,
		MonthTotal:  monthTotal,
		TopCategory: top,
	}, nil
}

// Charts bundles every chart-ready aggregate.
func (a *Aggregator) Charts(ctx context.Context) (core.Charts, error) {
	byCategory, err := a.CategoryBreakdown(ctx)
	if err != nil {
		return core.Charts{}, err
	}
	byMonth, err := a.MonthlySeries(ctx)
	if err != nil {
		return core.Charts{}, err
	}
	byDay, err := a.DailySeries(ctx)
	if err != nil {
		return core.Charts{}, err
	}
	return core.Charts{ByCategory: byCategory, ByMonth: byMonth, ByDay: byDay}, nil
}

func (a *Aggregator) sum(ctx context.Context, op, query string, args ...any) (decimal.Decimal, error) {
	var total sql.NullFloat64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, &core.StoreError{Op: op, Err: err}
	}
	d, err := core.AmountFromFloat(total.Float64)
	if err != nil {
		return decimal.Zero, &core.StoreError{Op: op, Err: err}
	}
	return d, nil
}

func (a *Aggregator) series(ctx context.Context, op, query string) ([]core.PeriodTotal, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	var out []core.PeriodTotal
	for rows.Next() {
		var (
			pt    core.PeriodTotal
			total float64
		)
		if err := rows.Scan(&pt.Period, &total); err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		if pt.Total, err = core.AmountFromFloat(total); err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	return out, nil
}
