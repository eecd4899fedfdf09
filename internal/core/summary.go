package core

import "github.com/shopspring/decimal"

// CategoryTotal is a summed amount for one category label.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// PeriodTotal is a summed amount for a month (YYYY-MM) or a day (YYYY-MM-DD).
type PeriodTotal struct {
	Period string
	Total  decimal.Decimal
}

// Summary holds the headline figures shown on every listing page.
type Summary struct {
	TotalSpent  decimal.Decimal
	Month       string
	MonthTotal  decimal.Decimal
	TopCategory string
}

// Charts bundles the chart-ready aggregates.
type Charts struct {
	ByCategory []CategoryTotal
	ByMonth    []PeriodTotal
	ByDay      []PeriodTotal
}
