package http

import (
	"encoding/json"
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

// chartData carries chart labels and values as JSON strings for the
// data-labels/data-values attributes read by static/app.js.
type chartData struct {
	Labels string
	Values string
}

type dashboardPage struct {
	Summary    core.Summary
	ByCategory chartData
	ByMonth    chartData
	ByDay      chartData
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, charts, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard", dashboardPage{
		Summary:    summary,
		ByCategory: categoryChart(charts.ByCategory),
		ByMonth:    periodChart(charts.ByMonth),
		ByDay:      periodChart(charts.ByDay),
	})
}

// JSON shapes for /api/charts. Amounts are plain numbers for the chart library.
type (
	categoryTotalJSON struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	periodTotalJSON struct {
		Period string  `json:"period"`
		Total  float64 `json:"total"`
	}

	summaryJSON struct {
		TotalSpent  float64 `json:"total_spent"`
		Month       string  `json:"month"`
		MonthTotal  float64 `json:"month_total"`
		TopCategory string  `json:"top_category"`
	}

	chartsResponse struct {
		ByCategory []categoryTotalJSON `json:"by_category"`
		ByMonth    []periodTotalJSON   `json:"by_month"`
		ByDay      []periodTotalJSON   `json:"by_day"`
		Summary    summaryJSON         `json:"summary"`
	}
)

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	summary, charts, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		status := statusFor(err)
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Chart data failed", applog.FieldError, err)
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}

	resp := chartsResponse{
		ByCategory: make([]categoryTotalJSON, 0, len(charts.ByCategory)),
		ByMonth:    periodsJSON(charts.ByMonth),
		ByDay:      periodsJSON(charts.ByDay),
		Summary: summaryJSON{
			TotalSpent:  summary.TotalSpent.InexactFloat64(),
			Month:       summary.Month,
			MonthTotal:  summary.MonthTotal.InexactFloat64(),
			TopCategory: summary.TopCategory,
		},
	}
	for _, c := range charts.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalJSON{Category: c.Category, Total: c.Total.InexactFloat64()})
	}

	writeJSON(w, http.StatusOK, resp)
}

func periodsJSON(totals []core.PeriodTotal) []periodTotalJSON {
	out := make([]periodTotalJSON, 0, len(totals))
	for _, p := range totals {
		out = append(out, periodTotalJSON{Period: p.Period, Total: p.Total.InexactFloat64()})
	}
	return out
}

func categoryChart(totals []core.CategoryTotal) chartData {
	labels := make([]string, 0, len(totals))
	values := make([]float64, 0, len(totals))
	for _, c := range totals {
		label := c.Category
		if label == "" {
			label = core.UncategorizedLabel
		}
		labels = append(labels, label)
		values = append(values, c.Total.InexactFloat64())
	}
	return newChartData(labels, values)
}

func periodChart(totals []core.PeriodTotal) chartData {
	labels := make([]string, 0, len(totals))
	values := make([]float64, 0, len(totals))
	for _, p := range totals {
		labels = append(labels, p.Period)
		values = append(values, p.Total.InexactFloat64())
	}
	return newChartData(labels, values)
}

func newChartData(labels []string, values []float64) chartData {
	l, _ := json.Marshal(labels)
	v, _ := json.Marshal(values)
	return chartData{Labels: string(l), Values: string(v)}
}
