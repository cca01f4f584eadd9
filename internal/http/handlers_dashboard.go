package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"treasury/internal/core"
	"treasury/internal/export"
	"treasury/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ov, err := s.dashboard.Overview(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard overview error", "error", err)
		httpError(w, http.StatusInternalServerError, "could not compute overview")
		return
	}
	writeJSON(w, http.StatusOK, toOverviewResponse(ov))
}

func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	g := report.Granularity(strings.TrimSpace(r.URL.Query().Get("granularity")))
	if g == "" {
		g = report.Monthly
	}
	rng, err := dateRangeFromQuery(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	pairs, skipped, err := s.dashboard.PeriodComparison(r.Context(), g, rng)
	if err != nil {
		if strings.Contains(err.Error(), "invalid granularity") {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Period summary error", "granularity", g, "error", err)
		httpError(w, http.StatusInternalServerError, "could not compute period summary")
		return
	}

	out := periodSummaryResponse{
		Granularity: string(g),
		Periods:     make([]periodPairResponse, len(pairs)),
		Skipped:     skipped,
	}
	for i, p := range pairs {
		out.Periods[i] = periodPairResponse{
			Period:  p.Period,
			Income:  p.Income.String(),
			Expense: p.Expense.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	kind, err := kindFromQuery(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := dateRangeFromQuery(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.dashboard.CategoryBreakdown(r.Context(), kind, rng)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category summary error", "kind", kind, "error", err)
		httpError(w, http.StatusInternalServerError, "could not compute category summary")
		return
	}

	totals := make(map[string]string, len(summary.Totals))
	for category, amount := range summary.Totals {
		totals[category] = amount.String()
	}
	writeJSON(w, http.StatusOK, categorySummaryResponse{
		Kind:   string(kind),
		Totals: totals,
	})
}

func (s *Server) handleBalanceSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	series, err := s.dashboard.BalanceSeries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance series error", "error", err)
		httpError(w, http.StatusInternalServerError, "could not compute balance series")
		return
	}
	writeJSON(w, http.StatusOK, balanceSeriesResponse{
		Points:  toBalancePoints(series.Points),
		Skipped: series.Skipped,
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res, err := s.dashboard.Forecast(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Forecast error", "error", err)
		httpError(w, http.StatusInternalServerError, "could not compute forecast")
		return
	}
	writeJSON(w, http.StatusOK, toForecastResponse(res))
}

// handleReportDownload streams the xlsx financial report.
func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rng, err := dateRangeFromQuery(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	incomes, err := s.ledger.ListTransactions(r.Context(), core.KindIncome, rng)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report income snapshot error", "error", err)
		httpError(w, http.StatusInternalServerError, "could not generate report")
		return
	}
	expenses, err := s.ledger.ListTransactions(r.Context(), core.KindExpense, rng)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report expense snapshot error", "error", err)
		httpError(w, http.StatusInternalServerError, "could not generate report")
		return
	}

	period := "all time"
	if !rng.Start.IsZero() || !rng.End.IsZero() {
		period = fmt.Sprintf("%s to %s", rng.Start, rng.End)
	}

	filename := fmt.Sprintf("treasury-report-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := export.WriteReport(w, incomes, expenses, period); err != nil {
		// Headers are out already; all that is left is logging.
		slog.ErrorContext(r.Context(), "Report write error", "error", err)
		return
	}

	sess := sessionFromContext(r.Context())
	if err := s.registry.AppendAudit(r.Context(), sess.Username, "report.export", filename); err != nil {
		slog.ErrorContext(r.Context(), "Failed to audit report export", "error", err)
	}
}
