// Package http exposes the treasury over a JSON API: ledger CRUD, the
// directory of members and activities, dashboard aggregates, the balance
// forecast and the spreadsheet report download.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"treasury/internal/log"
	"treasury/internal/services"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeySession   contextKey = "session"

	sessionTTL = 12 * time.Hour
)

type Server struct {
	http.Server

	ledger    *services.LedgerService
	dashboard *services.DashboardService
	auth      *services.AuthService
	registry  Registry

	sessions     *sessionStore
	shutdownOnce sync.Once
}

// Registry is the category/settings/audit surface the admin handlers need.
type Registry interface {
	CategoryRegistry
	DirectoryStore
	SettingsStore
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, dashboard *services.DashboardService, auth *services.AuthService, registry Registry) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:    ledger,
		dashboard: dashboard,
		auth:      auth,
		registry:  registry,
		sessions:  newSessionStore(sessionTTL),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/login", s.withMiddleware(s.handleLogin, false))

	// Ledger
	mux.HandleFunc("/api/incomes", s.withMiddleware(s.handleIncomes, true))
	mux.HandleFunc("/api/incomes/", s.withMiddleware(s.handleIncomeByID, true))
	mux.HandleFunc("/api/expenses", s.withMiddleware(s.handleExpenses, true))
	mux.HandleFunc("/api/expenses/", s.withMiddleware(s.handleExpenseByID, true))

	// Aggregation and forecast
	mux.HandleFunc("/api/dashboard", s.withMiddleware(s.handleDashboard, true))
	mux.HandleFunc("/api/period-summary", s.withMiddleware(s.handlePeriodSummary, true))
	mux.HandleFunc("/api/category-summary", s.withMiddleware(s.handleCategorySummary, true))
	mux.HandleFunc("/api/balance-series", s.withMiddleware(s.handleBalanceSeries, true))
	mux.HandleFunc("/api/forecast", s.withMiddleware(s.handleForecast, true))
	mux.HandleFunc("/api/report.xlsx", s.withMiddleware(s.handleReportDownload, true))

	// Directory
	mux.HandleFunc("/api/members", s.withMiddleware(s.handleMembers, true))
	mux.HandleFunc("/api/members/", s.withMiddleware(s.handleMemberByID, true))
	mux.HandleFunc("/api/activities", s.withMiddleware(s.handleActivities, true))
	mux.HandleFunc("/api/activities/", s.withMiddleware(s.handleActivityByID, true))

	// Administration
	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories, true))
	mux.HandleFunc("/api/categories/", s.withMiddleware(s.handleCategoryByID, true))
	mux.HandleFunc("/api/settings", s.withMiddleware(s.handleSettings, true))
	mux.HandleFunc("/api/audit-log", s.withMiddleware(s.handleAuditLog, true))
	mux.HandleFunc("/api/users", s.withMiddleware(s.handleUsers, true))
	mux.HandleFunc("/api/users/", s.withMiddleware(s.handleUserByID, true))

	return s
}

// Shutdown stops the session reaper and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.sessions.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request id, logging, security headers and, when
// authenticated is set, bearer-token session resolution.
func (s *Server) withMiddleware(next http.HandlerFunc, authenticated bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if authenticated {
			sess, ok := s.sessions.resolve(r.Header.Get("Authorization"))
			if !ok {
				httpError(w, http.StatusUnauthorized, "missing or expired session token")
				return
			}
			ctx = context.WithValue(ctx, contextKeySession, sess)
			r = r.WithContext(ctx)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// sessionFromContext returns the authenticated session, or a zero session
// for unauthenticated routes.
func sessionFromContext(ctx context.Context) services.Session {
	if sess, ok := ctx.Value(contextKeySession).(services.Session); ok {
		return sess
	}
	return services.Session{}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
