package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/middleware/ratelimit"
	"github.com/EleazarRC/contabilidad-personal/internal/middleware/security"
	"github.com/EleazarRC/contabilidad-personal/internal/middleware/trace"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
)

// Options tunes the middleware stack.
type Options struct {
	Logger         *applog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	started  time.Time
}

// NewServer wires the API routes and middleware around ledger.
func NewServer(addr string, ledger *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	detector := security.NewDetector()
	s := &Server{
		ledger:   ledger,
		logger:   logger,
		detector: detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}),
		tracer:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		started: time.Now(),
	}

	api := http.NewServeMux()
	s.registerAPIRoutes(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/api/", s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(applog.ComponentMiddleware(applog.ComponentLedger)(api)))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
	return s
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleAPIHealth)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/stats/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/stats/annual", s.handleAnnualSummary)
	mux.HandleFunc("GET /api/stats/years", s.handleAvailableYears)
	mux.HandleFunc("GET /api/stats/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/stats/upcoming-forecasts", s.handleUpcomingForecasts)
	mux.HandleFunc("GET /api/stats/daily-balance", s.handleDailyBalance)

	mux.HandleFunc("GET /api/forecasts", s.handleListForecasts)
	mux.HandleFunc("GET /api/forecasts/summary", s.handleForecastSummary)
	mux.HandleFunc("GET /api/forecasts/{id}", s.handleGetForecast)
	mux.HandleFunc("POST /api/forecasts", s.handleCreateForecast)
	mux.HandleFunc("PUT /api/forecasts/{id}", s.handleUpdateForecast)
	mux.HandleFunc("PATCH /api/forecasts/{id}/toggle", s.handleToggleForecast)
	mux.HandleFunc("DELETE /api/forecasts/{id}", s.handleDeleteForecast)

	mux.HandleFunc("GET /api/settings/stats", s.handleDataStats)
	mux.HandleFunc("POST /api/settings/delete-all", s.handleDeleteAll)

	mux.HandleFunc("GET /api/savings", s.handleListSavings)
	mux.HandleFunc("POST /api/savings", s.handleCreateSavings)
	mux.HandleFunc("GET /api/savings/summary", s.handleSavingsSummary)
	mux.HandleFunc("GET /api/savings/{id}", s.handleGetSavings)
	mux.HandleFunc("PUT /api/savings/{id}", s.handleUpdateSavings)
	mux.HandleFunc("DELETE /api/savings/{id}", s.handleDeleteSavings)
	mux.HandleFunc("GET /api/savings/{id}/movements", s.handleListMovements)
	mux.HandleFunc("POST /api/savings/movements", s.handleCreateMovement)
	mux.HandleFunc("DELETE /api/savings/movements/{id}", s.handleDeleteMovement)

	mux.HandleFunc("GET /api/debts", s.handleListDebts)
	mux.HandleFunc("POST /api/debts", s.handleCreateDebt)
	mux.HandleFunc("GET /api/debts/summary", s.handleDebtSummary)
	mux.HandleFunc("GET /api/debts/{id}", s.handleGetDebt)
	mux.HandleFunc("PUT /api/debts/{id}", s.handleUpdateDebt)
	mux.HandleFunc("DELETE /api/debts/{id}", s.handleDeleteDebt)
	mux.HandleFunc("GET /api/debts/{id}/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/debts/payments", s.handleCreatePayment)
	mux.HandleFunc("DELETE /api/debts/payments/{id}", s.handleDeletePayment)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/results", s.handleBudgetResults)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/export/annual", s.handleExportAnnual)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
}

// Shutdown stops accepting requests and releases the middleware goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsResponse struct {
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Requests      trace.Metrics             `json:"requests"`
	RateLimit     ratelimit.Metrics         `json:"rate_limit"`
	Security      security.DetectionMetrics `json:"security"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsResponse{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Requests:      s.tracer.GetMetrics(),
		RateLimit:     s.limiter.GetMetrics(),
		Security:      s.detector.GetMetrics(),
	})
}
