package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendwise/internal/analytics"
	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
)

// AuthAPI registers and signs in users.
type AuthAPI interface {
	Register(ctx context.Context, email, password, name, currency string) (services.Session, error)
	Login(ctx context.Context, email, password string) (services.Session, error)
}

// LedgerAPI reads and writes a user's expenses, budgets and bills.
type LedgerAPI interface {
	AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) error
	SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	AddBill(ctx context.Context, b core.Bill) (core.Bill, error)
	ListBills(ctx context.Context, userID int64) ([]core.Bill, error)
}

// AnalyticsAPI computes the dashboard and insights read models.
type AnalyticsAPI interface {
	Dashboard(ctx context.Context, userID int64) (analytics.Dashboard, error)
	Insights(ctx context.Context, userID int64) (analytics.Insights, error)
}

// ChatAPI answers chatbot messages.
type ChatAPI interface {
	Resolve(ctx context.Context, userID int64, message string) (string, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. All are required.
type Deps struct {
	Auth      AuthAPI
	Ledger    LedgerAPI
	Analytics AnalyticsAPI
	Chat      ChatAPI
	DB        Pinger
	Issuer    *auth.Issuer
}

// Options configure the transport.
type Options struct {
	Addr              string
	CORSAllowedOrigin string
	RateLimitPerMin   int
	Logger            *log.Logger
}

// Server is the SpendWise HTTP API.
type Server struct {
	http.Server
	deps        Deps
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	detector    *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options, deps Deps) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		deps:     deps,
		logger:   logger,
		detector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMin,
		}),
		tracer: trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux, opts.CORSAllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	protect := auth.Middleware(s.deps.Issuer, writeInvalidToken)
	private := func(h http.HandlerFunc) http.Handler { return protect(h) }

	// public
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)

	// bearer token required
	mux.Handle("POST /expenses", private(s.handleCreateExpense))
	mux.Handle("GET /expenses", private(s.handleListExpenses))
	mux.Handle("DELETE /expenses/{id}", private(s.handleDeleteExpense))
	mux.Handle("POST /budgets", private(s.handleSetBudget))
	mux.Handle("GET /budgets", private(s.handleListBudgets))
	mux.Handle("POST /bills", private(s.handleCreateBill))
	mux.Handle("GET /bills", private(s.handleListBills))
	mux.Handle("GET /dashboard", private(s.handleDashboard))
	mux.Handle("GET /insights", private(s.handleInsights))
	mux.Handle("POST /chatbot", private(s.handleChatbot))
}

// middleware wraps the mux, outermost first: tracing, security headers,
// probe detection, CORS, then write rate limiting.
func (s *Server) middleware(next http.Handler, corsOrigins string) http.Handler {
	h := s.rateLimiter.Middleware(s.detector.ExtractClientIP, ratelimit.ReadOnly, writeRateLimited)(next)
	h = security.NewCORS(corsOrigins).Middleware(h)
	h = s.detector.Middleware(s.logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.tracer.Middleware(h)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// userID returns the authenticated caller. Routes registered with private
// always have one.
func userID(r *http.Request) int64 {
	return auth.UserID(r.Context())
}
