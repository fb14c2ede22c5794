package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arbdash/internal/log"
	"arbdash/internal/middleware/ratelimit"
	"arbdash/internal/middleware/security"
	"arbdash/internal/middleware/trace"
	"arbdash/internal/services"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Settings  *services.SettingsService
	Dashboard *services.DashboardService
	Expenses  *services.ExpenseService

	// Ready checks the storage backend; nil means always ready.
	Ready func(ctx context.Context) error

	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry

	Logger    *log.Logger
	Location  *time.Location
	RateLimit int // write requests per minute per client
}

type Server struct {
	http.Server
	settings  *services.SettingsService
	dashboard *services.DashboardService
	expenses  *services.ExpenseService
	ready     func(ctx context.Context) error
	logger    *log.Logger
	location  *time.Location
	now       func() time.Time
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		settings:         deps.Settings,
		dashboard:        deps.Dashboard,
		expenses:         deps.Expenses,
		ready:            deps.Ready,
		logger:           logger.WithComponent(log.ComponentHTTP),
		location:         loc,
		now:              time.Now,
		started:          time.Now(),
		securityDetector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimit,
			Registerer:        reg,
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings/sheet", s.handleSetSheet)
	mux.HandleFunc("DELETE /api/settings/sheet", s.handleDisconnectSheet)
	mux.HandleFunc("POST /api/month-configs", s.handleUpsertMonthConfig)
	mux.HandleFunc("DELETE /api/month-configs/{year}/{month}", s.handleDeleteMonthConfig)
	mux.HandleFunc("POST /api/sync", s.handleSync)

	mux.HandleFunc("GET /api/operations", s.handleOperations)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/reports", s.handleReport)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	extractIP := s.securityDetector.ExtractClientIP
	tracer := trace.NewMiddleware(extractIP, logger, reg).RouteBy(mux)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitWrites := s.rateLimiter.Middleware(extractIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
	})

	var handler http.Handler = mux
	handler = writesOnly(limitWrites, handler)
	handler = s.securityDetector.Middleware(logger)(handler)
	handler = headers.Middleware(handler)
	handler = log.Middleware(logger, trace.RequestIDFromRequest)(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// writesOnly applies mw to mutating requests; reads bypass it.
func writesOnly(mw func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := mw(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// Shutdown gracefully shuts down the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
