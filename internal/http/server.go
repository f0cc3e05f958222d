package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"metas/internal/log"
	"metas/internal/metrics"
	"metas/internal/middleware/ratelimit"
	"metas/internal/middleware/security"
	"metas/internal/middleware/trace"
	"metas/internal/services"
	appweb "metas/web"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Deps are the services the HTTP surface exposes. Metrics and Checks are
// optional.
type Deps struct {
	Goals     *services.GoalService
	Escadinha *services.EscadinhaService
	Exports   *services.ExportService
	Quotes    *services.QuoteService
	Metrics   *metrics.Metrics
	Logger    *log.Logger
	Checks    map[string]ReadinessCheck
}

// Options tune the middleware chain.
type Options struct {
	RateLimitRPM int
}

// Server wraps http.Server with the application's routes and middleware.
type Server struct {
	http.Server

	goals     *services.GoalService
	escadinha *services.EscadinhaService
	exports   *services.ExportService
	quotes    *services.QuoteService
	metrics   *metrics.Metrics
	checks    map[string]ReadinessCheck

	logger    *log.Logger
	events    *log.StructuredLogger
	templates *template.Template

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rpm := opts.RateLimitRPM
	if rpm <= 0 {
		rpm = ratelimit.DefaultConfig().RequestsPerMinute
	}

	s := &Server{
		goals:            deps.Goals,
		escadinha:        deps.Escadinha,
		exports:          deps.Exports,
		quotes:           deps.Quotes,
		metrics:          deps.Metrics,
		checks:           deps.Checks,
		logger:           logger,
		events:           log.NewStructuredLogger(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rpm}),
		securityDetector: security.NewDetector(),
		started:          time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/escadinha", http.StatusFound)
	})
	mux.HandleFunc("GET /escadinha", s.handleEscadinhaPage)

	mux.HandleFunc("GET /api/producers", s.handleListProducers)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{producerID}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goals/{producerID}", s.handleSaveGoal)

	mux.HandleFunc("POST /api/escadinha/compute", s.handleComputeEscadinha)
	mux.HandleFunc("GET /api/escadinha", s.handleYearEscadinha)
	mux.HandleFunc("GET /api/escadinha/export", s.handleExportEscadinha)
	mux.HandleFunc("POST /api/escadinha/sync", s.handleSyncEscadinha)
	mux.HandleFunc("GET /api/escadinha/{producerID}", s.handleProducerEscadinha)

	mux.HandleFunc("POST /api/quotes", s.handleCreateQuote)
	mux.HandleFunc("GET /api/quotes/summary", s.handleQuoteSummary)
	mux.HandleFunc("GET /api/quotes/attainment/{producerID}", s.handleAttainment)
}

// middleware wraps the mux, outermost first: tracing and metrics, probe
// detection, security headers, rate limiting.
func (s *Server) middleware(mux http.Handler) http.Handler {
	extractIP := s.securityDetector.ExtractClientIP

	var observer trace.Observer
	if s.metrics != nil {
		observer = s.metrics
	}

	h := s.rateLimiter.Middleware(extractIP, func(w http.ResponseWriter, r *http.Request) {
		if s.metrics != nil {
			s.metrics.RateLimited.Inc()
		}
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, extractIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		writeJSONError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(mux)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.securityDetector.Middleware(func(r *http.Request) {
		if s.metrics != nil {
			s.metrics.Suspicious.Inc()
		}
		s.logger.WarnContext(r.Context(), "Suspicious request",
			log.FieldClientIP, extractIP(r), log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path, log.FieldUserAgent, r.Header.Get("User-Agent"))
	})(h)
	return trace.NewMiddleware(s.logger, extractIP, observer).Middleware(h)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
