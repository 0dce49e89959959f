package http

import (
	"fmt"
	"html/template"
	"io/fs"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/services"
	appweb "spendlog/web"
)

// maxFormBytes bounds request bodies; the forms carry a few short fields.
const maxFormBytes = 64 << 10

// Options configures optional collaborators of a Server.
type Options struct {
	Categories     []string
	CurrencySymbol string
	Logger         *applog.Logger
	// Limiter throttles POST requests per client. Nil disables limiting.
	Limiter *ratelimit.Limiter
	// Rand picks the quote of the page. Nil uses a time-seeded source.
	Rand *rand.Rand
	// Now is the clock for default form dates.
	Now func() time.Time
}

type Server struct {
	http.Server
	svc        *services.LedgerService
	templates  *template.Template
	categories []string
	currency   string
	logger     *applog.Logger
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	now        func() time.Time
	started    time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) (*Server, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		cfg := applog.DefaultConfig()
		cfg.Component = applog.ComponentHTTP
		logger = applog.New(cfg)
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = core.DefaultCategories
	}
	currency := opts.CurrencySymbol
	if currency == "" {
		currency = "₹"
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		svc:        svc,
		templates:  t,
		categories: categories,
		currency:   currency,
		logger:     logger,
		limiter:    opts.Limiter,
		tracer:     trace.NewMiddleware(),
		now:        now,
		started:    time.Now(),
		rng:        rng,
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Handler)
	r.Use(applog.Middleware(logger, trace.FromRequest))
	r.Use(applog.AccessLog(security.ClientIP))
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(chimw.RequestSize(maxFormBytes))
	if s.limiter != nil {
		r.Use(s.limiter.Middleware(security.ClientIP, s.handleRateLimited))
	}

	r.Get("/", s.handleIndex)
	r.Post("/expenses", s.handleSaveExpense)
	r.Post("/expenses/{index}/delete", s.handleDeleteExpense)
	r.Post("/budget", s.handleSetBudget)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ledger", s.handleAPILedger)
		r.Get("/summary", s.handleAPISummary)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) quote() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return core.RandomQuote(s.rng)
}

// Metrics returns request counters collected by the tracing middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
