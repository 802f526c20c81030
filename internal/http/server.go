package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"stockflow/internal/cache"
	"stockflow/internal/core"
	"stockflow/internal/log"
	"stockflow/internal/services"
	"stockflow/internal/views"
	appweb "stockflow/web"
)

// requestTimeout bounds store work done on behalf of one request.
const requestTimeout = 7 * time.Second

// Options configures NewServer. The zero value is usable.
type Options struct {
	Currency       string
	AllowedOrigins []string
	Logger         *log.Logger
	CacheTTL       time.Duration
}

type Server struct {
	http.Server
	svc         *services.InventoryService
	templates   *template.Template
	money       views.Money
	logger      *log.Logger
	requests    *log.RequestLogger
	rateLimiter *rateLimiter
	metrics     securityMetrics

	// Aggregates are cached until the next write or TTL expiry.
	summaryCache  *cache.LRUCache[core.Summary]
	cashflowCache *cache.LRUCache[[]core.CashflowBucket]
	categoryCache *cache.LRUCache[[]core.CategoryBucket]
	periodCache   *cache.LRUCache[[]string]
	caches        *cache.Manager
	fills         singleflight.Group
	dataVersion   atomic.Uint64

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *services.InventoryService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	m, ok := views.NewMoney(opts.Currency)
	if !ok {
		logger.Warn("Unknown currency, using default", "currency", opts.Currency, "default", views.DefaultCurrency)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	router := chi.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:           svc,
		money:         m,
		logger:        logger,
		requests:      log.NewRequestLogger(logger),
		rateLimiter:   newRateLimiter(),
		summaryCache:  cache.NewLRUCache[core.Summary](1, ttl),
		cashflowCache: cache.NewLRUCache[[]core.CashflowBucket](4, ttl),
		categoryCache: cache.NewLRUCache[[]core.CategoryBucket](64, ttl),
		periodCache:   cache.NewLRUCache[[]string](4, ttl),
		caches:        cache.NewManager(),
	}
	for _, c := range []cache.Cleaner{s.summaryCache, s.cashflowCache, s.categoryCache, s.periodCache} {
		s.caches.Register(c)
	}
	s.caches.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	router.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Current-URL"},
			ExposedHeaders: []string{"HX-Trigger"},
			MaxAge:         300,
		}))
	}

	router.Get("/healthz", handleHealth)
	router.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		router.Handle("/static/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	router.Group(func(r chi.Router) {
		r.Use(s.withSecurityHeaders)

		r.Get("/", s.handleDashboard)
		r.Get("/inventory", s.handleInventory)

		r.Route("/ui", func(r chi.Router) {
			r.Post("/items", s.handleCreateItemForm)
			r.Post("/expenses", s.handleCreateExpenseForm)
			r.Post("/records/{id}/sell", s.handleSellForm)
			r.Post("/records/{id}/unsell", s.handleUnsellForm)
			r.Post("/records/{id}/delete", s.handleDeleteForm)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/records", s.handleListRecords)
			r.Post("/records", s.handleSaveRecord)
			r.Put("/records", s.handleSaveRecord)
			r.Get("/records/{id}", s.handleGetRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)
			r.Post("/import", s.handleImport)
			r.Post("/import/csv", s.handleImportCSV)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/summary", s.handleSummary)
			r.Get("/cashflow", s.handleCashflow)
			r.Get("/categories", s.handleCategories)
		})
	})

	return s
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders tags the request with an id and logger, rate limits
// POST requests per client, sets security headers and logs completion.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := s.requests.Start(r, requestID, clientIP)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if detectSuspiciousRequest(r, &s.metrics) {
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.metrics) {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			s.requests.End(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), clientIP)
			return
		}

		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.requests.End(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ready(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
