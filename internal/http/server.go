package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/connectivity"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/store"
	"fintrack/internal/voice"
	appweb "fintrack/web"
)

const viewCacheTTL = 10 * time.Minute

// Dependencies are the collaborators the server renders and mutates.
type Dependencies struct {
	Store        *store.Store
	Banner       *connectivity.Banner
	Limiter      *ratelimit.Limiter
	Logger       *log.Logger
	VoiceEnabled bool
	Voice        voice.Settings
	CacheSize    int

	// Now and NewID default to time.Now and uuid strings.
	Now   func() time.Time
	NewID func() string
}

// Server serves the tracker page and its JSON API.
type Server struct {
	http.Server
	templates *template.Template

	store         *store.Store
	banner        *connectivity.Banner
	limiter       *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware
	logger        *log.Logger
	voiceEnabled  bool
	voiceSettings voice.Settings
	now           func() time.Time
	newID         func() string

	// Derived views memoised per store revision
	summaryCache *cache.LRUCache[core.Totals]
	chartCache   *cache.LRUCache[core.Chart]
}

// NewServer wires routes and middleware. Template parse failures are logged and
// make the page route answer 500; the API keeps working.
func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	banner := deps.Banner
	if banner == nil {
		banner = connectivity.NewBanner()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	cacheSize := deps.CacheSize
	if cacheSize <= 0 {
		cacheSize = 64
	}
	voiceSettings := deps.Voice
	if voiceSettings.Locale == "" {
		voiceSettings = voice.DefaultSettings()
	}

	s := &Server{
		store:         deps.Store,
		banner:        banner,
		limiter:       limiter,
		detector:      security.NewDetector(logger),
		logger:        logger,
		voiceEnabled:  deps.VoiceEnabled,
		voiceSettings: voiceSettings,
		now:           deps.Now,
		newID:         deps.NewID,
		summaryCache:  cache.NewLRUCache[core.Totals](cacheSize, viewCacheTTL),
		chartCache:    cache.NewLRUCache[core.Chart](cacheSize, viewCacheTTL),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger.WithComponent(log.ComponentTrace))

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)
		r.Get("/entries", s.handleListEntries)
		r.Get("/summary", s.handleSummary)
		r.Get("/chart", s.handleChart)
		r.Get("/voice", s.handleVoiceSettings)
		r.Get("/connectivity", s.handleConnectivity)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit))
			r.Post("/entries", s.handleCreateEntry)
			r.Delete("/entries/{id}", s.handleDeleteEntry)
			r.Post("/voice", s.handleVoice)
			r.Post("/connectivity/dismiss", s.handleDismissBanner)
		})
	})
	return r
}

// Caches returns the view caches so a cache.Manager can expire them.
func (s *Server) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.summaryCache, s.chartCache}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// summary returns totals for the current revision, computing them at most once per revision.
func (s *Server) summary() core.Totals {
	entries, rev := s.store.Snapshot()
	key := strconv.FormatUint(rev, 10)
	if t, ok := s.summaryCache.Get(key); ok {
		return t
	}
	t := core.Summarize(entries)
	s.summaryCache.Set(key, t)
	return t
}

func (s *Server) chart() core.Chart {
	entries, rev := s.store.Snapshot()
	key := strconv.FormatUint(rev, 10)
	if c, ok := s.chartCache.Get(key); ok {
		return c
	}
	c := core.BuildChart(entries)
	s.chartCache.Set(key, c)
	return c
}

// voiceAvailable is false while voice is disabled or the app is offline.
func (s *Server) voiceAvailable() bool {
	return s.voiceEnabled && s.banner.Online()
}
