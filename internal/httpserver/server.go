// Package httpserver assembles the styleguide HTTP stack: chi routing,
// request logging, CSRF and HTMX middleware, embedded assets and the
// playground routes.
package httpserver

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/catalog"
	custommw "github.com/testudy/rebase/internal/httpserver/middleware"
	"github.com/testudy/rebase/internal/httpserver/ui"
	"github.com/testudy/rebase/internal/observability"
	"github.com/testudy/rebase/internal/playground"
	"github.com/testudy/rebase/internal/templates"
	"github.com/testudy/rebase/public"
)

const (
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultIconsDir       = "svgs"
)

// Config holds runtime options for the styleguide HTTP server.
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	Logger      *zap.Logger
	Environment string

	Catalog *catalog.Catalog
	// StaticFS serves /public/static; nil selects the embedded assets.
	StaticFS fs.FS
	// IconsFS and IconsDir locate the icon files; nil selects the
	// embedded svgs directory.
	IconsFS  fs.FS
	IconsDir string
	// Playground is optional; the playground routes are mounted only when set.
	Playground *playground.Service

	CSRFCookieName   string
	CSRFCookieSecure bool
	CSRFHeaderName   string

	AllowedOrigins []string
}

// ErrNoCatalog is returned when the server is built without a catalog.
var ErrNoCatalog = errors.New("httpserver: catalog is required")

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	if cfg.Catalog == nil {
		return nil, ErrNoCatalog
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	staticContent := cfg.StaticFS
	if staticContent == nil {
		var err error
		if staticContent, err = public.StaticFS(); err != nil {
			return nil, fmt.Errorf("httpserver: embed static: %w", err)
		}
	}
	iconsFS, iconsDir := cfg.IconsFS, cfg.IconsDir
	if iconsFS == nil {
		iconsFS, iconsDir = staticContent, defaultIconsDir
	}
	if iconsDir == "" {
		iconsDir = "."
	}
	iconFiles, err := fs.Sub(iconsFS, iconsDir)
	if err != nil {
		return nil, fmt.Errorf("httpserver: icons dir: %w", err)
	}

	csrfHeader := firstNonEmpty(cfg.CSRFHeaderName, "X-CSRF-Token")
	handlers := ui.New(ui.Options{
		Catalog:    cfg.Catalog,
		IconsFS:    iconsFS,
		IconsDir:   iconsDir,
		Playground: cfg.Playground,
		CSRFHeader: csrfHeader,
	})

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger)
	router.Use(chimw.Recoverer)

	router.Get("/healthz", ui.HealthHandler)
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", custommw.AssetsWithCache(staticContent)))
	router.Handle(ui.IconFilesPath+"/*", http.StripPrefix(ui.IconFilesPath+"/", custommw.AssetsWithCache(iconFiles)))

	requestTimeout := durationOr(cfg.RequestTimeout, defaultRequestTimeout)
	router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(chimw.Timeout(requestTimeout))
		r.Get("/icons", handlers.IconsAPIHandler)
	})

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		HeaderName: csrfHeader,
		FieldName:  templates.CSRFFieldName,
		Secure:     cfg.CSRFCookieSecure,
	}
	pageStack := chi.Chain(
		custommw.Environment(cfg.Environment),
		custommw.HTMX(),
		custommw.CSRF(csrfCfg),
	)
	router.NotFound(pageStack.HandlerFunc(handlers.NotFoundHandler).ServeHTTP)
	router.Group(func(r chi.Router) {
		r.Use(pageStack...)

		if cfg.Playground != nil {
			mountPlaygroundRoutes(r, handlers, requestTimeout)
		}

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))
			r.Get("/", handlers.HomeHandler)
			r.Get("/{slug}", handlers.PageHandler)
		})
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: durationOr(cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  durationOr(cfg.IdleTimeout, defaultIdleTimeout),
	}, nil
}

func mountPlaygroundRoutes(router chi.Router, h *ui.Handlers, timeout time.Duration) {
	router.Route(templates.PlaygroundBase, func(r chi.Router) {
		r.Use(custommw.NoStore())

		// The event feed outlives the request timeout.
		r.Get("/{sessionID}/events", h.SessionEventsHandler)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(timeout))
			r.Post("/", h.CreateSessionHandler)
			r.Get("/{sessionID}", h.SessionHandler)
			r.Post("/{sessionID}/open", h.OpenSessionHandler)
			r.Post("/{sessionID}/close", h.CloseSessionHandler)
			r.Post("/{sessionID}/veto", h.VetoSessionHandler)
			r.Post("/{sessionID}/destroy", h.DestroySessionHandler)
			RegisterFragment(r, "/{sessionID}/log", h.SessionLogHandler)
		})
	})
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
