package testutil

import (
	"io/fs"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/catalog"
	"github.com/testudy/rebase/internal/httpserver"
	"github.com/testudy/rebase/internal/playground"
	"github.com/testudy/rebase/internal/stylesheet"
	"github.com/testudy/rebase/public"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithCatalog overrides the page catalog.
func WithCatalog(c *catalog.Catalog) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Catalog = c
	}
}

// WithIcons serves icons from dir in fsys.
func WithIcons(fsys fs.FS, dir string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.IconsFS = fsys
		cfg.IconsDir = dir
	}
}

// WithPlayground wires a custom playground service; nil disables the routes.
func WithPlayground(svc *playground.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Playground = svc
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Logger = logger
	}
}

// WithAllowedOrigins sets the CORS origins of the JSON API.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.AllowedOrigins = origins
	}
}

// NewPlayground builds a playground service over the embedded catalog's
// modal demo and the site stylesheet.
func NewPlayground(t testing.TB, mutate func(*playground.Config)) *playground.Service {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	page, err := cat.Page("modals")
	if err != nil {
		t.Fatalf("modals page: %v", err)
	}
	css, err := public.Stylesheet()
	if err != nil {
		t.Fatalf("stylesheet: %v", err)
	}
	sheet, err := stylesheet.Parse(string(css))
	if err != nil {
		t.Fatalf("parse stylesheet: %v", err)
	}
	cfg := playground.Config{Markup: page.Demo, Styles: sheet}
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := playground.NewService(cfg)
	if err != nil {
		t.Fatalf("playground: %v", err)
	}
	return svc
}

// NewServer constructs an httptest server running the styleguide HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	cfg := httpserver.Config{
		Address:        ":0",
		Catalog:        cat,
		Playground:     NewPlayground(t, nil),
		CSRFCookieName: "csrf_token",
		CSRFHeaderName: "X-CSRF-Token",
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("httpserver: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
