package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/catalog"
	"github.com/testudy/rebase/internal/config"
	"github.com/testudy/rebase/internal/httpserver"
	"github.com/testudy/rebase/internal/observability"
	"github.com/testudy/rebase/internal/playground"
	"github.com/testudy/rebase/internal/stylesheet"
	"github.com/testudy/rebase/public"
)

const playgroundPage = "modals"

func newServeCmd(cfgFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the styleguide HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides map[string]any
			if addr != "" {
				overrides = map[string]any{"server.address": addr}
			}
			cfg, err := loadConfig(*cfgFile, overrides)
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}

func loadConfig(path string, overrides map[string]any) (config.Config, error) {
	opts := []config.Option{config.WithOverrides(overrides)}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// app is the assembled server and its background services.
type app struct {
	server     *http.Server
	playground *playground.Service
}

func buildApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	cat, err := loadCatalog(cfg.Site.CatalogFile)
	if err != nil {
		return nil, err
	}
	cat = cat.WithSite(cfg.Site.Title)

	sheet, err := loadStylesheet(cfg.Site.StylesheetFile)
	if err != nil {
		return nil, err
	}

	var svc *playground.Service
	if page, err := cat.Page(playgroundPage); err == nil && page.Demo != "" {
		svc, err = playground.NewService(playground.Config{
			Markup:        page.Demo,
			Styles:        sheet,
			Logger:        logger,
			Metrics:       observability.NewModalMetrics(nil, logger),
			MaxSessions:   cfg.Playground.MaxSessions,
			SessionTTL:    cfg.Playground.SessionTTL,
			SweepInterval: cfg.Playground.SweepInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("building playground: %w", err)
		}
	} else {
		logger.Warn("playground disabled: catalog has no modal demo", zap.String("page", playgroundPage))
	}

	serverCfg := httpserver.Config{
		Address:          cfg.Server.Address,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		Logger:           logger,
		Environment:      cfg.Site.Environment,
		Catalog:          cat,
		Playground:       svc,
		CSRFCookieName:   cfg.CSRF.CookieName,
		CSRFCookieSecure: cfg.CSRF.Secure,
		CSRFHeaderName:   cfg.CSRF.HeaderName,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
	}
	if cfg.Site.IconsDir != "" {
		serverCfg.IconsFS = os.DirFS(cfg.Site.IconsDir)
		serverCfg.IconsDir = "."
	}
	srv, err := httpserver.New(serverCfg)
	if err != nil {
		return nil, err
	}
	return &app{server: srv, playground: svc}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func loadStylesheet(path string) (*stylesheet.Sheet, error) {
	if path != "" {
		return stylesheet.Load(path)
	}
	css, err := public.Stylesheet()
	if err != nil {
		return nil, fmt.Errorf("reading embedded stylesheet: %w", err)
	}
	return stylesheet.Parse(string(css))
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	if a.playground != nil {
		go a.playground.Run(runCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("styleguide server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("environment", cfg.Site.Environment),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("styleguide server stopped")
	return nil
}
