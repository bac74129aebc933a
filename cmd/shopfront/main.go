package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/config"
	"finitefield.org/shopfront/internal/httpserver"
	"finitefield.org/shopfront/internal/observability"
	"finitefield.org/shopfront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	sessions, err := buildSessions(cfg, logger)
	if err != nil {
		logger.Fatal("init sessions", zap.Error(err))
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Addr,
		BasePath:         cfg.Admin.BasePath,
		LoginPath:        cfg.Admin.LoginPath,
		Environment:      cfg.Server.Environment,
		Logger:           logger,
		Catalog:          buildCatalog(cfg, logger),
		Sessions:         sessions,
		CSRFCookieName:   cfg.Session.CSRFCookie,
		CSRFCookieSecure: cfg.Session.CookieSecure,
		CSRFHeaderName:   cfg.Session.CSRFHeader,
		DefaultLanguage:  cfg.Locale.Default,
		Languages:        cfg.Locale.Supported,
		Currency:         cfg.Catalog.CurrencySymbol,
		FallbackImage:    cfg.Catalog.FallbackImage,
		MaxUploadBytes:   cfg.Catalog.MaxUploadBytes,
		RequestTimeout:   cfg.Server.RequestTimeout,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
	})
	if err != nil {
		logger.Fatal("init http server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("shopfront listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("admin_base_path", cfg.Admin.BasePath),
		zap.String("environment", cfg.Server.Environment),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}

func buildCatalog(cfg config.Config, logger *zap.Logger) catalog.Service {
	if cfg.Backend.URL == "" {
		logger.Warn("SHOPFRONT_BACKEND_URL not set; using in-memory demo catalog")
		return catalog.NewDemoService()
	}

	client := &http.Client{
		Timeout: cfg.Backend.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	var opts []catalog.HTTPOption
	if cfg.Backend.AssetURL != "" {
		opts = append(opts, catalog.WithAssetBase(cfg.Backend.AssetURL))
	}
	service, err := catalog.NewHTTPService(cfg.Backend.URL, client, opts...)
	if err != nil {
		logger.Fatal("init catalog backend", zap.Error(err))
	}
	logger.Info("catalog backend configured",
		zap.String("url", cfg.Backend.URL),
		zap.String("asset_url", cfg.Backend.AssetURL),
	)
	return service
}

func buildSessions(cfg config.Config, logger *zap.Logger) (*session.Manager, error) {
	hashKey := cfg.Session.HashKey
	if len(hashKey) == 0 {
		logger.Warn("SHOPFRONT_SESSION_HASH_KEY not set; generating an ephemeral key")
		hashKey = securecookie.GenerateRandomKey(32)
	}
	return session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      hashKey,
		BlockKey:     cfg.Session.BlockKey,
		CookieSecure: cfg.Session.CookieSecure,
	})
}
