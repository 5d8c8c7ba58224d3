package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "catalogstream/catalogsearch/internal/api/http"
	"catalogstream/catalogsearch/internal/app"
	"catalogstream/catalogsearch/internal/metrics"
	"catalogstream/catalogsearch/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), telemetry.Options{
		ServiceName: "catalog-search",
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSample,
	})
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "catalog-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("tmdbBaseURL", cfg.TMDBBaseURL),
		slog.String("tmdbLanguage", cfg.TMDBLanguage),
		slog.Bool("hasTMDBCredentials", cfg.HasTMDBCredentials()),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("tracing", cfg.OTLPEndpoint != ""),
		slog.Int("trustedProxies", len(cfg.TrustedProxies)),
		slog.Duration("tmdbTimeout", cfg.TMDBTimeout),
		slog.Duration("resolveTimeout", cfg.ResolveTimeout),
		slog.Duration("cacheTTL", cfg.CacheTTL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trustedProxies, err := apihttp.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.String("error", err.Error()))
		os.Exit(1)
	}

	searchService := app.BuildSearchService(rootCtx, cfg, logger)
	handler := apihttp.NewServer(searchService,
		apihttp.WithLogger(logger),
		apihttp.WithRateLimit(cfg.HTTPRateLimit, cfg.HTTPRateBurst),
		apihttp.WithTrustedProxies(trustedProxies),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ResolveTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("catalog search service started",
		slog.String("addr", cfg.HTTPAddr),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("catalog search service stopped")
}
