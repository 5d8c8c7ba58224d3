package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"catalogstream/catalogsearch/internal/providers/tmdb"
	"catalogstream/catalogsearch/internal/search"
)

const localCacheEntries = 2048

func NewLogger(w io.Writer, levelRaw, formatRaw string) *slog.Logger {
	level := ParseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}

func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildCache returns an in-process cache, tiered over Redis when REDIS_URL
// points at a reachable server.
func BuildCache(ctx context.Context, cfg Config, logger *slog.Logger) tmdb.Cache {
	local := tmdb.NewMemoryCache(localCacheEntries)
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return local
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return local
	}
	shared := tmdb.NewRedisCache(redis.NewClient(redisOpts))
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := shared.Ping(pingCtx); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		return local
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return tmdb.NewTieredCache(local, shared)
}

func BuildTMDBClient(cfg Config, cache tmdb.Cache, logger *slog.Logger) *tmdb.Client {
	client := tmdb.NewClient(tmdb.Config{
		APIKey:    cfg.TMDBAPIKey,
		ReadToken: cfg.TMDBReadToken,
		BaseURL:   cfg.TMDBBaseURL,
		Language:  cfg.TMDBLanguage,
		Client:    &http.Client{Timeout: cfg.TMDBTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Cache:     cache,
		CacheTTL:  cfg.CacheTTL,
		RateLimit: cfg.TMDBRateLimit,
		RateBurst: cfg.TMDBRateBurst,
	})
	if !client.Enabled() {
		logger.Info("tmdb credentials not configured, serving the local corpus only")
	}
	return client
}

// BuildSearchService wires the TMDB client, its cache and the resolver.
func BuildSearchService(ctx context.Context, cfg Config, logger *slog.Logger) *search.Service {
	client := BuildTMDBClient(cfg, BuildCache(ctx, cfg, logger), logger)
	return search.NewService(client,
		search.WithLogger(logger),
		search.WithCallTimeout(cfg.TMDBTimeout),
		search.WithResolveTimeout(cfg.ResolveTimeout),
	)
}
