package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	LogFormat      string
	TMDBAPIKey     string
	TMDBReadToken  string
	TMDBBaseURL    string
	TMDBLanguage   string
	TMDBTimeout    time.Duration
	TMDBRateLimit  float64
	TMDBRateBurst  int
	CacheTTL       time.Duration
	RedisURL       string
	ResolveTimeout time.Duration
	HTTPRateLimit  float64
	HTTPRateBurst  int
	OTLPEndpoint   string
	TraceSample    float64
	TrustedProxies []string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		TMDBAPIKey:     strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBReadToken:  strings.TrimSpace(os.Getenv("TMDB_READ_TOKEN")),
		TMDBBaseURL:    getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBLanguage:   getEnv("TMDB_DEFAULT_LANGUAGE", ""),
		TMDBTimeout:    time.Duration(getEnvInt("TMDB_TIMEOUT_SECONDS", 8)) * time.Second,
		TMDBRateLimit:  float64(getEnvInt("TMDB_RATE_LIMIT_RPS", 40)),
		TMDBRateBurst:  getEnvInt("TMDB_RATE_LIMIT_BURST", 20),
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		RedisURL:       getEnv("REDIS_URL", ""),
		ResolveTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 20)) * time.Second,
		HTTPRateLimit:  float64(getEnvInt("HTTP_RATE_LIMIT_RPS", 50)),
		HTTPRateBurst:  getEnvInt("HTTP_RATE_LIMIT_BURST", 100),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSample:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}
}

// HasTMDBCredentials reports whether the remote catalog can be queried.
func (c Config) HasTMDBCredentials() bool {
	return c.TMDBAPIKey != "" || c.TMDBReadToken != ""
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
