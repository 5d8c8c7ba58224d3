package apihttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"
	"unicode/utf8"

	"catalogstream/catalogsearch/internal/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type SearchService interface {
	Resolve(ctx context.Context, query string, filter domain.KindFilter, page string, language string) domain.SearchAnswer
	EndpointDiagnostics() []domain.EndpointDiagnostics
}

type Server struct {
	search    SearchService
	logger    *slog.Logger
	rateLimit float64
	rateBurst int
	trust     proxyTrust
}

const (
	maxQueryLength     = 500
	searchCacheControl = "s-maxage=60, stale-while-revalidate=600"
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit sets the inbound token bucket for API routes.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 {
			s.rateLimit = rps
		}
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

// WithTrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
// headers identify the client. Without it the peer address is the client.
func WithTrustedProxies(prefixes []netip.Prefix) ServerOption {
	return func(s *Server) {
		s.trust = proxyTrust{prefixes: append([]netip.Prefix(nil), prefixes...)}
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search:    searchService,
		logger:    slog.Default(),
		rateLimit: 50,
		rateBurst: 100,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/search/providers/health", s.handleProvidersHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, s.trust, mux), "catalog-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return requestIDMiddleware(recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateLimit, s.rateBurst, s.trust, metricsMiddleware(traced))))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/search" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	params := r.URL.Query()
	query := params.Get("q")
	if strings.TrimSpace(query) == "" {
		query = params.Get("query")
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}
	filter := domain.ParseKindFilter(params.Get("type"))
	page := strings.TrimSpace(params.Get("page"))
	if page == "" {
		page = "1"
	}
	language := strings.TrimSpace(params.Get("language"))

	startedAt := time.Now()
	answer := s.search.Resolve(r.Context(), query, filter, page, language)
	if answer.Provenance == domain.ProvenanceTooShort {
		writeError(w, http.StatusBadRequest, "invalid_request", "Query too short")
		return
	}

	s.logger.Info("search resolved",
		slog.String("query", truncate(answer.NormalizedQuery, 80)),
		slog.String("appliedQuery", truncate(answer.AppliedQuery, 80)),
		slog.String("type", string(filter)),
		slog.String("provenance", string(answer.Provenance)),
		slog.Int("items", len(answer.Items)),
		slog.Bool("usedFallback", answer.UsedFallback),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)

	w.Header().Set("Cache-Control", searchCacheControl)
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/search/providers/health" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.search.EndpointDiagnostics(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
