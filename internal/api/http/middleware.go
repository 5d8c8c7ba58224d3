package apihttp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"catalogstream/catalogsearch/internal/metrics"
)

const (
	requestIDHeader   = "X-Request-ID"
	clientLimiterIdle = 10 * time.Minute
)

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// requestIDMiddleware keeps a sane inbound X-Request-ID or mints one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func loggingMiddleware(logger *slog.Logger, trust proxyTrust, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		attrs := []slog.Attr{
			slog.String("requestId", RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("route", normalizeRoute(r.URL.Path)),
			slog.Int("status", rw.status),
			slog.Int("bytes", rw.size),
			slog.Int64("durationMs", time.Since(start).Milliseconds()),
			slog.String("clientIP", trust.clientIP(r)),
		}
		if q := r.URL.Query().Get("q"); q != "" {
			attrs = append(attrs, slog.String("q", truncate(q, 80)))
		}
		logger.LogAttrs(r.Context(), pickRequestLogLevel(r.URL.Path, rw.status), "http request", attrs...)
	})
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			logger.Error("panic recovered",
				slog.Any("error", recovered),
				slog.String("requestId", RequestID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := normalizeRoute(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func normalizeRoute(path string) string {
	switch {
	case path == "/health" || path == "/metrics" || path == "/api/search":
		return path
	case strings.HasPrefix(path, "/api/search/providers"):
		return "/api/search/providers"
	default:
		return "/other"
	}
}

func pickRequestLogLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case path == "/health" || path == "/metrics":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// proxyTrust decides whose forwarding headers are believed.
type proxyTrust struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies parses CIDRs or bare addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (p proxyTrust) trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the peer address unless the peer is a trusted proxy, in which
// case it is the nearest untrusted hop of X-Forwarded-For, then X-Real-IP.
func (p proxyTrust) clientIP(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		remote = host
	}
	peer, err := netip.ParseAddr(remote)
	if err != nil || !p.trusts(peer) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !p.trusts(hop) {
				return hop.Unmap().String()
			}
		}
	}
	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}
	return remote
}

// truncate cuts value to at most limit runes.
func truncate(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client address.
type clientLimiters struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*clientLimiter
	sweptAt time.Time
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

func (c *clientLimiters) allow(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.sweptAt) > clientLimiterIdle {
		for k, entry := range c.clients {
			if now.Sub(entry.lastSeen) > clientLimiterIdle {
				delete(c.clients, k)
			}
		}
		c.sweptAt = now
	}

	entry, ok := c.clients[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// rateLimitMiddleware throttles API routes per client. Requests over the
// limit receive HTTP 429.
func rateLimitMiddleware(rps float64, burst int, trust proxyTrust, next http.Handler) http.Handler {
	limiters := newClientLimiters(rps, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if !limiters.allow(trust.clientIP(r), time.Now()) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
