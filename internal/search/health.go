package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/metrics"
)

const (
	endpointFailureThreshold = 3
	endpointBlockBase        = 2 * time.Minute
	endpointBlockMax         = 15 * time.Minute
)

// Provider endpoints tracked for health, in display order.
const (
	endpointSearchMulti   = "search/multi"
	endpointSearchMovie   = "search/movie"
	endpointSearchTV      = "search/tv"
	endpointSearchKeyword = "search/keyword"
	endpointDiscoverMovie = "discover/movie"
	endpointDiscoverTV    = "discover/tv"
)

var knownEndpoints = []string{
	endpointSearchMulti,
	endpointSearchMovie,
	endpointSearchTV,
	endpointSearchKeyword,
	endpointDiscoverMovie,
	endpointDiscoverTV,
}

type endpointHealth struct {
	consecutiveFailures int
	blockedUntil        time.Time
	lastError           string
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	lastLatency         time.Duration
	lastTimeout         bool
	lastQuery           string
	totalRequests       int64
	totalFailures       int64
	timeoutCount        int64
}

func (s *Service) isEndpointBlocked(endpoint string, now time.Time) (bool, time.Time, string) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[endpoint]
	if state == nil {
		return false, time.Time{}, ""
	}
	if state.blockedUntil.IsZero() || now.After(state.blockedUntil) {
		return false, time.Time{}, ""
	}
	return true, state.blockedUntil, state.lastError
}

// statusCoder is implemented by provider errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// isEndpointFault reports whether err says the endpoint itself is unhealthy.
// Cancellation and rejected requests (4xx other than 429) do not.
func isEndpointFault(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var coded statusCoder
	if errors.As(err, &coded) {
		code := coded.HTTPStatus()
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}
	return true
}

// recordEndpointResult updates the endpoint breaker. Only endpoint faults
// extend the failure streak.
func (s *Service) recordEndpointResult(endpoint, query string, err error, latency time.Duration, now time.Time) {
	if err != nil && errors.Is(err, context.Canceled) {
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "canceled").Inc()
		return
	}

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[endpoint]
	if state == nil {
		state = &endpointHealth{}
		s.health[endpoint] = state
	}
	state.totalRequests++
	state.lastQuery = strings.TrimSpace(query)
	if err != nil && !isEndpointFault(err) {
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
		return
	}
	if latency > 0 {
		state.lastLatency = latency
		metrics.ProviderRequestDuration.WithLabelValues(endpoint).Observe(latency.Seconds())
	}
	state.lastTimeout = isTimeoutLikeError(err)
	if state.lastTimeout {
		state.timeoutCount++
	}

	if err == nil {
		state.consecutiveFailures = 0
		state.blockedUntil = time.Time{}
		state.lastError = ""
		state.lastSuccessAt = now
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
		metrics.ProviderAvailable.WithLabelValues(endpoint).Set(1)
		return
	}

	state.consecutiveFailures++
	state.totalFailures++
	state.lastFailureAt = now
	state.lastError = err.Error()

	status := "error"
	if state.lastTimeout {
		status = "timeout"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()

	if state.consecutiveFailures >= endpointFailureThreshold {
		state.blockedUntil = now.Add(exponentialBlockDuration(state.consecutiveFailures))
		metrics.ProviderAvailable.WithLabelValues(endpoint).Set(0)
	}
}

// exponentialBlockDuration returns base × 2^(failures - threshold), capped.
func exponentialBlockDuration(consecutiveFailures int) time.Duration {
	exponent := max(consecutiveFailures-endpointFailureThreshold, 0)
	d := endpointBlockBase
	for i := 0; i < exponent; i++ {
		d *= 2
		if d > endpointBlockMax {
			return endpointBlockMax
		}
	}
	return d
}

func isTimeoutLikeError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "timeout") || strings.Contains(value, "deadline exceeded")
}

// EndpointDiagnostics reports the breaker state of every provider endpoint.
func (s *Service) EndpointDiagnostics() []domain.EndpointDiagnostics {
	enabled := s.providerEnabled()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	items := make([]domain.EndpointDiagnostics, 0, len(knownEndpoints))
	for _, name := range knownEndpoints {
		item := domain.EndpointDiagnostics{Name: name, Enabled: enabled}
		if state := s.health[name]; state != nil {
			item.ConsecutiveFailures = state.consecutiveFailures
			if !state.blockedUntil.IsZero() {
				blockedUntil := state.blockedUntil
				item.BlockedUntil = &blockedUntil
			}
			item.LastError = state.lastError
			if !state.lastSuccessAt.IsZero() {
				lastSuccessAt := state.lastSuccessAt
				item.LastSuccessAt = &lastSuccessAt
			}
			if !state.lastFailureAt.IsZero() {
				lastFailureAt := state.lastFailureAt
				item.LastFailureAt = &lastFailureAt
			}
			item.LastLatencyMS = state.lastLatency.Milliseconds()
			item.LastTimeout = state.lastTimeout
			item.LastQuery = state.lastQuery
			item.TotalRequests = state.totalRequests
			item.TotalFailures = state.totalFailures
			item.TimeoutCount = state.timeoutCount
		}
		items = append(items, item)
	}
	return items
}
