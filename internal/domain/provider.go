package domain

import "time"

// EndpointDiagnostics reports the health of one provider endpoint.
type EndpointDiagnostics struct {
	Name                string     `json:"name"`
	Enabled             bool       `json:"enabled"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	BlockedUntil        *time.Time `json:"blockedUntil,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	LastLatencyMS       int64      `json:"lastLatencyMs,omitempty"`
	LastTimeout         bool       `json:"lastTimeout,omitempty"`
	LastQuery           string     `json:"lastQuery,omitempty"`
	TotalRequests       int64      `json:"totalRequests,omitempty"`
	TotalFailures       int64      `json:"totalFailures,omitempty"`
	TimeoutCount        int64      `json:"timeoutCount,omitempty"`
}
