package dto

import "time"

// MetricsSnapshot summarises runtime counters for quick inspection.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	GatewayRequests          uint64    `json:"gatewayRequests"`
	GatewayFailures          uint64    `json:"gatewayFailures"`
	AverageGatewayDurationMs float64   `json:"averageGatewayDurationMs"`
	StaleResponsesDiscarded  uint64    `json:"staleResponsesDiscarded"`
	ActiveSessions           int       `json:"activeSessions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
