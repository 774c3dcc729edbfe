package models

import "time"

// SystemMetrics is a lightweight snapshot of process counters for the metrics summary endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SlotOperations           uint64    `json:"slot_operations"`
	SlotErrors               uint64    `json:"slot_errors"`
	AverageSlotDurationMs    float64   `json:"average_slot_duration_ms"`
	FeedbackSubmitted        uint64    `json:"feedback_submitted"`
	FeedbackTransitions      uint64    `json:"feedback_transitions"`
	FeedbackExports          uint64    `json:"feedback_exports"`
	ProfileCacheHitRatio     float64   `json:"profile_cache_hit_ratio"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
