package models

import "time"

// Activity actions recorded by the service.
const (
	ActivityLogin                 = "LOGIN"
	ActivityFeedbackSubmitted     = "FEEDBACK_SUBMITTED"
	ActivityFeedbackStatusChanged = "FEEDBACK_STATUS_CHANGED"
	ActivityFeedbackExported      = "FEEDBACK_EXPORTED"
	ActivityProfileUpdated        = "PROFILE_UPDATED"
)

// ActivityLog is one entry of the activity trail, persisted newest first.
type ActivityLog struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	Role       UserRole          `json:"role,omitempty"`
	ResourceID string            `json:"resourceId,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ActivityFilter narrows the activity listing.
type ActivityFilter struct {
	Action string
	Search string
	Limit  int
}
