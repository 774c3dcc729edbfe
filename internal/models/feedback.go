package models

import (
	"fmt"
	"strings"
	"time"
)

// FeedbackCategory classifies a feedback entry.
type FeedbackCategory string

const (
	FeedbackCategoryBug         FeedbackCategory = "bug"
	FeedbackCategoryFeature     FeedbackCategory = "feature"
	FeedbackCategoryGeneral     FeedbackCategory = "general"
	FeedbackCategoryUI          FeedbackCategory = "ui"
	FeedbackCategoryPerformance FeedbackCategory = "performance"
)

// FeedbackCategories lists every category in display order.
var FeedbackCategories = []FeedbackCategory{
	FeedbackCategoryBug,
	FeedbackCategoryFeature,
	FeedbackCategoryGeneral,
	FeedbackCategoryUI,
	FeedbackCategoryPerformance,
}

// Valid reports whether c is a known category.
func (c FeedbackCategory) Valid() bool {
	switch c {
	case FeedbackCategoryBug, FeedbackCategoryFeature, FeedbackCategoryGeneral, FeedbackCategoryUI, FeedbackCategoryPerformance:
		return true
	}
	return false
}

// Label is the human readable category name used in forms and exports.
func (c FeedbackCategory) Label() string {
	switch c {
	case FeedbackCategoryBug:
		return "Bug Report"
	case FeedbackCategoryFeature:
		return "Feature Request"
	case FeedbackCategoryGeneral:
		return "General Feedback"
	case FeedbackCategoryUI:
		return "UI/UX"
	case FeedbackCategoryPerformance:
		return "Performance"
	}
	return string(c)
}

// ParseFeedbackCategory normalises raw input into a category.
func ParseFeedbackCategory(raw string) (FeedbackCategory, error) {
	c := FeedbackCategory(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown feedback category %q", raw)
	}
	return c, nil
}

// FeedbackStatus is the review state of a feedback entry.
type FeedbackStatus string

const (
	FeedbackStatusPending  FeedbackStatus = "pending"
	FeedbackStatusReviewed FeedbackStatus = "reviewed"
	FeedbackStatusResolved FeedbackStatus = "resolved"
)

// FeedbackStatuses lists every status in lifecycle order.
var FeedbackStatuses = []FeedbackStatus{
	FeedbackStatusPending,
	FeedbackStatusReviewed,
	FeedbackStatusResolved,
}

// Valid reports whether s is a known status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackStatusPending, FeedbackStatusReviewed, FeedbackStatusResolved:
		return true
	}
	return false
}

// CanTransitionTo encodes the admin state machine:
// pending->reviewed, reviewed->resolved, and reviewed|resolved->pending as a reset.
func (s FeedbackStatus) CanTransitionTo(next FeedbackStatus) bool {
	switch s {
	case FeedbackStatusPending:
		return next == FeedbackStatusReviewed
	case FeedbackStatusReviewed:
		return next == FeedbackStatusResolved || next == FeedbackStatusPending
	case FeedbackStatusResolved:
		return next == FeedbackStatusPending
	}
	return false
}

// ParseFeedbackStatus normalises raw input into a status.
func ParseFeedbackStatus(raw string) (FeedbackStatus, error) {
	s := FeedbackStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown feedback status %q", raw)
	}
	return s, nil
}

// Feedback rating bounds.
const (
	FeedbackRatingMin = 1
	FeedbackRatingMax = 5
)

// Feedback text bounds, measured in characters after trimming.
const (
	FeedbackSubjectMin = 5
	FeedbackSubjectMax = 100
	FeedbackMessageMin = 10
	FeedbackMessageMax = 1000
)

// Feedback is one user-submitted entry. The JSON shape is the persisted slot format.
type Feedback struct {
	ID        string           `json:"id"`
	Category  FeedbackCategory `json:"category"`
	Subject   string           `json:"subject"`
	Message   string           `json:"message"`
	Rating    int              `json:"rating"`
	UserName  string           `json:"userName"`
	UserEmail string           `json:"userEmail"`
	Status    FeedbackStatus   `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Validate checks the stored-record invariants.
func (f Feedback) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("feedback id empty")
	}
	if !f.Category.Valid() {
		return fmt.Errorf("feedback %s: invalid category %q", f.ID, f.Category)
	}
	if !f.Status.Valid() {
		return fmt.Errorf("feedback %s: invalid status %q", f.ID, f.Status)
	}
	if f.Rating < FeedbackRatingMin || f.Rating > FeedbackRatingMax {
		return fmt.Errorf("feedback %s: rating %d out of range", f.ID, f.Rating)
	}
	return nil
}

// FeedbackFilter narrows a feedback listing. Nil pointers and an empty search mean "all".
type FeedbackFilter struct {
	Category *FeedbackCategory
	Status   *FeedbackStatus
	Rating   *int
	Search   string
}

// FeedbackSortKey names a sortable feedback attribute.
type FeedbackSortKey string

const (
	FeedbackSortCreatedAt FeedbackSortKey = "createdAt"
	FeedbackSortUpdatedAt FeedbackSortKey = "updatedAt"
	FeedbackSortUserName  FeedbackSortKey = "userName"
	FeedbackSortUserEmail FeedbackSortKey = "userEmail"
	FeedbackSortRating    FeedbackSortKey = "rating"
	FeedbackSortSubject   FeedbackSortKey = "subject"
	FeedbackSortCategory  FeedbackSortKey = "category"
	FeedbackSortStatus    FeedbackSortKey = "status"
)

// Valid reports whether k is a supported sort key.
func (k FeedbackSortKey) Valid() bool {
	switch k {
	case FeedbackSortCreatedAt, FeedbackSortUpdatedAt, FeedbackSortUserName, FeedbackSortUserEmail,
		FeedbackSortRating, FeedbackSortSubject, FeedbackSortCategory, FeedbackSortStatus:
		return true
	}
	return false
}

// SortDirection orders results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FeedbackSort selects the ordering of a feedback listing.
type FeedbackSort struct {
	Key       FeedbackSortKey
	Direction SortDirection
}

// DefaultFeedbackSort is newest first.
var DefaultFeedbackSort = FeedbackSort{Key: FeedbackSortCreatedAt, Direction: SortDesc}

// FeedbackStatistics aggregates the whole collection.
type FeedbackStatistics struct {
	Total         int     `json:"total"`
	Pending       int     `json:"pending"`
	Reviewed      int     `json:"reviewed"`
	Resolved      int     `json:"resolved"`
	AverageRating float64 `json:"averageRating"`
}

// FeedbackSubmission is the raw form input before validation.
type FeedbackSubmission struct {
	Category string
	Subject  string
	Message  string
	Rating   int
}

// ExportFormat selects the export artifact encoding.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatPDF:
		return true
	}
	return false
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatJSON:
		return "application/json"
	case ExportFormatCSV:
		return "text/csv"
	case ExportFormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}
