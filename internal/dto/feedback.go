package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

// filterAll is the sentinel a client sends to disable one filter dimension.
const filterAll = "all"

// SubmitFeedbackRequest is the body of POST /feedback. Business rules are checked by the service so
// that only the first failing rule is reported.
type SubmitFeedbackRequest struct {
	Category string `json:"category"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Rating   int    `json:"rating"`
}

// ToSubmission maps the request onto the raw submission.
func (r SubmitFeedbackRequest) ToSubmission() models.FeedbackSubmission {
	return models.FeedbackSubmission{
		Category: r.Category,
		Subject:  r.Subject,
		Message:  r.Message,
		Rating:   r.Rating,
	}
}

// FeedbackListQuery captures listing and export query parameters.
type FeedbackListQuery struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Rating   string `form:"rating"`
	Search   string `form:"search"`
	Sort     string `form:"sort"`
	Order    string `form:"order"`
}

// Criteria converts the query into a filter and ordering. Empty values and "all" disable a filter.
func (q FeedbackListQuery) Criteria() (models.FeedbackFilter, models.FeedbackSort, error) {
	var filter models.FeedbackFilter
	order := models.DefaultFeedbackSort

	if v := strings.TrimSpace(q.Category); v != "" && !strings.EqualFold(v, filterAll) {
		category, err := models.ParseFeedbackCategory(v)
		if err != nil {
			return filter, order, err
		}
		filter.Category = &category
	}
	if v := strings.TrimSpace(q.Status); v != "" && !strings.EqualFold(v, filterAll) {
		status, err := models.ParseFeedbackStatus(v)
		if err != nil {
			return filter, order, err
		}
		filter.Status = &status
	}
	if v := strings.TrimSpace(q.Rating); v != "" && !strings.EqualFold(v, filterAll) {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < models.FeedbackRatingMin || rating > models.FeedbackRatingMax {
			return filter, order, fmt.Errorf("rating must be between %d and %d", models.FeedbackRatingMin, models.FeedbackRatingMax)
		}
		filter.Rating = &rating
	}
	filter.Search = q.Search

	if v := strings.TrimSpace(q.Sort); v != "" {
		key := models.FeedbackSortKey(v)
		if !key.Valid() {
			return filter, order, fmt.Errorf("unsupported sort key %q", v)
		}
		order.Key = key
	}
	switch strings.ToLower(strings.TrimSpace(q.Order)) {
	case "":
	case string(models.SortAsc):
		order.Direction = models.SortAsc
	case string(models.SortDesc):
		order.Direction = models.SortDesc
	default:
		return filter, order, fmt.Errorf("order must be asc or desc")
	}
	return filter, order, nil
}

// ExportQuery selects the export encoding on top of the listing criteria.
type ExportQuery struct {
	FeedbackListQuery
	Format string `form:"format"`
}

// ExportFormat returns the requested format, json by default.
func (q ExportQuery) ExportFormat() (models.ExportFormat, error) {
	raw := strings.ToLower(strings.TrimSpace(q.Format))
	if raw == "" {
		return models.ExportFormatJSON, nil
	}
	format := models.ExportFormat(raw)
	if !format.Valid() {
		return "", fmt.Errorf("unsupported export format %q", q.Format)
	}
	return format, nil
}

// UpdateFeedbackStatusRequest is the body of PATCH /feedback/:id/status.
type UpdateFeedbackStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// FeedbackListResponse is the management view: filtered items plus statistics over everything.
type FeedbackListResponse struct {
	Items      []models.Feedback         `json:"items"`
	Statistics models.FeedbackStatistics `json:"statistics"`
}

// CategoryOption is one choice of the category picker.
type CategoryOption struct {
	Value models.FeedbackCategory `json:"value"`
	Label string                  `json:"label"`
}

// FeedbackFormResponse prefills the submission form.
type FeedbackFormResponse struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Categories []CategoryOption `json:"categories"`
	RatingMin  int              `json:"ratingMin"`
	RatingMax  int              `json:"ratingMax"`
	SubjectMax int              `json:"subjectMax"`
	MessageMax int              `json:"messageMax"`
}

// ExportLinkResponse describes a stored export artifact and its signed download URL.
type ExportLinkResponse struct {
	ID        string              `json:"id"`
	Filename  string              `json:"filename"`
	Format    models.ExportFormat `json:"format"`
	Count     int                 `json:"count"`
	URL       string              `json:"url"`
	ExpiresAt time.Time           `json:"expiresAt"`
}
