package service

import (
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

// ApplyFeedbackQuery filters and orders records without touching the input slice.
// All filters must match; an empty filter returns every record. Records comparing equal on the
// sort key are ordered by id in the same direction.
func ApplyFeedbackQuery(records []models.Feedback, filter models.FeedbackFilter, order models.FeedbackSort) []models.Feedback {
	search := strings.ToLower(filter.Search)

	result := make([]models.Feedback, 0, len(records))
	for _, record := range records {
		if filter.Category != nil && record.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		if filter.Rating != nil && record.Rating != *filter.Rating {
			continue
		}
		if search != "" && !feedbackMatches(record, search) {
			continue
		}
		result = append(result, record)
	}

	if !order.Key.Valid() {
		order.Key = models.DefaultFeedbackSort.Key
	}
	desc := order.Direction != models.SortAsc
	sort.SliceStable(result, func(i, j int) bool {
		cmp := compareFeedback(result[i], result[j], order.Key)
		if cmp == 0 {
			cmp = compareIDs(result[i].ID, result[j].ID)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return result
}

// ComputeFeedbackStatistics counts records per status and averages the rating to one decimal.
func ComputeFeedbackStatistics(records []models.Feedback) models.FeedbackStatistics {
	stats := models.FeedbackStatistics{Total: len(records)}
	if len(records) == 0 {
		return stats
	}
	sum := 0
	for _, record := range records {
		sum += record.Rating
		switch record.Status {
		case models.FeedbackStatusPending:
			stats.Pending++
		case models.FeedbackStatusReviewed:
			stats.Reviewed++
		case models.FeedbackStatusResolved:
			stats.Resolved++
		}
	}
	stats.AverageRating = math.Round(float64(sum)/float64(len(records))*10) / 10
	return stats
}

func feedbackMatches(record models.Feedback, search string) bool {
	for _, field := range []string{record.Subject, record.Message, record.UserName, record.UserEmail} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func compareFeedback(a, b models.Feedback, key models.FeedbackSortKey) int {
	switch key {
	case models.FeedbackSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case models.FeedbackSortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case models.FeedbackSortRating:
		return a.Rating - b.Rating
	case models.FeedbackSortUserName:
		return strings.Compare(a.UserName, b.UserName)
	case models.FeedbackSortUserEmail:
		return strings.Compare(a.UserEmail, b.UserEmail)
	case models.FeedbackSortSubject:
		return strings.Compare(a.Subject, b.Subject)
	case models.FeedbackSortCategory:
		return strings.Compare(string(a.Category), string(b.Category))
	case models.FeedbackSortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return 0
}

// compareIDs orders numeric ids numerically and falls back to byte order otherwise.
func compareIDs(a, b string) int {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
