package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

func TestFeedbackListQueryCriteria(t *testing.T) {
	filter, order, err := FeedbackListQuery{Category: "all", Status: "reviewed", Rating: "4", Search: " save ", Sort: "rating", Order: "ASC"}.Criteria()
	require.NoError(t, err)

	assert.Nil(t, filter.Category)
	require.NotNil(t, filter.Status)
	assert.Equal(t, models.FeedbackStatusReviewed, *filter.Status)
	require.NotNil(t, filter.Rating)
	assert.Equal(t, 4, *filter.Rating)
	assert.Equal(t, " save ", filter.Search)
	assert.Equal(t, models.FeedbackSortRating, order.Key)
	assert.Equal(t, models.SortAsc, order.Direction)
}

func TestFeedbackListQueryCriteriaRejectsBadInput(t *testing.T) {
	for name, q := range map[string]FeedbackListQuery{
		"rating":   {Rating: "6"},
		"sort key": {Sort: "priority"},
		"order":    {Order: "sideways"},
	} {
		_, _, err := q.Criteria()
		assert.Error(t, err, name)
	}
}
