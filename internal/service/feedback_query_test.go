package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

func queryFixture() []models.Feedback {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return []models.Feedback{
		{ID: "100", Category: models.FeedbackCategoryBug, Subject: "Crash on save", Message: "App crashes when saving drafts", Rating: 2, UserName: "Alice", UserEmail: "alice@example.com", Status: models.FeedbackStatusPending, CreatedAt: base, UpdatedAt: base},
		{ID: "200", Category: models.FeedbackCategoryFeature, Subject: "Dark mode", Message: "Please add a dark theme option", Rating: 5, UserName: "bob", UserEmail: "bob@example.com", Status: models.FeedbackStatusReviewed, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(3 * time.Hour)},
		{ID: "300", Category: models.FeedbackCategoryUI, Subject: "Tiny buttons", Message: "Buttons are hard to tap on mobile", Rating: 3, UserName: "Carol", UserEmail: "carol@example.com", Status: models.FeedbackStatusResolved, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "400", Category: models.FeedbackCategoryBug, Subject: "Login loop", Message: "Redirects forever after SSO", Rating: 3, UserName: "Dan", UserEmail: "dan@corp.test", Status: models.FeedbackStatusPending, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
}

func ids(records []models.Feedback) []string {
	out := make([]string, len(records))
	for i, record := range records {
		out[i] = record.ID
	}
	return out
}

func TestApplyFeedbackQueryNoFiltersReturnsEverything(t *testing.T) {
	records := queryFixture()
	result := ApplyFeedbackQuery(records, models.FeedbackFilter{}, models.DefaultFeedbackSort)

	require.Len(t, result, len(records))
	assert.Equal(t, []string{"400", "300", "200", "100"}, ids(result))
	assert.Equal(t, "100", records[0].ID, "input must not be reordered")
}

func TestApplyFeedbackQueryFilters(t *testing.T) {
	records := queryFixture()
	bug := models.FeedbackCategoryBug
	pending := models.FeedbackStatusPending
	three := 3

	cases := []struct {
		name   string
		filter models.FeedbackFilter
		want   []string
	}{
		{"rating", models.FeedbackFilter{Rating: &three}, []string{"400", "300"}},
		{"category", models.FeedbackFilter{Category: &bug}, []string{"400", "100"}},
		{"status and rating", models.FeedbackFilter{Status: &pending, Rating: &three}, []string{"400"}},
		{"search subject case insensitive", models.FeedbackFilter{Search: "DARK"}, []string{"200"}},
		{"search email", models.FeedbackFilter{Search: "corp.test"}, []string{"400"}},
		{"search message", models.FeedbackFilter{Search: "mobile"}, []string{"300"}},
		{"no match", models.FeedbackFilter{Search: "nothing like this"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ApplyFeedbackQuery(records, tc.filter, models.DefaultFeedbackSort)
			assert.Equal(t, tc.want, ids(result))
		})
	}
}

func TestApplyFeedbackQuerySearchKeepsWhitespace(t *testing.T) {
	records := queryFixture()

	assert.Equal(t, []string{"100"}, ids(ApplyFeedbackQuery(records, models.FeedbackFilter{Search: "save"}, models.DefaultFeedbackSort)))
	assert.Empty(t, ApplyFeedbackQuery(records, models.FeedbackFilter{Search: "save "}, models.DefaultFeedbackSort))
	assert.Equal(t, []string{"100"}, ids(ApplyFeedbackQuery(records, models.FeedbackFilter{Search: "ON SAVE"}, models.DefaultFeedbackSort)))
}

func TestApplyFeedbackQueryRatingFilterOnlyMatchesExactRating(t *testing.T) {
	three := 3
	for _, record := range ApplyFeedbackQuery(queryFixture(), models.FeedbackFilter{Rating: &three}, models.DefaultFeedbackSort) {
		assert.Equal(t, 3, record.Rating)
	}
}

func TestApplyFeedbackQuerySorting(t *testing.T) {
	records := queryFixture()

	cases := []struct {
		name  string
		order models.FeedbackSort
		want  []string
	}{
		{"created asc ties by id", models.FeedbackSort{Key: models.FeedbackSortCreatedAt, Direction: models.SortAsc}, []string{"100", "200", "300", "400"}},
		{"updated desc", models.FeedbackSort{Key: models.FeedbackSortUpdatedAt, Direction: models.SortDesc}, []string{"200", "400", "300", "100"}},
		{"rating asc", models.FeedbackSort{Key: models.FeedbackSortRating, Direction: models.SortAsc}, []string{"100", "300", "400", "200"}},
		{"user name byte order", models.FeedbackSort{Key: models.FeedbackSortUserName, Direction: models.SortAsc}, []string{"100", "300", "400", "200"}},
		{"category desc", models.FeedbackSort{Key: models.FeedbackSortCategory, Direction: models.SortDesc}, []string{"300", "200", "400", "100"}},
		{"unknown key falls back to createdAt", models.FeedbackSort{Key: "bogus", Direction: models.SortDesc}, []string{"400", "300", "200", "100"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(ApplyFeedbackQuery(records, models.FeedbackFilter{}, tc.order)))
		})
	}
}

func TestCompareIDsNumeric(t *testing.T) {
	assert.Negative(t, compareIDs("99", "100"))
	assert.Positive(t, compareIDs("1714557600001", "1714557600000"))
	assert.Zero(t, compareIDs("abc", "abc"))
}

func TestComputeFeedbackStatistics(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, models.FeedbackStatistics{}, ComputeFeedbackStatistics(nil))
	})

	t.Run("counts and average", func(t *testing.T) {
		stats := ComputeFeedbackStatistics([]models.Feedback{
			{Rating: 5, Status: models.FeedbackStatusPending},
			{Rating: 3, Status: models.FeedbackStatusReviewed},
			{Rating: 4, Status: models.FeedbackStatusPending},
		})
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.Pending)
		assert.Equal(t, 1, stats.Reviewed)
		assert.Equal(t, 0, stats.Resolved)
		assert.Equal(t, 4.0, stats.AverageRating)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		stats := ComputeFeedbackStatistics(queryFixture())
		assert.Equal(t, 3.3, stats.AverageRating)
		assert.Equal(t, stats.Total, stats.Pending+stats.Reviewed+stats.Resolved)
	})
}
