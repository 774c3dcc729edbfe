package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
)

type feedbackAppender interface {
	Append(ctx context.Context, record models.Feedback) (models.Feedback, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, claims *models.JWTClaims) models.Profile
}

// FeedbackSubmissionConfig tunes the submission flow.
type FeedbackSubmissionConfig struct {
	// SimulatedLatency delays every submission, mimicking a slow backend for client testing.
	SimulatedLatency time.Duration
}

// FeedbackSubmissionService validates and stores new feedback.
type FeedbackSubmissionService struct {
	store    feedbackAppender
	profiles profileResolver
	activity activityRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      FeedbackSubmissionConfig
	now      func() time.Time
}

// NewFeedbackSubmissionService constructs the service.
func NewFeedbackSubmissionService(store feedbackAppender, profiles profileResolver, activity activityRecorder, metrics *MetricsService, logger *zap.Logger, cfg FeedbackSubmissionConfig) *FeedbackSubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackSubmissionService{
		store:    store,
		profiles: profiles,
		activity: activity,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidateFeedbackSubmission checks input against the submission rules and returns it normalised
// (trimmed text, defaulted category). Only the first violated rule is reported.
func ValidateFeedbackSubmission(input models.FeedbackSubmission) (models.FeedbackSubmission, error) {
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	subjectLen := utf8.RuneCountInString(input.Subject)
	messageLen := utf8.RuneCountInString(input.Message)

	switch {
	case subjectLen == 0:
		return input, appErrors.ErrSubjectRequired
	case subjectLen < models.FeedbackSubjectMin:
		return input, appErrors.ErrSubjectTooShort
	case messageLen == 0:
		return input, appErrors.ErrMessageRequired
	case messageLen < models.FeedbackMessageMin:
		return input, appErrors.ErrMessageTooShort
	case input.Rating < models.FeedbackRatingMin:
		return input, appErrors.ErrRatingRequired
	case subjectLen > models.FeedbackSubjectMax:
		return input, appErrors.ErrSubjectTooLong
	case messageLen > models.FeedbackMessageMax:
		return input, appErrors.ErrMessageTooLong
	case input.Rating > models.FeedbackRatingMax:
		return input, appErrors.ErrRatingOutOfRange
	}

	if strings.TrimSpace(input.Category) == "" {
		input.Category = string(models.FeedbackCategoryGeneral)
		return input, nil
	}
	category, err := models.ParseFeedbackCategory(input.Category)
	if err != nil {
		return input, appErrors.ErrInvalidCategory
	}
	input.Category = string(category)
	return input, nil
}

// Validate reports the first rule input violates, or nil.
func (s *FeedbackSubmissionService) Validate(input models.FeedbackSubmission) error {
	_, err := ValidateFeedbackSubmission(input)
	return err
}

// Form returns the prefilled submission form for the caller.
func (s *FeedbackSubmissionService) Form(ctx context.Context, actor *models.JWTClaims) dto.FeedbackFormResponse {
	profile := s.profiles.Resolve(ctx, actor)
	categories := make([]dto.CategoryOption, 0, len(models.FeedbackCategories))
	for _, category := range models.FeedbackCategories {
		categories = append(categories, dto.CategoryOption{Value: category, Label: category.Label()})
	}
	return dto.FeedbackFormResponse{
		Name:       profile.Name,
		Email:      profile.Email,
		Categories: categories,
		RatingMin:  models.FeedbackRatingMin,
		RatingMax:  models.FeedbackRatingMax,
		SubjectMax: models.FeedbackSubjectMax,
		MessageMax: models.FeedbackMessageMax,
	}
}

// Submit validates input, attributes it to the caller's profile and appends a pending record.
func (s *FeedbackSubmissionService) Submit(ctx context.Context, input models.FeedbackSubmission, actor *models.JWTClaims) (*models.Feedback, error) {
	normalised, err := ValidateFeedbackSubmission(input)
	if err != nil {
		return nil, err
	}

	if s.cfg.SimulatedLatency > 0 {
		timer := time.NewTimer(s.cfg.SimulatedLatency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "submission cancelled")
		case <-timer.C:
		}
	}

	profile := s.profiles.Resolve(ctx, actor)
	now := s.now().Truncate(time.Millisecond)
	record := models.Feedback{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Category:  models.FeedbackCategory(normalised.Category),
		Subject:   normalised.Subject,
		Message:   normalised.Message,
		Rating:    normalised.Rating,
		UserName:  profile.Name,
		UserEmail: profile.Email,
		Status:    models.FeedbackStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, err := s.store.Append(ctx, record)
	if err != nil {
		s.logger.Error("failed to store feedback", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}

	s.metrics.RecordFeedbackSubmitted(stored.Category)
	if s.activity != nil {
		s.activity.Record(ctx, models.ActivityLog{
			Action:     models.ActivityFeedbackSubmitted,
			Actor:      actorName(actor),
			Role:       actorRole(actor),
			ResourceID: stored.ID,
			Details:    map[string]string{"category": string(stored.Category), "subject": stored.Subject},
		})
	}
	return &stored, nil
}
