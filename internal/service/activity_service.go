package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/jobs"
)

// ActivityJobType tags activity writes on the job queue.
const ActivityJobType = "activity.record"

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) []models.ActivityLog
	Create(ctx context.Context, entry models.ActivityLog) error
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
}

type activityQueue interface {
	Enqueue(job jobs.Job) error
	Running() bool
}

// activityRecorder is what other services need to leave a trail.
type activityRecorder interface {
	Record(ctx context.Context, entry models.ActivityLog)
}

// ActivityService records and lists the activity trail.
type ActivityService struct {
	repo      activityRepository
	queue     activityQueue
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewActivityService constructs the service. Writes are synchronous until UseQueue is called.
func NewActivityService(repo activityRepository, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ActivityService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UseQueue routes writes through a worker queue whose handler is HandleJob.
func (s *ActivityService) UseQueue(queue activityQueue) {
	s.queue = queue
}

// Record stores entry, filling its id and timestamp. Failures are logged and never surface to the caller.
func (s *ActivityService) Record(ctx context.Context, entry models.ActivityLog) {
	if s == nil || s.repo == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	if s.queue != nil && s.queue.Running() {
		err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: ActivityJobType, Payload: entry})
		if err == nil {
			return
		}
		s.logger.Warn("activity enqueue failed, writing inline", zap.String("action", entry.Action), zap.Error(err))
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record activity", zap.String("action", entry.Action), zap.Error(err))
	}
}

// HandleJob persists a queued activity entry.
func (s *ActivityService) HandleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ActivityLog)
	if !ok {
		return fmt.Errorf("activity job %s: unexpected payload %T", job.ID, job.Payload)
	}
	return s.repo.Create(ctx, entry)
}

// List returns activity entries newest first.
func (s *ActivityService) List(ctx context.Context, query dto.ActivityQuery) ([]models.ActivityLog, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity query")
	}
	return s.repo.List(ctx, models.ActivityFilter{
		Action: strings.TrimSpace(query.Action),
		Search: query.Search,
		Limit:  query.Limit,
	}), nil
}

// Delete removes one entry.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
	}
	return nil
}

// Clear removes every entry.
func (s *ActivityService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear activity")
	}
	return nil
}

func actorName(claims *models.JWTClaims) string {
	if claims == nil {
		return "anonymous"
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.UserID
}

func actorRole(claims *models.JWTClaims) models.UserRole {
	if claims == nil {
		return ""
	}
	return claims.Role
}
