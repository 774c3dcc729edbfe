package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	"github.com/noah-isme/feedback-desk-api/internal/repository"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/jobs"
)

type stubQueue struct {
	running bool
	err     error
	jobs    []jobs.Job
}

func (q *stubQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *stubQueue) Running() bool { return q.running }

func newActivityFixture() (*ActivityService, *repository.ActivityRepository) {
	repo := repository.NewActivityRepository(repository.NewMemorySlotStore(), "", 10, nil)
	return NewActivityService(repo, nil, nil), repo
}

func TestActivityServiceRecordWritesInlineWithoutQueue(t *testing.T) {
	svc, repo := newActivityFixture()
	ctx := context.Background()

	svc.Record(ctx, models.ActivityLog{Action: models.ActivityLogin, Actor: "admin@example.com"})

	entries := repo.List(ctx, models.ActivityFilter{})
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestActivityServiceRecordUsesRunningQueue(t *testing.T) {
	svc, repo := newActivityFixture()
	queue := &stubQueue{running: true}
	svc.UseQueue(queue)
	ctx := context.Background()

	svc.Record(ctx, models.ActivityLog{Action: models.ActivityLogin})
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ActivityJobType, queue.jobs[0].Type)
	assert.Empty(t, repo.List(ctx, models.ActivityFilter{}))

	require.NoError(t, svc.HandleJob(ctx, queue.jobs[0]))
	assert.Len(t, repo.List(ctx, models.ActivityFilter{}), 1)
}

func TestActivityServiceRecordFallsBackWhenQueueRejects(t *testing.T) {
	svc, repo := newActivityFixture()
	svc.UseQueue(&stubQueue{running: true, err: errors.New("full")})
	ctx := context.Background()

	svc.Record(ctx, models.ActivityLog{Action: models.ActivityLogin})
	assert.Len(t, repo.List(ctx, models.ActivityFilter{}), 1)
}

func TestActivityServiceWithWorkerQueue(t *testing.T) {
	svc, repo := newActivityFixture()
	queue := jobs.NewQueue("activity", svc.HandleJob, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	svc.UseQueue(queue)
	queue.Start(context.Background())

	svc.Record(context.Background(), models.ActivityLog{Action: models.ActivityFeedbackSubmitted})
	queue.Stop()

	assert.Len(t, repo.List(context.Background(), models.ActivityFilter{}), 1)
}

func TestActivityServiceWritesInlineOnceQueueContextEnds(t *testing.T) {
	svc, repo := newActivityFixture()
	queue := jobs.NewQueue("activity", svc.HandleJob, jobs.QueueConfig{Workers: 1})
	svc.UseQueue(queue)

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	cancel()

	svc.Record(context.Background(), models.ActivityLog{Action: models.ActivityFeedbackStatusChanged})
	assert.Len(t, repo.List(context.Background(), models.ActivityFilter{}), 1)
	queue.Stop()
}

func TestActivityServiceHandleJobRejectsUnknownPayload(t *testing.T) {
	svc, _ := newActivityFixture()
	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "x", Payload: "nope"}))
}

func TestActivityServiceListDeleteClear(t *testing.T) {
	svc, _ := newActivityFixture()
	ctx := context.Background()
	svc.Record(ctx, models.ActivityLog{ID: "a", Action: models.ActivityLogin})
	svc.Record(ctx, models.ActivityLog{ID: "b", Action: models.ActivityFeedbackExported})

	entries, err := svc.List(ctx, dto.ActivityQuery{Action: models.ActivityLogin})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.List(ctx, dto.ActivityQuery{Limit: 1000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "a"))
	err = svc.Delete(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Clear(ctx))
	entries, err = svc.List(ctx, dto.ActivityQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
