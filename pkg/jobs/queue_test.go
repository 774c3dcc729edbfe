package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make([]string, 0)
	q := NewQueue("activity", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 2})

	q.Start(context.Background())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "test"}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, uint64(3), q.Stats().Processed)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("activity", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("slot busy")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "retry-me"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, uint64(2), q.Stats().Retried)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32
	q := NewQueue("activity", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("slot down")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "doomed"}))
	require.Eventually(t, func() bool { return q.Stats().Failed == 1 }, 2*time.Second, 5*time.Millisecond)
	q.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Zero(t, stats.Processed)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("activity", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueueNotStarted))
	assert.False(t, q.Running())
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	release := make(chan struct{})
	var handled int32
	q := NewQueue("activity", func(ctx context.Context, job Job) error {
		if job.ID == "first" {
			<-release
		}
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "first"}))
	require.NoError(t, q.Enqueue(Job{ID: "second"}))
	require.NoError(t, q.Enqueue(Job{ID: "third"}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&handled))
	assert.Zero(t, q.Stats().Pending)
}

func TestQueueRejectsJobsOnceStartContextIsDone(t *testing.T) {
	var handled int32
	q := NewQueue("activity", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	cancel()

	assert.False(t, q.Running())
	err := q.Enqueue(Job{ID: "late"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueNotStarted)

	q.Stop()
	assert.Zero(t, atomic.LoadInt32(&handled))
}

func TestQueueHandlesEveryAcceptedJobAcrossCancellation(t *testing.T) {
	for round := 0; round < 50; round++ {
		var handled int32
		q := NewQueue("activity", func(ctx context.Context, job Job) error {
			atomic.AddInt32(&handled, 1)
			return nil
		}, QueueConfig{Workers: 2, BufferSize: 4})

		ctx, cancel := context.WithCancel(context.Background())
		q.Start(ctx)

		var accepted int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if q.Enqueue(Job{ID: "job"}) == nil {
					atomic.AddInt32(&accepted, 1)
				}
			}()
		}
		cancel()
		wg.Wait()
		q.Stop()

		require.Equal(t, atomic.LoadInt32(&accepted), atomic.LoadInt32(&handled), "round %d", round)
	}
}
