package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 1)
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "csv"}))

	select {
	case id := <-done:
		assert.Equal(t, "job-1", id)
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesAndObserves(t *testing.T) {
	var mu sync.Mutex
	attempts := []int{}
	failures := 0
	finished := make(chan struct{})

	q := NewQueue("exports", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts = append(attempts, job.Attempt)
		if job.Attempt < 2 {
			return errors.New("render failed")
		}
		close(finished)
		return nil
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 5 * time.Millisecond,
		Observer: func(_ Job, err error, _ time.Duration) {
			if err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-2", Type: "pdf"}))

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, attempts)
	assert.Equal(t, 2, failures)
}

func TestQueueRecoversPanics(t *testing.T) {
	observed := make(chan error, 1)
	q := NewQueue("exports", func(context.Context, Job) error {
		panic("nil dataset")
	}, QueueConfig{
		MaxRetries: 1,
		RetryDelay: time.Hour,
		Observer: func(_ Job, err error, _ time.Duration) {
			select {
			case observed <- err:
			default:
			}
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-4"}))

	select {
	case err := <-observed:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil dataset")
	case <-time.After(time.Second):
		t.Fatal("panic was not observed")
	}
}

func TestQueueEnqueueStates(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("exports", func(ctx context.Context, _ Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.ErrorIs(t, q.Enqueue(Job{ID: "early"}), ErrNotStarted)

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "b"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "c"}), ErrFull)

	close(block)
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrStopped)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, time.Minute, backoff(time.Second, 20))
}
