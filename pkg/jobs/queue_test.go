package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRoutesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	got := make(chan Job, 1)
	q.Handle("reminder", func(_ context.Context, job Job) error {
		got <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "reminder", Payload: "st-1"}))

	select {
	case job := <-got:
		assert.Equal(t, "st-1", job.Payload)
		assert.NotEmpty(t, job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job was not handled")
	}
}

func TestQueueRetriesFailures(t *testing.T) {
	q := NewQueue("retry", QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls int32
	done := make(chan struct{})
	q.Handle("flaky", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("boom")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))
	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("idle", QueueConfig{})
	assert.Error(t, q.Enqueue(Job{Type: "x"}))
}

func TestEnqueueReportsFullBuffer(t *testing.T) {
	q := NewQueue("full", QueueConfig{Workers: 1, BufferSize: 1})
	block := make(chan struct{})
	q.Handle("slow", func(ctx context.Context, _ Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	var err error
	for i := 0; i < 5 && err == nil; i++ {
		err = q.Enqueue(Job{Type: "slow"})
	}
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestDrainWaitsForRunningJobs(t *testing.T) {
	q := NewQueue("drain", QueueConfig{Workers: 1, BufferSize: 4})
	var done int32
	q.Handle("slow", func(context.Context, Job) error {
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&done, 1)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "slow"}))
	require.NoError(t, q.Enqueue(Job{Type: "slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
	assert.Equal(t, int32(2), atomic.LoadInt32(&done))
}
