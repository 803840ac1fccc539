package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnqueueUnknownType(t *testing.T) {
	m := NewManager(Options{})

	_, err := m.Enqueue("nope", nil)
	require.ErrorIs(t, err, ErrUnknownJobType)
}

func TestEnqueueQueueFull(t *testing.T) {
	m := NewManager(Options{QueueSize: 1})
	m.Register("work", func(ctx context.Context, job *Job) (any, error) {
		return nil, nil
	})

	// No workers running, so the buffer fills immediately.
	_, err := m.Enqueue("work", nil)
	require.NoError(t, err)

	_, err = m.Enqueue("work", nil)
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestJobLifecycle(t *testing.T) {
	m := NewManager(Options{Workers: 1})
	m.Register("echo", func(ctx context.Context, job *Job) (any, error) {
		return job.Payload, nil
	})

	m.Start(context.Background())
	defer m.Stop()

	job, err := m.Enqueue("echo", "hello")
	require.NoError(t, err)
	require.Equal(t, StatusPending, job.Status)
	require.NotEmpty(t, job.ID)
	require.False(t, job.CreatedAt.IsZero())

	require.Eventually(t, func() bool {
		got, found := m.Status(job.ID)
		return found && got.Status == StatusCompleted
	}, time.Second, 5*time.Millisecond)

	got, found := m.Status(job.ID)
	require.True(t, found)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, "hello", got.Result)
	require.Empty(t, got.Error)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)
}

func TestFailedJobRecordsError(t *testing.T) {
	m := NewManager(Options{Workers: 1})
	m.Register("boom", func(ctx context.Context, job *Job) (any, error) {
		return nil, errors.New("handler exploded")
	})

	m.Start(context.Background())
	defer m.Stop()

	job, err := m.Enqueue("boom", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, found := m.Status(job.ID)
		return found && got.Status == StatusFailed
	}, time.Second, 5*time.Millisecond)

	got, _ := m.Status(job.ID)
	require.Equal(t, "handler exploded", got.Error)
	require.Nil(t, got.Result)
	require.NotNil(t, got.CompletedAt)
}

func TestWorkersRunConcurrently(t *testing.T) {
	var running atomic.Int32
	release := make(chan struct{})

	m := NewManager(Options{Workers: 2})
	m.Register("block", func(ctx context.Context, job *Job) (any, error) {
		running.Add(1)
		<-release
		return nil, nil
	})

	m.Start(context.Background())
	defer m.Stop()

	_, err := m.Enqueue("block", nil)
	require.NoError(t, err)
	_, err = m.Enqueue("block", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return running.Load() == 2
	}, time.Second, 5*time.Millisecond)

	close(release)
}

func TestAllNewestFirst(t *testing.T) {
	m := NewManager(Options{})
	m.Register("work", func(ctx context.Context, job *Job) (any, error) {
		return nil, nil
	})

	first, err := m.Enqueue("work", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.Enqueue("work", nil)
	require.NoError(t, err)

	jobs := m.All()
	require.Len(t, jobs, 2)
	require.Equal(t, second.ID, jobs[0].ID)
	require.Equal(t, first.ID, jobs[1].ID)
}

func TestJobsExpire(t *testing.T) {
	m := NewManager(Options{JobTTL: 20 * time.Millisecond})
	m.Register("work", func(ctx context.Context, job *Job) (any, error) {
		return nil, nil
	})

	job, err := m.Enqueue("work", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, found := m.Status(job.ID)
		return !found
	}, time.Second, 5*time.Millisecond)
}

func TestStopWaitsForRunningJob(t *testing.T) {
	started := make(chan struct{})

	m := NewManager(Options{Workers: 1})
	m.Register("slow", func(ctx context.Context, job *Job) (any, error) {
		close(started)
		time.Sleep(30 * time.Millisecond)
		return "done", nil
	})

	m.Start(context.Background())

	job, err := m.Enqueue("slow", nil)
	require.NoError(t, err)

	<-started
	m.Stop()

	got, found := m.Status(job.ID)
	require.True(t, found)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, "done", got.Result)
}
