// Package queue runs generation jobs on a small worker pool and keeps
// finished jobs queryable until their retention period expires.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/demoplan/demoplan/internal/logging"
)

// Job status values.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrUnknownJobType is returned by Enqueue for unregistered job types.
var ErrUnknownJobType = errors.New("unknown job type")

// ErrQueueFull is returned by Enqueue when the queue buffer is exhausted.
var ErrQueueFull = errors.New("queue is full")

// Handler executes one job type. The returned value is stored as the job
// result.
type Handler func(ctx context.Context, job *Job) (any, error)

// Job is one queued unit of work.
type Job struct {
	ID          string
	Type        string
	Payload     any
	Status      string
	Result      any
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Options configure a Manager. Zero values fall back to defaults.
type Options struct {
	// Workers is the number of jobs processed concurrently. Defaults to 2.
	Workers int

	// JobTTL is how long jobs stay queryable after their last status
	// change. Defaults to an hour.
	JobTTL time.Duration

	// QueueSize is the enqueue buffer. Defaults to 100.
	QueueSize int
}

// Manager dispatches queued jobs to registered handlers.
type Manager struct {
	handlers map[string]Handler
	workers  int
	queue    chan *Job
	jobs     *gocache.Cache
	ttl      time.Duration

	mu     sync.Mutex // guards job field mutation
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewManager creates a Manager. Register handlers before calling Start.
func NewManager(opts Options) *Manager {
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	ttl := opts.JobTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	size := opts.QueueSize
	if size <= 0 {
		size = 100
	}
	return &Manager{
		handlers: make(map[string]Handler),
		workers:  workers,
		queue:    make(chan *Job, size),
		jobs:     gocache.New(ttl, ttl),
		ttl:      ttl,
	}
}

// Register installs the handler for a job type. Not safe to call after
// Start.
func (m *Manager) Register(jobType string, h Handler) {
	m.handlers[jobType] = h
}

// Start launches the worker pool. Workers stop when ctx is cancelled or
// Stop is called.
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(runCtx)
	}
	logging.Info("queue started", "workers", m.workers)
}

// Stop cancels the workers and waits for in-flight jobs to finish. Jobs
// still waiting in the queue stay pending.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	logging.Info("queue stopped")
}

// Enqueue adds a job and returns a snapshot of it.
func (m *Manager) Enqueue(jobType string, payload any) (*Job, error) {
	if _, ok := m.handlers[jobType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	m.jobs.Set(job.ID, job, gocache.DefaultExpiration)

	select {
	case m.queue <- job:
		logging.Debug("job enqueued", "job_id", job.ID, "type", jobType)
		return m.snapshot(job), nil
	default:
		m.jobs.Delete(job.ID)
		return nil, ErrQueueFull
	}
}

// Status returns a snapshot of the job with the given id.
func (m *Manager) Status(id string) (*Job, bool) {
	v, found := m.jobs.Get(id)
	if !found {
		return nil, false
	}
	return m.snapshot(v.(*Job)), true
}

// All returns snapshots of every retained job, newest first.
func (m *Manager) All() []*Job {
	items := m.jobs.Items()
	jobs := make([]*Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, m.snapshot(item.Object.(*Job)))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-m.queue:
			m.run(ctx, job)
		}
	}
}

func (m *Manager) run(ctx context.Context, job *Job) {
	handler := m.handlers[job.Type]

	now := time.Now()
	m.update(job, func(j *Job) {
		j.Status = StatusProcessing
		j.StartedAt = &now
	})
	logging.Info("job started", "job_id", job.ID, "type", job.Type)

	result, err := handler(ctx, job)

	done := time.Now()
	if err != nil {
		m.update(job, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
			j.CompletedAt = &done
		})
		logging.Error("job failed", "job_id", job.ID, "type", job.Type, "error", err)
		return
	}

	m.update(job, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = result
		j.CompletedAt = &done
	})
	logging.Info("job completed", "job_id", job.ID, "type", job.Type)
}

// update mutates a job under the lock and refreshes its retention.
func (m *Manager) update(job *Job, fn func(*Job)) {
	m.mu.Lock()
	fn(job)
	m.mu.Unlock()
	m.jobs.Set(job.ID, job, gocache.DefaultExpiration)
}

func (m *Manager) snapshot(job *Job) *Job {
	m.mu.Lock()
	copied := *job
	m.mu.Unlock()
	return &copied
}
