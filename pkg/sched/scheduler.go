// Package sched runs the service's background jobs: periodically repeating
// jobs driven by tickers, and one-shot ad-hoc jobs that are queued at most
// once per class. It exposes the two queries the domain services coordinate
// on: whether an ad-hoc job of a class is pending, and whether a periodic
// job is currently executing.
package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspulse/engagement-api/pkg/jobs"
)

// ErrAlreadyQueued is returned when an ad-hoc job of the same class is
// already pending.
var ErrAlreadyQueued = errors.New("sched: job already queued")

// JobFunc is the work a scheduled job performs.
type JobFunc func(ctx context.Context) error

// JobStatus describes one registered job for status reporting.
type JobStatus struct {
	Name      string     `json:"name"`
	Periodic  bool       `json:"periodic"`
	Running   bool       `json:"running"`
	Pending   bool       `json:"pending"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

type periodicJob struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

type jobState struct {
	running   bool
	pending   bool
	lastRun   *time.Time
	lastError string
}

// Scheduler drives periodic and ad-hoc background jobs.
type Scheduler struct {
	logger *zap.Logger
	queue  *jobs.Queue

	mu       sync.Mutex
	periodic []periodicJob
	adhoc    map[string]JobFunc
	states   map[string]*jobState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a scheduler. Ad-hoc jobs are dispatched through a single-worker
// queue so at most one runs at a time.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		logger: logger,
		adhoc:  make(map[string]JobFunc),
		states: make(map[string]*jobState),
	}
	s.queue = jobs.NewQueue("adhoc", s.handleAdhoc, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		Logger:     logger,
	})
	return s
}

// RegisterPeriodic adds a repeating job. Must be called before Start.
func (s *Scheduler) RegisterPeriodic(name string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periodic = append(s.periodic, periodicJob{name: name, interval: interval, fn: fn})
	s.states[name] = &jobState{}
}

// RegisterAdhoc adds a one-shot job class triggerable via Enqueue.
func (s *Scheduler) RegisterAdhoc(class string, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adhoc[class] = fn
	s.states[class] = &jobState{}
}

// Start launches the ticker loops and the ad-hoc worker.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	periodic := make([]periodicJob, len(s.periodic))
	copy(periodic, s.periodic)
	s.mu.Unlock()

	s.queue.Start(ctx)
	for _, job := range periodic {
		s.wg.Add(1)
		go s.runPeriodic(job)
	}
}

// Stop cancels all loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.queue.Stop()
}

// Enqueue queues an ad-hoc job once; a second enqueue while the first is
// pending returns ErrAlreadyQueued.
func (s *Scheduler) Enqueue(class string) error {
	s.mu.Lock()
	if _, ok := s.adhoc[class]; !ok {
		s.mu.Unlock()
		return errors.New("sched: unknown job class " + class)
	}
	state := s.states[class]
	if state.pending || state.running {
		s.mu.Unlock()
		return ErrAlreadyQueued
	}
	state.pending = true
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: class})
	if err != nil {
		s.mu.Lock()
		s.states[class].pending = false
		s.mu.Unlock()
	}
	return err
}

// Pending reports whether an ad-hoc job of the class is queued or running.
func (s *Scheduler) Pending(class string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[class]
	return ok && (state.pending || state.running)
}

// Holding reports whether the named periodic job is currently executing.
func (s *Scheduler) Holding(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[name]
	return ok && state.running
}

// Statuses returns a snapshot of every registered job.
func (s *Scheduler) Statuses() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]JobStatus, 0, len(s.states))
	for _, job := range s.periodic {
		state := s.states[job.name]
		statuses = append(statuses, JobStatus{
			Name: job.name, Periodic: true,
			Running: state.running, LastRun: state.lastRun, LastError: state.lastError,
		})
	}
	for class := range s.adhoc {
		state := s.states[class]
		statuses = append(statuses, JobStatus{
			Name: class, Periodic: false,
			Running: state.running, Pending: state.pending,
			LastRun: state.lastRun, LastError: state.lastError,
		})
	}
	return statuses
}

func (s *Scheduler) runPeriodic(job periodicJob) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(job.name, job.fn)
		}
	}
}

func (s *Scheduler) handleAdhoc(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	fn, ok := s.adhoc[job.Type]
	if ok {
		s.states[job.Type].pending = false
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.execute(job.Type, fn)
}

func (s *Scheduler) execute(name string, fn JobFunc) error {
	s.mu.Lock()
	state := s.states[name]
	if state.running {
		s.mu.Unlock()
		s.logger.Sugar().Warnw("job still running, skipping tick", "job", name)
		return nil
	}
	state.running = true
	s.mu.Unlock()

	start := time.Now()
	err := fn(s.ctx)

	s.mu.Lock()
	now := time.Now().UTC()
	state.running = false
	state.lastRun = &now
	if err != nil {
		state.lastError = err.Error()
	} else {
		state.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Sugar().Errorw("job failed", "job", name, "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Sugar().Debugw("job completed", "job", name, "duration", time.Since(start))
	return nil
}
