package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/yumix/internal/metrics"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownTask    = errors.New("unknown scheduled task")
	ErrAlreadyRunning = errors.New("scheduled task already running")
)

// Task is one execution of a recurring job.
type Task func(ctx context.Context) error

type entry struct {
	spec    string
	task    Task
	running bool
}

// Scheduler owns the process's named recurring tasks. Each task runs at most
// once at a time, whether it was started by cron or by RunNow.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	log     *logrus.Entry

	mu    sync.Mutex
	tasks map[string]*entry
}

type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithRunTimeout bounds every task execution.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		timeout: 5 * time.Minute,
		log:     logger.WithComponent("scheduler"),
		tasks:   map[string]*entry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.PrintfLogger(logger.Log)))
	}
	return s
}

// Register adds a named task. An empty spec registers the task for RunNow
// only.
func (s *Scheduler) Register(name, spec string, task Task) error {
	if name == "" || task == nil {
		return fmt.Errorf("scheduler: name and task are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("scheduler: task %q already registered", name)
	}

	if spec != "" {
		if _, err := s.cron.AddFunc(spec, func() {
			if err := s.RunNow(context.Background(), name); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				s.log.WithError(err).WithField("task", name).Error("Scheduled task failed")
			}
		}); err != nil {
			return fmt.Errorf("scheduler: invalid spec %q for %s: %w", spec, name, err)
		}
	}

	s.tasks[name] = &entry{spec: spec, task: task}
	s.log.WithFields(logrus.Fields{"task": name, "spec": spec}).Info("Task registered")
	return nil
}

// Names lists registered tasks in alphabetical order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop halts cron. The returned context is done once running tasks finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	return s.cron.Stop()
}

// RunNow executes the named task synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.tasks[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if e.running {
		s.mu.Unlock()
		s.log.WithField("task", name).Warn("Task still running, skipping")
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}
	e.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		e.running = false
		s.mu.Unlock()
	}()

	return s.execute(ctx, name, e.task)
}

func (s *Scheduler) execute(ctx context.Context, name string, task Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.log.WithField("task", name)
	log.Info("Task started")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", name, r)
		}

		elapsed := time.Since(start)
		metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		if err != nil {
			metrics.JobRuns.WithLabelValues(name, "error").Inc()
			log.WithError(err).WithField("duration", elapsed.String()).Error("Task failed")
			return
		}
		metrics.JobRuns.WithLabelValues(name, "success").Inc()
		metrics.JobLastSuccess.WithLabelValues(name).SetToCurrentTime()
		log.WithField("duration", elapsed.String()).Info("Task completed")
	}()

	return task(ctx)
}
